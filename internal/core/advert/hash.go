// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package advert

import (
	"encoding/hex"
	"encoding/json"

	"golang.org/x/crypto/blake2b"

	"github.com/taibuivan/autolist/internal/core/vehicle"
)

// hashInput mirrors what a refresh can change on the marketplace.
type hashInput struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Price       int64    `json:"price"`
	Currency    string   `json:"currency"`
	Mileage     int      `json:"mileage"`
	Photos      []string `json:"photos"`
}

// ContentHash fingerprints the refreshable content of a listing
// (BLAKE2b-256, hex). Equal listings hash equally.
func ContentHash(l *vehicle.Listing) string {
	input := hashInput{
		Title:       Title(l),
		Description: Description(l),
		Price:       priceValue(l.Price),
		Currency:    Currency(l.PriceUnit),
		Mileage:     l.MileageOrZero(),
		Photos:      l.Photos,
	}

	data, _ := json.Marshal(input)
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}
