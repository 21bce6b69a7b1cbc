// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package advert

// Options are the marketplace option ids resolved for one listing.
//
// Brand and Model are always set; Generation may be empty. Fixed holds the
// operator defaults for features the CRM does not describe (registration,
// state, availability, origin, author, steering, seats, region).
type Options struct {
	Brand      string `json:"brand"`
	Model      string `json:"model"`
	Generation string `json:"generation,omitempty"`

	Body         string `json:"body"`
	Fuel         string `json:"fuel"`
	Engine       string `json:"engine"`
	Drive        string `json:"drive"`
	Transmission string `json:"transmission"`

	Fixed map[string]string `json:"fixed,omitempty"`
}
