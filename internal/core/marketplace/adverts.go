// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package marketplace

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"path"

	"github.com/taibuivan/autolist/internal/platform/apperr"
)

// UploadImage posts one image and returns its marketplace id.
func (c *Client) UploadImage(ctx context.Context, filename string, data []byte) (string, error) {
	if filename == "" {
		filename = "image.jpg"
	}

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, path.Base(filename)))
	header.Set("Content-Type", http.DetectContentType(data))
	part, err := form.CreatePart(header)
	if err != nil {
		return "", fmt.Errorf("marketplace: build upload form: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("marketplace: build upload form: %w", err)
	}
	if err := form.Close(); err != nil {
		return "", fmt.Errorf("marketplace: build upload form: %w", err)
	}

	body, err := c.do(ctx, request{
		op:          "upload_image",
		method:      http.MethodPost,
		path:        "/images",
		body:        &buf,
		contentType: form.FormDataContentType(),
	})
	if err != nil {
		return "", err
	}

	var answer struct {
		ImageID ID `json:"image_id"`
	}
	if err := json.Unmarshal(body, &answer); err != nil || answer.ImageID == "" {
		return "", apperr.UpstreamUnavailable(Service, fmt.Errorf("no image_id in answer: %s", snippet(body)))
	}
	return answer.ImageID.String(), nil
}

// CreateAdvert posts a new advert and returns its id.
func (c *Client) CreateAdvert(ctx context.Context, advert *Advert) (string, error) {
	var answer struct {
		Advert struct {
			ID ID `json:"id"`
		} `json:"advert"`
		ID ID `json:"id"`
	}
	if err := c.doJSON(ctx, "create_advert", http.MethodPost, "/adverts", nil, advert, &answer); err != nil {
		return "", err
	}

	id := answer.Advert.ID
	if id == "" {
		id = answer.ID
	}
	if id == "" {
		return "", apperr.UpstreamUnavailable(Service, fmt.Errorf("create_advert: answer carries no advert id"))
	}
	return id.String(), nil
}

// UpdateAdvert patches the features of an existing advert.
func (c *Client) UpdateAdvert(ctx context.Context, advertID string, patch *AdvertPatch) error {
	return c.doJSON(ctx, "update_advert", http.MethodPatch, "/adverts/"+url.PathEscape(advertID), nil, patch, nil)
}

// SetAccessPolicy switches an advert between public and private.
func (c *Client) SetAccessPolicy(ctx context.Context, advertID, policy string) error {
	payload := map[string]string{"access_policy": policy}
	return c.doJSON(ctx, "access_policy", http.MethodPut, "/adverts/"+url.PathEscape(advertID)+"/access_policy", nil, payload, nil)
}

// GetAdvert returns the advert as the API renders it.
func (c *Client) GetAdvert(ctx context.Context, advertID string) (json.RawMessage, error) {
	query := url.Values{}
	query.Set("lang", c.cfg.Lang)

	var answer json.RawMessage
	if err := c.doJSON(ctx, "get_advert", http.MethodGet, "/adverts/"+url.PathEscape(advertID), query, nil, &answer); err != nil {
		return nil, err
	}
	return answer, nil
}
