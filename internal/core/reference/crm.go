// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package reference

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/taibuivan/autolist/internal/core/record"
	"github.com/taibuivan/autolist/internal/platform/apperr"
)

const crmService = "CRM"

// maxLookupBody caps the size of a lookup answer.
const maxLookupBody = 1 << 20

// CRMLookup implements [Lookup] with the CRM REST webhook (lists.element.get).
type CRMLookup struct {
	webhook string
	client  *http.Client
}

// NewCRMLookup creates a lookup client; webhook is the base URL ending in the webhook token.
func NewCRMLookup(webhook string, timeout time.Duration) *CRMLookup {
	return &CRMLookup{
		webhook: strings.TrimRight(webhook, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// itemKeys are the members of "result" that may carry the element list.
var itemKeys = []string{"items", "item", "elements", "element"}

// nameKeys are the element members that carry its label.
var nameKeys = []string{"NAME", "TITLE", "name", "title"}

// Element implements [Lookup].
func (l *CRMLookup) Element(ctx context.Context, catalogType string, key Key) (string, bool, error) {
	params := url.Values{}
	params.Set("IBLOCK_TYPE_ID", catalogType)
	params.Set("IBLOCK_ID", strconv.FormatInt(key.CatalogID, 10))
	params.Set("FILTER[ID]", strconv.FormatInt(key.EntityID, 10))

	endpoint := l.webhook + "/lists.element.get.json?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", false, fmt.Errorf("reference: build lookup request: %w", err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return "", false, apperr.UpstreamUnavailable(crmService, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxLookupBody))
	if err != nil {
		return "", false, apperr.UpstreamUnavailable(crmService, err)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return "", false, apperr.UpstreamUnavailable(crmService, fmt.Errorf("status %d", resp.StatusCode))
	}

	doc, err := record.ParseJSON(body)
	if err != nil {
		return "", false, apperr.UpstreamRejected(crmService, resp.StatusCode, truncate(string(body)))
	}

	// The CRM answers 400 with {"error": ...} for an unknown catalog type;
	// that only means "try the next type".
	if errValue, ok := doc.Field("error"); ok && errValue.Filled() {
		if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusOK {
			return "", false, nil
		}
		description, _ := doc.Field("error_description")
		return "", false, apperr.UpstreamRejected(crmService, resp.StatusCode, truncate(errValue.String()+" "+description.String()))
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return "", false, apperr.UpstreamRejected(crmService, resp.StatusCode, truncate(string(body)))
	}

	for _, item := range extractItems(doc) {
		for _, name := range nameKeys {
			if member, ok := item.Field(name); ok && member.String() != "" {
				return member.String(), true, nil
			}
		}
	}
	return "", false, nil
}

func extractItems(doc record.Value) []record.Value {
	result, ok := doc.Field("result")
	if !ok {
		return nil
	}

	switch result.Kind() {
	case record.KindList:
		return result.Items()
	case record.KindObject:
		for _, key := range itemKeys {
			member, ok := result.Field(key)
			if !ok {
				continue
			}
			switch member.Kind() {
			case record.KindList:
				return member.Items()
			case record.KindObject:
				return []record.Value{member}
			}
		}
	}
	return nil
}

func truncate(s string) string {
	const limit = 300
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
