// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package vehicle

import (
	"net/url"
	"strings"

	"github.com/taibuivan/autolist/internal/core/record"
)

// downloadParams must all be present on an attachment URL to rebuild it.
var downloadParams = []string{"entityTypeId", "id", "fieldName", "fileId"}

// PhotoURLs extracts attachment download URLs from the photo field.
//
// Attachments carry a browser URL ("url") that needs a session cookie. When it
// names the file fully it is rebuilt into a webhook download URL; otherwise
// "urlMachine", then "url", then plain string entries are used. The result is
// deduplicated with the first occurrence kept.
func PhotoURLs(field record.Value, webhook string) []string {
	items := attachmentItems(field)

	var out []string
	seen := map[string]struct{}{}
	add := func(u string) {
		u = strings.TrimSpace(u)
		if !isHTTP(u) {
			return
		}
		if _, dup := seen[u]; dup {
			return
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}

	for _, item := range items {
		switch item.Kind() {
		case record.KindObject:
			browserURL := fieldText(item, "url")
			if rebuilt, ok := DownloadURL(browserURL, webhook); ok {
				add(rebuilt)
				continue
			}
			if machine := fieldText(item, "urlMachine"); isHTTP(machine) {
				add(machine)
				continue
			}
			add(browserURL)
		case record.KindText:
			text, _ := item.Scalar()
			add(text)
		}
	}

	return out
}

// DownloadURL rebuilds a browser attachment URL into the webhook file download endpoint.
func DownloadURL(browserURL, webhook string) (string, bool) {
	if browserURL == "" || webhook == "" {
		return "", false
	}
	parsed, err := url.Parse(browserURL)
	if err != nil {
		return "", false
	}

	query := parsed.Query()
	params := url.Values{}
	for _, name := range downloadParams {
		value := query.Get(name)
		if value == "" {
			return "", false
		}
		params.Set(name, value)
	}

	return strings.TrimRight(webhook, "/") + "/crm.controller.item.getFile/?" + params.Encode(), true
}

// attachmentItems normalizes the storage shapes of the photo field to a list.
func attachmentItems(field record.Value) []record.Value {
	switch field.Kind() {
	case record.KindList:
		return field.Items()
	case record.KindObject:
		return []record.Value{field}
	case record.KindText:
		text, _ := field.Scalar()
		text = strings.TrimSpace(text)
		if strings.HasPrefix(text, "[") || strings.HasPrefix(text, "{") {
			if inner, err := record.ParseJSON([]byte(text)); err == nil {
				return attachmentItems(inner)
			}
		}
		if text != "" {
			return []record.Value{field}
		}
	}
	return nil
}

func fieldText(item record.Value, name string) string {
	member, ok := item.Field(name)
	if !ok {
		return ""
	}
	text, _ := member.Scalar()
	return strings.TrimSpace(text)
}

func isHTTP(u string) bool {
	return strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://")
}
