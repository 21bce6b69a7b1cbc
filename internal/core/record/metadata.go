// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package record

import (
	"sort"
	"strings"

	"github.com/taibuivan/autolist/pkg/convert"
)

// FieldType classifies how a raw field value is turned into display text.
type FieldType string

const (
	FieldText      FieldType = "text"
	FieldEnum      FieldType = "enum"
	FieldReference FieldType = "reference"
)

// crmReferenceType is the CRM type name of fields pointing into a catalog.
const crmReferenceType = "iblock_element"

// FieldMetadata describes one CRM field.
type FieldMetadata struct {
	FieldID string
	// CRMType is the type name reported by the CRM ("string", "enumeration", "iblock_element").
	CRMType string
	Type    FieldType
	Title   string

	// Enum maps enumeration codes to labels.
	Enum map[string]string

	// CatalogID and CatalogType locate the catalog of a reference field.
	CatalogID   int64
	CatalogType string
}

// IsReference reports whether values of the field are catalog entity ids.
func (m *FieldMetadata) IsReference() bool {
	return m != nil && m.Type == FieldReference && m.CatalogID > 0
}

// RawMetadata is a metadata row as stored in the mirror, before interpretation.
type RawMetadata struct {
	FieldID  string
	CRMType  string
	Title    string
	Settings []byte
	Labels   []byte
	// EnumMap is the separately fetched enumeration map, if any.
	EnumMap map[string]string
}

// itemListKeys are the members that may carry an enumeration item list.
var itemListKeys = []string{"items", "values", "enum", "list", "options"}

// titleKeys are the label members that carry the human field title.
var titleKeys = []string{"title", "formLabel", "listLabel", "filterLabel", "label", "name"}

var (
	itemIDKeys    = []string{"ID", "id", "VALUE_ID", "value_id"}
	itemValueKeys = []string{"VALUE", "value", "NAME", "name", "TITLE", "title"}
)

var catalogTypeKeys = []string{"IBLOCK_TYPE_ID", "IBLOCK_TYPE", "IBLOCK_TYPE_ID_NAME"}

// ParseMetadata interprets a raw metadata row.
//
// The enum map is merged from the settings item list, then the labels, then
// the separately stored map (only when the first two yielded nothing). A blank
// stored title falls back to the title found in the labels.
func ParseMetadata(raw RawMetadata) FieldMetadata {
	meta := FieldMetadata{
		FieldID: strings.TrimSpace(raw.FieldID),
		CRMType: strings.TrimSpace(raw.CRMType),
		Title:   strings.TrimSpace(raw.Title),
		Enum:    map[string]string{},
	}

	settings := parseLoose(raw.Settings)
	labels := parseLoose(raw.Labels)

	if settings.Kind() == KindObject {
		if id, ok := settings.Field("IBLOCK_ID"); ok {
			if catalogID, ok := convert.ParseID(id.String()); ok {
				meta.CatalogID = catalogID
			}
		}
		for _, key := range catalogTypeKeys {
			if member, ok := settings.Field(key); ok && member.Kind() == KindText && member.String() != "" {
				meta.CatalogType = member.String()
				break
			}
		}
		for code, label := range enumFromSettings(settings) {
			meta.Enum[code] = label
		}
	}

	for code, label := range enumFromLabels(labels) {
		meta.Enum[code] = label
	}
	if len(meta.Enum) == 0 {
		for code, label := range raw.EnumMap {
			meta.Enum[code] = label
		}
	}

	if meta.Title == "" {
		meta.Title = titleFromLabels(labels)
	}

	switch {
	case meta.CRMType == crmReferenceType && meta.CatalogID > 0:
		meta.Type = FieldReference
	case len(meta.Enum) > 0:
		meta.Type = FieldEnum
	default:
		meta.Type = FieldText
	}

	return meta
}

// parseLoose accepts a JSON document that may itself be a JSON string holding JSON.
func parseLoose(data []byte) Value {
	if len(data) == 0 {
		return Null()
	}
	value, err := ParseJSON(data)
	if err != nil {
		return Null()
	}
	if value.Kind() == KindText {
		inner, err := ParseJSON([]byte(value.text))
		if err != nil {
			return Null()
		}
		return inner
	}
	return value
}

func enumFromSettings(settings Value) map[string]string {
	out := map[string]string{}
	for _, key := range itemListKeys {
		list, ok := settings.Field(key)
		if !ok || list.Kind() != KindList {
			continue
		}
		collectItems(list.Items(), out)
	}
	return out
}

func enumFromLabels(labels Value) map[string]string {
	out := map[string]string{}

	switch labels.Kind() {
	case KindObject:
		// A labels object with title members describes the field, not its values.
		for _, key := range titleKeys {
			if _, ok := labels.Field(key); ok {
				return out
			}
		}
		for _, key := range itemListKeys {
			if list, ok := labels.Field(key); ok && list.Kind() == KindList {
				collectItems(list.Items(), out)
				return out
			}
		}
		for code := range labels.fields {
			if convert.DigitsOnly(code) != code || code == "" {
				return out
			}
		}
		for code, label := range labels.fields {
			if text, ok := label.Scalar(); ok && label.Kind() != KindBool {
				out[code] = text
			}
		}
	case KindList:
		collectItems(labels.Items(), out)
	}

	return out
}

func collectItems(items []Value, out map[string]string) {
	for _, item := range items {
		if item.Kind() != KindObject {
			continue
		}
		id, okID := firstPresent(item, itemIDKeys)
		label, okLabel := firstPresent(item, itemValueKeys)
		if okID && okLabel {
			out[id] = label
		}
	}
}

// firstPresent returns the first member among keys that holds a non-empty scalar.
func firstPresent(item Value, keys []string) (string, bool) {
	for _, key := range keys {
		member, ok := item.Field(key)
		if !ok {
			continue
		}
		if text, ok := member.Scalar(); ok && text != "" {
			return text, true
		}
	}
	return "", false
}

func titleFromLabels(labels Value) string {
	if labels.Kind() != KindObject {
		return ""
	}
	for _, key := range titleKeys {
		member, ok := labels.Field(key)
		if !ok || member.Kind() != KindText {
			continue
		}
		if title := strings.TrimSpace(member.text); title != "" {
			return title
		}
	}
	return ""
}

// # Schema

// Schema is an immutable snapshot of all field metadata for one entity.
type Schema struct {
	fields map[string]*FieldMetadata
	order  []string
}

// NewSchema indexes metadata by lowercase field id.
func NewSchema(fields []FieldMetadata) *Schema {
	s := &Schema{fields: make(map[string]*FieldMetadata, len(fields))}
	for i := range fields {
		meta := fields[i]
		key := strings.ToLower(meta.FieldID)
		if key == "" {
			continue
		}
		if _, seen := s.fields[key]; !seen {
			s.order = append(s.order, key)
		}
		s.fields[key] = &meta
	}
	sort.Strings(s.order)
	return s
}

// Field returns the metadata of a field id, nil when unknown.
func (s *Schema) Field(fieldID string) *FieldMetadata {
	if s == nil {
		return nil
	}
	return s.fields[strings.ToLower(fieldID)]
}

// FindByTitle returns the id of the first field (in field id order) whose
// title equals one of titles, compared trimmed and case-insensitively.
func (s *Schema) FindByTitle(titles ...string) (string, bool) {
	if s == nil {
		return "", false
	}
	wanted := make(map[string]struct{}, len(titles))
	for _, title := range titles {
		if key := strings.ToLower(strings.TrimSpace(title)); key != "" {
			wanted[key] = struct{}{}
		}
	}
	for _, key := range s.order {
		meta := s.fields[key]
		if _, ok := wanted[strings.ToLower(strings.TrimSpace(meta.Title))]; ok && meta.Title != "" {
			return meta.FieldID, true
		}
	}
	return "", false
}

// FindByTitleStem returns the ids of fields whose lowercase title contains any stem.
func (s *Schema) FindByTitleStem(stems ...string) []string {
	if s == nil {
		return nil
	}
	var out []string
	for _, key := range s.order {
		meta := s.fields[key]
		title := strings.ToLower(meta.Title)
		if title == "" {
			continue
		}
		for _, stem := range stems {
			if stem != "" && strings.Contains(title, strings.ToLower(stem)) {
				out = append(out, meta.FieldID)
				break
			}
		}
	}
	return out
}

// Fields returns every field in field id order.
func (s *Schema) Fields() []*FieldMetadata {
	if s == nil {
		return nil
	}
	out := make([]*FieldMetadata, 0, len(s.order))
	for _, key := range s.order {
		out = append(out, s.fields[key])
	}
	return out
}

// Len returns the number of known fields.
func (s *Schema) Len() int {
	if s == nil {
		return 0
	}
	return len(s.fields)
}
