// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package vehicle

import (
	"bytes"
	_ "embed"
	"fmt"
	"html"
	"os"
	"regexp"
	"strings"
	"text/template"

	"github.com/microcosm-cc/bluemonday"
)

//go:embed templates/description.tmpl
var defaultDescriptionTemplate string

var blankLines = regexp.MustCompile(`\n{3,}`)

// Describer renders the advert description from a listing.
type Describer struct {
	tmpl   *template.Template
	policy *bluemonday.Policy
}

// NewDescriber parses the template at path, or the built-in bilingual
// template when path is empty.
func NewDescriber(path string) (*Describer, error) {
	source := defaultDescriptionTemplate
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("vehicle: read description template: %w", err)
		}
		source = string(data)
	}

	tmpl, err := template.New("description").Option("missingkey=zero").Parse(source)
	if err != nil {
		return nil, fmt.Errorf("vehicle: parse description template: %w", err)
	}

	return &Describer{tmpl: tmpl, policy: bluemonday.StrictPolicy()}, nil
}

// descriptionData is the view handed to the template.
type descriptionData struct {
	Title        string
	Brand        string
	Model        string
	Year         int
	Mileage      string
	Body         string
	Fuel         string
	Engine       string
	Drive        string
	Transmission string
	Link         string
}

// Describe renders the description. CRM text is stripped of markup before
// rendering and the result is scrubbed of plate numbers line by line.
func (d *Describer) Describe(l *Listing) (string, error) {
	data := descriptionData{
		Title:        d.clean(l.Title),
		Brand:        d.clean(l.Brand),
		Model:        d.clean(l.Model),
		Year:         l.Year,
		Body:         d.clean(l.Attributes.Body),
		Fuel:         d.clean(l.Attributes.Fuel),
		Engine:       d.clean(l.Attributes.Engine),
		Drive:        d.clean(l.Attributes.Drive),
		Transmission: d.clean(l.Attributes.Transmission),
		Link:         d.clean(l.Link),
	}
	if l.Mileage != nil {
		data.Mileage = groupThousands(*l.Mileage)
	}

	var buf bytes.Buffer
	if err := d.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("vehicle: render description: %w", err)
	}

	text := strings.ReplaceAll(buf.String(), "\r\n", "\n")
	text = l.Scrubber().StripLines(text)
	text = blankLines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text), nil
}

// clean drops markup and returns plain text.
func (d *Describer) clean(s string) string {
	return strings.TrimSpace(html.UnescapeString(d.policy.Sanitize(s)))
}

// groupThousands formats 123456 as "123 456".
func groupThousands(n int) string {
	digits := fmt.Sprint(n)
	if n < 0 {
		return digits
	}
	var out strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			out.WriteByte(' ')
		}
		out.WriteRune(r)
	}
	return out.String()
}
