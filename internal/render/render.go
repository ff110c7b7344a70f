package render

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"nerclient/internal/domain"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// Write prints m in format. An unknown format is an error.
func Write(w io.Writer, format Format, m domain.EntityMap) error {
	switch format {
	case FormatJSON:
		return JSON(w, m)
	case FormatText:
		return Text(w, m)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

// JSON writes m as indented JSON with keys sorted and non-ASCII text kept as is.
func JSON(w io.Writer, m domain.EntityMap) error {
	if m == nil {
		m = domain.EntityMap{}
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")

	if err := enc.Encode(m); err != nil {
		return fmt.Errorf("encode entity map: %w", err)
	}

	return nil
}

// Text writes one "CATEGORY: a, b" line per category, sorted by category.
func Text(w io.Writer, m domain.EntityMap) error {
	categories := make([]domain.Category, 0, len(m))
	for category := range m {
		categories = append(categories, category)
	}
	slices.Sort(categories)

	var b strings.Builder
	for _, category := range categories {
		b.WriteString(string(category))
		b.WriteString(": ")
		b.WriteString(strings.Join(m[category], ", "))
		b.WriteString("\n")
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("write text: %w", err)
	}

	return nil
}
