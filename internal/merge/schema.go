package merge

import (
	_ "embed" // Required for the default schema document.
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"strings"

	"nerclient/internal/domain"

	"gopkg.in/yaml.v3"
)

// Strategy names how two lists of the same category are combined.
type Strategy string

const (
	// Append concatenates the increment after the accumulator.
	Append Strategy = "append"
	// AppendUnique appends only mentions the accumulator does not have yet.
	AppendUnique Strategy = "appendUnique"
	// Overwrite replaces the accumulator's list with the increment's.
	Overwrite Strategy = "overwrite"
)

func (s Strategy) Valid() bool {
	switch s {
	case Append, AppendUnique, Overwrite:
		return true
	default:
		return false
	}
}

// Schema declares a strategy per category. Categories it does not declare
// are merged with Overwrite.
type Schema map[domain.Category]Strategy

type schemaDocument struct {
	Properties map[string]struct {
		MergeStrategy Strategy `yaml:"mergeStrategy"`
	} `yaml:"properties"`
}

//go:embed schema.yaml
var defaultSchemaYAML []byte

var defaultSchema = mustParseSchema(defaultSchemaYAML)

// Default returns the schema that appends LOC, ORG and PER mentions.
func Default() Schema {
	return maps.Clone(defaultSchema)
}

// ParseSchema decodes a YAML schema document.
func ParseSchema(data []byte) (Schema, error) {
	var doc schemaDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}

	if len(doc.Properties) == 0 {
		return nil, errors.New("schema declares no properties")
	}

	schema := make(Schema, len(doc.Properties))
	for name, prop := range doc.Properties {
		category := domain.Category(strings.TrimSpace(name))
		if category == "" {
			return nil, errors.New("schema declares an empty category name")
		}

		if !prop.MergeStrategy.Valid() {
			return nil, fmt.Errorf("unknown merge strategy %q for category %s", prop.MergeStrategy, category)
		}

		schema[category] = prop.MergeStrategy
	}

	return schema, nil
}

// LoadSchema reads a YAML schema document from r.
func LoadSchema(r io.Reader) (Schema, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}

	return ParseSchema(data)
}

// LoadSchemaFile reads a YAML schema document from path.
func LoadSchemaFile(path string) (Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	return ParseSchema(data)
}

func mustParseSchema(data []byte) Schema {
	schema, err := ParseSchema(data)
	if err != nil {
		panic(fmt.Sprintf("parse default merge schema: %v", err))
	}

	return schema
}
