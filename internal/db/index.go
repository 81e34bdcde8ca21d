package db

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

// IndexFieldType enumerates supported mapping field types.
type IndexFieldType int

const (
	// IndexFieldText is an analyzed full-text field.
	IndexFieldText IndexFieldType = iota
	// IndexFieldKeyword is an exact-match field.
	IndexFieldKeyword
	// IndexFieldFloat is a numeric field.
	IndexFieldFloat
	// IndexFieldInteger is an integer field.
	IndexFieldInteger
	// IndexFieldDate is a date field.
	IndexFieldDate
	// IndexFieldBoolean is a boolean field.
	IndexFieldBoolean
	// IndexFieldDouble is a 64-bit numeric field. Use it where range filters
	// must agree with float64 comparisons.
	IndexFieldDouble
)

func (t IndexFieldType) String() string {
	switch t {
	case IndexFieldText:
		return "text"
	case IndexFieldKeyword:
		return "keyword"
	case IndexFieldFloat:
		return "float"
	case IndexFieldInteger:
		return "integer"
	case IndexFieldDate:
		return "date"
	case IndexFieldBoolean:
		return "boolean"
	case IndexFieldDouble:
		return "double"
	}
	return "unknown"
}

// IndexField describes a single field in an index mapping. Dotted names
// denote object properties ("tuitionFees.amount").
type IndexField struct {
	Name string
	Type IndexFieldType

	// KeywordSubfield adds an exact-match "<name>.keyword" sub-field to a text field.
	KeywordSubfield bool
}

// IndexDefinition is a complete index definition used on creation.
type IndexDefinition struct {
	Name     string
	Shards   int
	Replicas int
	Fields   []IndexField
}

// Validate checks that the index definition is well-formed.
func (idx *IndexDefinition) Validate() error {
	if idx.Name == "" {
		return errors.New("index name is required")
	}
	if !IsValidIndexName(idx.Name) {
		return errors.New("index name contains invalid characters")
	}
	if len(idx.Fields) == 0 {
		return errors.New("at least one field is required")
	}
	if idx.Shards < 0 || idx.Replicas < 0 {
		return errors.New("shards and replicas must not be negative")
	}

	seen := make(map[string]bool)
	for i := range idx.Fields {
		f := &idx.Fields[i]
		if f.Name == "" {
			return errors.New("field name is required at index " + strconv.Itoa(i))
		}
		if strings.HasPrefix(f.Name, ".") || strings.HasSuffix(f.Name, ".") || strings.Contains(f.Name, "..") {
			return errors.New("malformed field path: " + f.Name)
		}
		if seen[f.Name] {
			return errors.New("duplicate field name: " + f.Name)
		}
		seen[f.Name] = true

		if f.KeywordSubfield && f.Type != IndexFieldText {
			return errors.New("keyword sub-field requires a text field: " + f.Name)
		}
	}

	return nil
}

// Mapping renders the index creation body.
func (idx *IndexDefinition) Mapping() ([]byte, error) {
	props := map[string]any{}
	for i := range idx.Fields {
		f := &idx.Fields[i]
		insertField(props, strings.Split(f.Name, "."), fieldMapping(f))
	}

	body := map[string]any{"mappings": map[string]any{"properties": props}}
	if idx.Shards > 0 || idx.Replicas > 0 {
		settings := map[string]any{}
		if idx.Shards > 0 {
			settings["number_of_shards"] = idx.Shards
		}
		if idx.Replicas > 0 {
			settings["number_of_replicas"] = idx.Replicas
		}
		body["settings"] = settings
	}
	return json.Marshal(body)
}

func fieldMapping(f *IndexField) map[string]any {
	m := map[string]any{"type": f.Type.String()}
	if f.KeywordSubfield {
		m["fields"] = map[string]any{
			"keyword": map[string]any{"type": "keyword", "ignore_above": 256},
		}
	}
	return m
}

func insertField(props map[string]any, path []string, leaf map[string]any) {
	if len(path) == 1 {
		props[path[0]] = leaf
		return
	}
	obj, ok := props[path[0]].(map[string]any)
	if !ok {
		obj = map[string]any{"properties": map[string]any{}}
		props[path[0]] = obj
	}
	insertField(obj["properties"].(map[string]any), path[1:], leaf)
}

// IsValidIndexName returns true if s is a lower-case name matching [a-z0-9_-]+
// that does not start with '-' or '_'.
func IsValidIndexName(s string) bool {
	if s == "" || s[0] == '-' || s[0] == '_' {
		return false
	}
	for _, r := range s {
		isLower := r >= 'a' && r <= 'z'
		isDigit := r >= '0' && r <= '9'
		isSpecial := r == '_' || r == '-'
		if !isLower && !isDigit && !isSpecial {
			return false
		}
	}
	return true
}

// EnsureIndex creates the index unless it already exists. A concurrent
// creation by another process is not an error.
func EnsureIndex(ctx context.Context, m IndexManager, def *IndexDefinition) error {
	ok, err := m.IndexExists(ctx, def.Name)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	if err := m.CreateIndex(ctx, def); err != nil && !errors.Is(err, ErrIndexExists) {
		return err
	}
	return nil
}
