package db

import "strings"

// IndexBuilder is a fluent builder for index definitions.
type IndexBuilder struct {
	def IndexDefinition
}

// NewIndex starts building an index definition.
func NewIndex(name string) *IndexBuilder {
	return &IndexBuilder{def: IndexDefinition{Name: name}}
}

// Shards sets the primary shard count.
func (b *IndexBuilder) Shards(n int) *IndexBuilder {
	b.def.Shards = n
	return b
}

// Replicas sets the replica count.
func (b *IndexBuilder) Replicas(n int) *IndexBuilder {
	b.def.Replicas = n
	return b
}

// Text adds an analyzed text field.
func (b *IndexBuilder) Text(name string) *IndexBuilder {
	return b.add(IndexField{Name: name, Type: IndexFieldText})
}

// TextWithKeyword adds a text field with an exact-match ".keyword" sub-field.
func (b *IndexBuilder) TextWithKeyword(name string) *IndexBuilder {
	return b.add(IndexField{Name: name, Type: IndexFieldText, KeywordSubfield: true})
}

// Keyword adds an exact-match field.
func (b *IndexBuilder) Keyword(name string) *IndexBuilder {
	return b.add(IndexField{Name: name, Type: IndexFieldKeyword})
}

// Float adds a 32-bit numeric field.
func (b *IndexBuilder) Float(name string) *IndexBuilder {
	return b.add(IndexField{Name: name, Type: IndexFieldFloat})
}

// Double adds a 64-bit numeric field.
func (b *IndexBuilder) Double(name string) *IndexBuilder {
	return b.add(IndexField{Name: name, Type: IndexFieldDouble})
}

// Integer adds an integer field.
func (b *IndexBuilder) Integer(name string) *IndexBuilder {
	return b.add(IndexField{Name: name, Type: IndexFieldInteger})
}

// Date adds a date field.
func (b *IndexBuilder) Date(name string) *IndexBuilder {
	return b.add(IndexField{Name: name, Type: IndexFieldDate})
}

func (b *IndexBuilder) add(f IndexField) *IndexBuilder {
	b.def.Fields = append(b.def.Fields, f)
	return b
}

// Build validates and returns the index definition.
func (b *IndexBuilder) Build() (*IndexDefinition, error) {
	if err := b.def.Validate(); err != nil {
		return nil, err
	}
	return &b.def, nil
}

// MustBuild calls Build and panics on error.
func (b *IndexBuilder) MustBuild() *IndexDefinition {
	def, err := b.Build()
	if err != nil {
		panic(err)
	}
	return def
}

// String returns a compact debug representation.
func (idx *IndexDefinition) String() string {
	parts := []string{"INDEX", idx.Name}
	for i := range idx.Fields {
		f := &idx.Fields[i]
		p := f.Name + ":" + f.Type.String()
		if f.KeywordSubfield {
			p += "+keyword"
		}
		parts = append(parts, p)
	}
	return strings.Join(parts, " ")
}
