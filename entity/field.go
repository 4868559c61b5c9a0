package entity

import "github.com/syssam/rowbase/typecode"

// FieldBuilder is the fluent constructor for a FieldDescriptor, in the
// same chaining style as the schema package's field builders, narrowed to
// what the runtime needs: a type code, nullability, index participation,
// and the accessor pair — no GoType/reflect machinery, since every reader
// and writer here is a plain closure supplied by the caller.
type FieldBuilder struct {
	fd *FieldDescriptor
}

func newBuilder(name string, code typecode.Code) *FieldBuilder {
	return &FieldBuilder{fd: &FieldDescriptor{Name: name, TypeCode: code}}
}

// Int8 declares an 8-bit integer field.
func Int8(name string) *FieldBuilder { return newBuilder(name, typecode.Int8) }

// Int16 declares a 16-bit integer field.
func Int16(name string) *FieldBuilder { return newBuilder(name, typecode.Int16) }

// Int32 declares a 32-bit integer field.
func Int32(name string) *FieldBuilder { return newBuilder(name, typecode.Int32) }

// Int64 declares a 64-bit integer field.
func Int64(name string) *FieldBuilder { return newBuilder(name, typecode.Int64) }

// Float32 declares a 32-bit floating point field.
func Float32(name string) *FieldBuilder { return newBuilder(name, typecode.Float32) }

// Float64 declares a 64-bit floating point field.
func Float64(name string) *FieldBuilder { return newBuilder(name, typecode.Float64) }

// Bool declares a boolean field.
func Bool(name string) *FieldBuilder { return newBuilder(name, typecode.Bool) }

// Char declares a single-rune field.
func Char(name string) *FieldBuilder { return newBuilder(name, typecode.Char) }

// String declares a UTF-8 string field.
func String(name string) *FieldBuilder { return newBuilder(name, typecode.String) }

// Instant declares an epoch-millis timestamp field.
func Instant(name string) *FieldBuilder { return newBuilder(name, typecode.Instant) }

// Date declares an epoch-day date field.
func Date(name string) *FieldBuilder { return newBuilder(name, typecode.Date) }

// DateTime declares a local epoch-millis date-time field.
func DateTime(name string) *FieldBuilder { return newBuilder(name, typecode.DateTime) }

// UUID declares a UUID field (stored as two int64 columns).
func UUID(name string) *FieldBuilder { return newBuilder(name, typecode.UUID) }

// Decimal declares a canonical-string big-decimal/big-integer field.
func Decimal(name string) *FieldBuilder { return newBuilder(name, typecode.Decimal) }

// ID marks this field as the entity's primary key.
func (b *FieldBuilder) ID() *FieldBuilder {
	b.fd.IsID = true
	return b
}

// Generated marks this field's value as assigned by the table's ID
// strategy rather than supplied by the caller.
func (b *FieldBuilder) Generated() *FieldBuilder {
	b.fd.IsGenerated = true
	return b
}

// Optional marks this field as nullable.
func (b *FieldBuilder) Optional() *FieldBuilder {
	b.fd.Nullable = true
	return b
}

// Transient marks this field as excluded from storage (present on the
// entity value but never written to a column).
func (b *FieldBuilder) Transient() *FieldBuilder {
	b.fd.IsTransient = true
	return b
}

// HashIndexed marks this field as backed by a HashIndex.
func (b *FieldBuilder) HashIndexed() *FieldBuilder {
	b.fd.IndexKind = IndexHash
	return b
}

// RangeIndexed marks this field as backed by a RangeIndex.
func (b *FieldBuilder) RangeIndexed() *FieldBuilder {
	b.fd.IndexKind = IndexRange
	return b
}

// PrefixIndexed marks this field as backed by a PrefixIndex. When
// caseFold is true, matching ignores case.
func (b *FieldBuilder) PrefixIndexed(caseFold bool) *FieldBuilder {
	b.fd.IndexKind = IndexPrefix
	b.fd.CaseFold = caseFold
	return b
}

// SuffixIndexed marks this field as backed by a SuffixIndex.
func (b *FieldBuilder) SuffixIndexed(caseFold bool) *FieldBuilder {
	b.fd.IndexKind = IndexSuffix
	b.fd.CaseFold = caseFold
	return b
}

// Relationship marks this field as a single-level foreign key into target.
func (b *FieldBuilder) Relationship(target *Descriptor) *FieldBuilder {
	b.fd.Relationship = &RelationshipDescriptor{TargetEntity: target, ForeignKeyField: b.fd.Name}
	return b
}

// Converter tags this field with a named value converter, resolved by the
// caller's own converter registry at materialize/extract time.
func (b *FieldBuilder) Converter(id string) *FieldBuilder {
	b.fd.ConverterID = id
	return b
}

// Accessors binds this field's materializer writer and extractor reader.
// writer(entity, value) must set the corresponding field on entity;
// reader(entity) must return its current value.
func (b *FieldBuilder) Accessors(writer func(target any, value any), reader func(target any) any) *FieldBuilder {
	b.fd.Writer = writer
	b.fd.Reader = reader
	return b
}

// Descriptor returns the built FieldDescriptor.
func (b *FieldBuilder) Descriptor() *FieldDescriptor { return b.fd }
