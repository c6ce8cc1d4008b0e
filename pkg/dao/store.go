package dao

import "github.com/morandi/jstore/pkg/query"

// Store is the capability a concrete backend exposes to the record-access
// core. Implementations live outside this package (see pkg/jsonstore).
type Store interface {
	Name() string
	IDAttribute() string

	// CreateRecord materializes a typed Record from a raw row.
	CreateRecord(row Row) (*Record, error)

	// Reference returns the reference declared for an attribute, or nil.
	Reference(attr string) Reference
	References() map[string]Reference

	// Select returns a lazy iterator over the rows matching the query.
	Select(q *query.Query) (*ResultIterator, error)

	// Find returns the first matching record, or nil when nothing matches.
	// A miss is a normal value here, not an error.
	Find(q *query.Query) (*Record, error)

	// Get fetches a single record by id. Zero rows is a NotFoundError.
	Get(id interface{}) (*Record, error)

	// ExportedValues serializes a *Record or a raw Row into its persisted
	// form, honoring the store's references and attribute types.
	ExportedValues(value interface{}, ignoreNull, ignoreID bool) (Row, error)

	// ExportID coerces a bare id into its persisted form.
	ExportID(value interface{}) (interface{}, error)

	// Factory is the single authority for constructing foreign stores.
	Factory() Factory
}

// Factory constructs stores by registered name. References resolve lazy
// foreign-store handles through it; they never construct stores themselves.
type Factory interface {
	Store(name string) (Store, error)
}
