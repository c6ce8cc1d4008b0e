package dao

// Row is raw untransformed data for one result unit, as supplied by a
// storage backend.
type Row map[string]interface{}

// DataSource supplies raw rows for a query. Implementations own the
// physical access; the iterator layer never touches storage directly.
//
// All calls are synchronous; a source may block on I/O. Callers wanting
// bounded-time iteration must wrap the source themselves.
type DataSource interface {
	// RowAt returns the raw row at a zero-based position within this page.
	RowAt(pos int) (Row, error)
	// Count returns the number of rows materializable in this page.
	Count() int
	// TotalCount returns the true row count across an unpaged query.
	// ok is false when no explicit total was supplied.
	TotalCount() (total int, ok bool)
}
