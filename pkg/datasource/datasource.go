// Package datasource supplies raw rows to the record-access layer: an
// in-memory slice source and a streaming JSON/JSONL decoder for
// file-backed stores.
package datasource

import (
	"fmt"

	"github.com/morandi/jstore/pkg/dao"
)

// SliceSource is a dao.DataSource over an in-memory page of rows,
// optionally carrying the true total of the unpaged query.
type SliceSource struct {
	rows     []dao.Row
	total    int
	hasTotal bool
}

// NewSliceSource wraps rows without an explicit total.
func NewSliceSource(rows []dao.Row) *SliceSource {
	return &SliceSource{rows: rows}
}

// NewPagedSource wraps one page of rows plus the total row count of the
// unpaged query.
func NewPagedSource(rows []dao.Row, total int) *SliceSource {
	return &SliceSource{rows: rows, total: total, hasTotal: true}
}

func (s *SliceSource) RowAt(pos int) (dao.Row, error) {
	if pos < 0 || pos >= len(s.rows) {
		return nil, fmt.Errorf("row position %d out of range [0,%d)", pos, len(s.rows))
	}
	return s.rows[pos], nil
}

func (s *SliceSource) Count() int { return len(s.rows) }

func (s *SliceSource) TotalCount() (int, bool) { return s.total, s.hasTotal }
