package dao

import (
	"fmt"

	"github.com/morandi/jstore/pkg/query"
)

// Test fixtures: an in-memory store and a row source that counts accesses.

type countingSource struct {
	rows     []Row
	total    int
	hasTotal bool
	calls    int
}

func (s *countingSource) RowAt(pos int) (Row, error) {
	s.calls++
	if pos < 0 || pos >= len(s.rows) {
		return nil, fmt.Errorf("row position %d out of range", pos)
	}
	return s.rows[pos], nil
}

func (s *countingSource) Count() int { return len(s.rows) }

func (s *countingSource) TotalCount() (int, bool) { return s.total, s.hasTotal }

type memFactory struct {
	stores map[string]Store
}

func (f *memFactory) Store(name string) (Store, error) {
	s, ok := f.stores[name]
	if !ok {
		return nil, fmt.Errorf("store %q not registered", name)
	}
	return s, nil
}

func (f *memFactory) add(s *memStore) {
	f.stores[s.name] = s
	s.factory = f
}

// memStore is a minimal Store over a fixed row slice. idPrefix makes
// ExportID output distinguishable per store, which the reference export
// tests rely on.
type memStore struct {
	name      string
	idAttr    string
	idPrefix  string
	rows      []Row
	refs      map[string]Reference
	factory   Factory
	source    *countingSource
	lastQuery *query.Query
}

func newMemStore(name string, rows []Row) *memStore {
	return &memStore{
		name:   name,
		idAttr: "id",
		rows:   rows,
		refs:   map[string]Reference{},
	}
}

func (s *memStore) Name() string          { return s.name }
func (s *memStore) IDAttribute() string   { return s.idAttr }
func (s *memStore) Factory() Factory      { return s.factory }
func (s *memStore) Reference(attr string) Reference {
	return s.refs[attr]
}
func (s *memStore) References() map[string]Reference { return s.refs }

func (s *memStore) CreateRecord(row Row) (*Record, error) {
	return NewRecord(s, row), nil
}

func (s *memStore) Select(q *query.Query) (*ResultIterator, error) {
	s.lastQuery = q
	var matched []Row
	for _, row := range s.rows {
		if q == nil || q.Match(row) {
			matched = append(matched, row)
		}
	}
	s.source = &countingSource{rows: matched}
	return NewResultIterator(s, s.source), nil
}

func (s *memStore) Find(q *query.Query) (*Record, error) {
	it, err := s.Select(q)
	if err != nil {
		return nil, err
	}
	return it.CurrentRecord()
}

func (s *memStore) Get(id interface{}) (*Record, error) {
	rec, err := s.Find(query.New().Eq(s.idAttr, id))
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, &NotFoundError{Store: s.name, Key: id}
	}
	return rec, nil
}

func (s *memStore) ExportedValues(value interface{}, ignoreNull, ignoreID bool) (Row, error) {
	var rec *Record
	switch v := value.(type) {
	case *Record:
		rec = v
	case Row:
		rec = NewRecord(s, v)
	case map[string]interface{}:
		rec = NewRecord(s, v)
	default:
		return nil, fmt.Errorf("cannot export %T", value)
	}
	out := Row{}
	for _, attr := range rec.Attributes() {
		if ignoreID && attr == s.idAttr {
			continue
		}
		raw := rec.GetRaw(attr)
		if ref := s.refs[attr]; ref != nil {
			if !ref.Export() {
				continue
			}
			exported, err := ref.ExportValue(raw, ignoreNull, ignoreID)
			if err != nil {
				return nil, err
			}
			out[attr] = exported
			continue
		}
		if raw == nil && ignoreNull {
			continue
		}
		out[attr] = raw
	}
	return out, nil
}

func (s *memStore) ExportID(value interface{}) (interface{}, error) {
	if s.idPrefix != "" {
		return fmt.Sprintf("%s%v", s.idPrefix, value), nil
	}
	return value, nil
}
