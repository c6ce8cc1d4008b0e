// Package jsonstore implements a record store backed by a JSON or JSONL
// file. Rows are decoded through pkg/datasource, filtered in memory and
// served through the lazy iterator in pkg/dao.
package jsonstore

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/morandi/jstore/pkg/dao"
	"github.com/morandi/jstore/pkg/datasource"
	"github.com/morandi/jstore/pkg/logging"
	"github.com/morandi/jstore/pkg/query"
)

// Config declares a file-backed store.
type Config struct {
	Name        string
	Path        string
	IDAttribute string // defaults to "id"
	Attributes  map[string]dao.AttrType
}

// Store is a dao.Store over a JSON/JSONL file.
type Store struct {
	name    string
	path    string
	idAttr  string
	attrs   map[string]dao.AttrType
	refs    map[string]dao.Reference
	factory dao.Factory
	log     logging.Logger
}

// New builds a store. The factory is the authority used to construct
// foreign stores for this store's references.
func New(cfg Config, factory dao.Factory, log logging.Logger) *Store {
	idAttr := cfg.IDAttribute
	if idAttr == "" {
		idAttr = "id"
	}
	if log == nil {
		log = logging.Nop{}
	}
	attrs := make(map[string]dao.AttrType, len(cfg.Attributes))
	for k, v := range cfg.Attributes {
		attrs[k] = v
	}
	return &Store{
		name:    cfg.Name,
		path:    cfg.Path,
		idAttr:  idAttr,
		attrs:   attrs,
		refs:    map[string]dao.Reference{},
		factory: factory,
		log:     log,
	}
}

// SetReference declares a reference for an attribute. Called at setup time
// only; references are shared read-only by every record afterwards.
func (s *Store) SetReference(attr string, ref dao.Reference) {
	s.refs[attr] = ref
}

func (s *Store) Name() string        { return s.name }
func (s *Store) IDAttribute() string { return s.idAttr }
func (s *Store) Factory() dao.Factory {
	return s.factory
}

func (s *Store) Reference(attr string) dao.Reference {
	return s.refs[attr]
}

func (s *Store) References() map[string]dao.Reference {
	refs := make(map[string]dao.Reference, len(s.refs))
	for k, v := range s.refs {
		refs[k] = v
	}
	return refs
}

// CreateRecord imports a raw row through the declared attribute types.
// Reference attributes go through their reference's import hook instead. A
// coercion failure degrades to its fallback value with a warning; enum and
// unsupported-type failures propagate.
func (s *Store) CreateRecord(row dao.Row) (*dao.Record, error) {
	imported := make(dao.Row, len(row))
	for attr, raw := range row {
		if ref := s.refs[attr]; ref != nil {
			imported[attr] = ref.ImportValue(raw)
			continue
		}
		t, ok := s.attrs[attr]
		if !ok {
			imported[attr] = raw
			continue
		}
		value, err := t.Import(attr, raw)
		if err != nil {
			var cerr *dao.CoercionError
			if !errors.As(err, &cerr) {
				return nil, err
			}
			s.log.Warning("attribute coercion failed, using fallback", map[string]interface{}{
				"store":     s.name,
				"attribute": attr,
				"value":     raw,
				"fallback":  cerr.Fallback,
			})
			value = cerr.Fallback
		}
		imported[attr] = value
	}
	return dao.NewRecord(s, imported), nil
}

func (s *Store) rows() ([]dao.Row, error) {
	return datasource.DecodeFile(s.path)
}

// Select filters the backing file and returns a lazy iterator over one
// page of matches. The iterator's total count is the unpaged match count.
func (s *Store) Select(q *query.Query) (*dao.ResultIterator, error) {
	all, err := s.rows()
	if err != nil {
		return nil, err
	}

	var matched []dao.Row
	for _, row := range all {
		if q == nil || q.Match(row) {
			matched = append(matched, row)
		}
	}
	total := len(matched)

	page := matched
	if q != nil {
		if q.OffsetN > 0 {
			if q.OffsetN >= len(page) {
				page = nil
			} else {
				page = page[q.OffsetN:]
			}
		}
		if q.LimitN > 0 && q.LimitN < len(page) {
			page = page[:q.LimitN]
		}
	}

	s.log.Debug("select", map[string]interface{}{
		"store": s.name,
		"rows":  len(page),
		"total": total,
	})
	return dao.NewResultIterator(s, datasource.NewPagedSource(page, total)), nil
}

// Find returns the first matching record, or nil when nothing matches.
func (s *Store) Find(q *query.Query) (*dao.Record, error) {
	if q == nil {
		q = query.New()
	}
	it, err := s.Select(q.Clone().Limit(1))
	if err != nil {
		return nil, err
	}
	return it.CurrentRecord()
}

// Get fetches a single record by id; zero rows is a NotFoundError.
func (s *Store) Get(id interface{}) (*dao.Record, error) {
	rec, err := s.Find(query.New().Eq(s.idAttr, id))
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, &dao.NotFoundError{Store: s.name, Key: id}
	}
	return rec, nil
}

// ExportedValues serializes a record (or raw row) into its persisted form.
// Reference attributes go through their reference's export path; attributes
// whose reference opted out of export are skipped entirely.
func (s *Store) ExportedValues(value interface{}, ignoreNull, ignoreID bool) (dao.Row, error) {
	var rec *dao.Record
	switch v := value.(type) {
	case *dao.Record:
		rec = v
	case dao.Row:
		r, err := s.CreateRecord(v)
		if err != nil {
			return nil, err
		}
		rec = r
	case map[string]interface{}:
		r, err := s.CreateRecord(dao.Row(v))
		if err != nil {
			return nil, err
		}
		rec = r
	default:
		return nil, fmt.Errorf("store %q cannot export %T", s.name, value)
	}

	out := dao.Row{}
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
			if exported == nil && ignoreNull {
				continue
			}
			out[attr] = exported
			continue
		}

		if raw == nil {
			if ignoreNull {
				continue
			}
			out[attr] = nil
			continue
		}

		if t, ok := s.attrs[attr]; ok {
			exported, err := t.Export(attr, raw)
			if err != nil {
				var cerr *dao.CoercionError
				if !errors.As(err, &cerr) {
					return nil, err
				}
				s.log.Warning("attribute export failed, using fallback", map[string]interface{}{
					"store":     s.name,
					"attribute": attr,
					"value":     raw,
				})
				exported = cerr.Fallback
			}
			out[attr] = exported
			continue
		}
		out[attr] = raw
	}
	return out, nil
}

// ExportID coerces a bare id through the id attribute's declared type.
func (s *Store) ExportID(value interface{}) (interface{}, error) {
	if t, ok := s.attrs[s.idAttr]; ok {
		return t.Export(s.idAttr, value)
	}
	return value, nil
}

// Insert appends a new row to the backing file, generating an id when the
// row has none, and returns the materialized record.
func (s *Store) Insert(row dao.Row) (*dao.Record, error) {
	if row == nil {
		row = dao.Row{}
	}
	if row[s.idAttr] == nil {
		row[s.idAttr] = uuid.NewString()
	}
	rec, err := s.CreateRecord(row)
	if err != nil {
		return nil, err
	}
	exported, err := s.ExportedValues(rec, false, false)
	if err != nil {
		return nil, err
	}

	all, err := s.rows()
	if err != nil {
		return nil, err
	}
	all = append(all, exported)
	if err := datasource.WriteFile(s.path, all); err != nil {
		return nil, err
	}
	s.log.Info("insert", map[string]interface{}{"store": s.name, "id": row[s.idAttr]})
	return rec, nil
}

// Save writes a record back to the file, replacing the row with the same
// id or appending when absent. Dirty tracking is reset on success.
func (s *Store) Save(rec *dao.Record) error {
	exported, err := s.ExportedValues(rec, false, false)
	if err != nil {
		return err
	}
	id := exported[s.idAttr]
	if id == nil {
		return fmt.Errorf("store %q cannot save a record without an id", s.name)
	}

	all, err := s.rows()
	if err != nil {
		return err
	}
	replaced := false
	for i, row := range all {
		if fmt.Sprintf("%v", row[s.idAttr]) == fmt.Sprintf("%v", id) {
			all[i] = exported
			replaced = true
			break
		}
	}
	if !replaced {
		all = append(all, exported)
	}
	if err := datasource.WriteFile(s.path, all); err != nil {
		return err
	}
	rec.ClearDirty()
	s.log.Info("save", map[string]interface{}{"store": s.name, "id": id, "replaced": replaced})
	return nil
}
