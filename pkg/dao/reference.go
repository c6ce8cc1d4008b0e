package dao

import (
	"fmt"

	"github.com/morandi/jstore/pkg/query"
)

// Reference is a declarative, reusable description of how one store's
// attribute relates to another store's records. A reference is built once
// when the store declares its schema and shared read-only by every record
// the store produces; resolved values are cached on the record, never here.
type Reference interface {
	// Resolve looks up the related value for an attribute of the owning
	// record and caches it into the record's attribute slot. To-one yields
	// *Record or nil; to-many yields *ResultIterator.
	Resolve(rec *Record, attr string) (interface{}, error)

	// ExportValue is the persistence-time inverse of resolution.
	ExportValue(value interface{}, ignoreNull, ignoreID bool) (interface{}, error)

	// ImportValue coerces a value on read. Identity unless a variant
	// overrides it.
	ImportValue(value interface{}) interface{}

	// Export reports whether this reference participates in persistence.
	Export() bool

	// ExportData reports whether export serializes the full foreign
	// payload instead of just the id.
	ExportData() bool
}

// RefConfig declares a reference. Exactly one of ForeignStore and
// ForeignName must be set; a name is resolved lazily through the source
// store's factory.
type RefConfig struct {
	ForeignStore Store
	ForeignName  string
	LocalKey     string // empty means the reference attribute is the join key
	ForeignKey   string // defaults to "id"
	Export       bool
	ExportData   bool
	Filter       map[string]interface{}
	Source       Store
}

// reference is the shared base of both variants.
type reference struct {
	cfg RefConfig
}

func newReference(cfg RefConfig) reference {
	if cfg.ForeignKey == "" {
		cfg.ForeignKey = "id"
	}
	return reference{cfg: cfg}
}

func (r *reference) Export() bool     { return r.cfg.Export }
func (r *reference) ExportData() bool { return r.cfg.ExportData }

func (r *reference) ImportValue(value interface{}) interface{} { return value }

// foreign resolves the foreign store handle. Construction is delegated to
// the source store's factory; the factory caches instances, so this stays
// cheap and the reference itself stays immutable.
func (r *reference) foreign() (Store, error) {
	if r.cfg.ForeignStore != nil {
		return r.cfg.ForeignStore, nil
	}
	if r.cfg.Source == nil || r.cfg.Source.Factory() == nil {
		return nil, fmt.Errorf("reference to %q has no store factory", r.cfg.ForeignName)
	}
	return r.cfg.Source.Factory().Store(r.cfg.ForeignName)
}

func (r *reference) joinValue(rec *Record, attr string) interface{} {
	if r.cfg.LocalKey != "" {
		return rec.GetRaw(r.cfg.LocalKey)
	}
	return rec.GetRaw(attr)
}

// foreignQuery builds the lookup query: the caller's query wins over the
// reference's filter map on key collision, and the join constraint wins
// over both.
func (r *reference) foreignQuery(app *query.Query, join interface{}) *query.Query {
	q := query.New()
	if app != nil {
		q = app.Clone()
	}
	q.DefaultFilter(r.cfg.Filter)
	q.Eq(r.cfg.ForeignKey, join)
	return q
}

func (r *reference) exportOne(value interface{}, ignoreNull, ignoreID bool) (interface{}, error) {
	if value == nil {
		return nil, nil
	}

	if r.cfg.ExportData {
		foreign, err := r.foreign()
		if err != nil {
			return nil, err
		}
		switch v := value.(type) {
		case *Record:
			return foreign.ExportedValues(v, ignoreNull, ignoreID)
		case Row:
			return foreign.ExportedValues(v, ignoreNull, ignoreID)
		case map[string]interface{}:
			return foreign.ExportedValues(Row(v), ignoreNull, ignoreID)
		default:
			return foreign.ExportID(value)
		}
	}

	// Id-only export of a record goes through the record's OWN store, not
	// the foreign one; polymorphic and self-referential stores depend on
	// this asymmetry.
	if rec, ok := value.(*Record); ok {
		return rec.Dao().ExportID(rec.ID())
	}
	foreign, err := r.foreign()
	if err != nil {
		return nil, err
	}
	return foreign.ExportID(value)
}

// ToOne links an attribute to a single foreign record.
type ToOne struct {
	reference
}

func NewToOne(cfg RefConfig) *ToOne {
	return &ToOne{reference: newReference(cfg)}
}

// Resolve fetches the foreign record joined on the local key (or the
// attribute's own value). A miss is a nil value cached on the record, not
// an error: "not found" is a normal terminal state for an optional
// relationship.
func (r *ToOne) Resolve(rec *Record, attr string) (interface{}, error) {
	join := r.joinValue(rec, attr)
	if join == nil {
		rec.SetDirectly(attr, nil)
		return nil, nil
	}
	if found, ok := join.(*Record); ok {
		rec.SetDirectly(attr, found)
		return found, nil
	}

	foreign, err := r.foreign()
	if err != nil {
		return nil, err
	}
	found, err := foreign.Find(r.foreignQuery(nil, join))
	if err != nil {
		return nil, err
	}
	rec.SetDirectly(attr, found)
	if found == nil {
		return nil, nil
	}
	return found, nil
}

func (r *ToOne) ExportValue(value interface{}, ignoreNull, ignoreID bool) (interface{}, error) {
	return r.exportOne(value, ignoreNull, ignoreID)
}

// ToMany links an attribute to a collection of foreign records.
type ToMany struct {
	reference
}

func NewToMany(cfg RefConfig) *ToMany {
	return &ToMany{reference: newReference(cfg)}
}

// Resolve returns a lazy iterator over the foreign records joined on the
// local key and caches it on the record.
func (r *ToMany) Resolve(rec *Record, attr string) (interface{}, error) {
	return r.ResolveWith(rec, attr, nil)
}

// ResolveWith is Resolve with an extra application-level query merged in.
// The application query's constraints win over the reference's filter map.
func (r *ToMany) ResolveWith(rec *Record, attr string, app *query.Query) (interface{}, error) {
	join := r.joinValue(rec, attr)
	if join == nil {
		rec.SetDirectly(attr, nil)
		return nil, nil
	}

	foreign, err := r.foreign()
	if err != nil {
		return nil, err
	}
	it, err := foreign.Select(r.foreignQuery(app, join))
	if err != nil {
		return nil, err
	}
	rec.SetDirectly(attr, it)
	return it, nil
}

func (r *ToMany) ExportValue(value interface{}, ignoreNull, ignoreID bool) (interface{}, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case *ResultIterator:
		// Export over the whole page without moving the cursor: the
		// iterator is usually the resolved value cached on a record, and
		// persisting the record must not exhaust it.
		recs, err := v.Records()
		if err != nil {
			return nil, err
		}
		out := make([]interface{}, 0, len(recs))
		for _, rec := range recs {
			exported, err := r.exportOne(rec, ignoreNull, ignoreID)
			if err != nil {
				return nil, err
			}
			out = append(out, exported)
		}
		return out, nil
	case []*Record:
		out := make([]interface{}, 0, len(v))
		for _, rec := range v {
			exported, err := r.exportOne(rec, ignoreNull, ignoreID)
			if err != nil {
				return nil, err
			}
			out = append(out, exported)
		}
		return out, nil
	case []interface{}:
		out := make([]interface{}, 0, len(v))
		for _, item := range v {
			exported, err := r.exportOne(item, ignoreNull, ignoreID)
			if err != nil {
				return nil, err
			}
			out = append(out, exported)
		}
		return out, nil
	default:
		return r.exportOne(value, ignoreNull, ignoreID)
	}
}
