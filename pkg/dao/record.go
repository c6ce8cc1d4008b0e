package dao

import "sort"

// Record is a typed, identity-bearing materialization of a Row. It is
// owned by whichever iterator or direct fetch created it and is not safe
// for concurrent use.
type Record struct {
	store    Store
	attrs    map[string]interface{}
	dirty    map[string]struct{}
	resolved map[string]struct{}
}

// NewRecord creates a record over already-imported attribute values.
func NewRecord(store Store, row Row) *Record {
	attrs := make(map[string]interface{}, len(row))
	for k, v := range row {
		attrs[k] = v
	}
	return &Record{
		store:    store,
		attrs:    attrs,
		dirty:    map[string]struct{}{},
		resolved: map[string]struct{}{},
	}
}

// Dao returns the store that produced this record.
func (r *Record) Dao() Store { return r.store }

// ID returns the value of the store's id attribute.
func (r *Record) ID() interface{} { return r.attrs[r.store.IDAttribute()] }

// Get returns an attribute value. Reading a reference attribute for the
// first time triggers resolution; the resolved value is cached on the
// record so repeated reads never re-resolve.
func (r *Record) Get(attr string) (interface{}, error) {
	if ref := r.store.Reference(attr); ref != nil {
		if _, done := r.resolved[attr]; !done {
			return ref.Resolve(r, attr)
		}
	}
	return r.attrs[attr], nil
}

// GetRaw returns an attribute value without triggering resolution.
func (r *Record) GetRaw(attr string) interface{} { return r.attrs[attr] }

// Has reports whether the attribute is present.
func (r *Record) Has(attr string) bool {
	_, ok := r.attrs[attr]
	return ok
}

// Set writes an attribute and marks it dirty.
func (r *Record) Set(attr string, value interface{}) {
	r.attrs[attr] = value
	r.dirty[attr] = struct{}{}
}

// SetDirectly writes an attribute slot without dirty tracking. Reference
// resolution uses it to cache resolved values; the attribute is considered
// resolved afterwards.
func (r *Record) SetDirectly(attr string, value interface{}) {
	r.attrs[attr] = value
	r.resolved[attr] = struct{}{}
}

// IsDirty reports whether any attribute was modified through Set.
func (r *Record) IsDirty() bool { return len(r.dirty) > 0 }

// DirtyAttributes returns the modified attribute names, sorted.
func (r *Record) DirtyAttributes() []string {
	attrs := make([]string, 0, len(r.dirty))
	for attr := range r.dirty {
		attrs = append(attrs, attr)
	}
	sort.Strings(attrs)
	return attrs
}

// ClearDirty resets dirty tracking, typically after a successful save.
func (r *Record) ClearDirty() { r.dirty = map[string]struct{}{} }

// Attributes returns all attribute names, sorted.
func (r *Record) Attributes() []string {
	attrs := make([]string, 0, len(r.attrs))
	for attr := range r.attrs {
		attrs = append(attrs, attr)
	}
	sort.Strings(attrs)
	return attrs
}

// GetArray returns a plain-data projection of the record. When
// resolveReferences is true every reference attribute is forced to resolve
// first; resolved records and iterators are projected recursively.
func (r *Record) GetArray(resolveReferences bool) (map[string]interface{}, error) {
	return r.getArray(resolveReferences, true)
}

// getArray does the projection. expandDeclared controls whether declared
// references without a backing attribute (back-references joined on another
// key) are resolved too; only the top-level record expands them, so a
// bidirectional reference pair cannot recurse forever.
func (r *Record) getArray(resolveReferences, expandDeclared bool) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(r.attrs))
	for attr, raw := range r.attrs {
		value := raw
		if resolveReferences && r.store.Reference(attr) != nil {
			resolved, err := r.Get(attr)
			if err != nil {
				return nil, err
			}
			value = resolved
		}
		plain, err := plainValue(value, resolveReferences)
		if err != nil {
			return nil, err
		}
		out[attr] = plain
	}
	if !resolveReferences || !expandDeclared {
		return out, nil
	}

	for attr := range r.store.References() {
		if r.Has(attr) {
			continue
		}
		resolved, err := r.Get(attr)
		if err != nil {
			return nil, err
		}
		plain, err := plainValue(resolved, resolveReferences)
		if err != nil {
			return nil, err
		}
		out[attr] = plain
	}
	return out, nil
}

// plainValue projects resolved reference values (records, iterators) into
// plain data. Scalars pass through untouched. Iterators are projected over
// the whole page without touching their cursor, so a cached resolved
// iterator stays readable afterwards.
func plainValue(value interface{}, resolveReferences bool) (interface{}, error) {
	switch v := value.(type) {
	case *Record:
		return v.getArray(resolveReferences, false)
	case *ResultIterator:
		recs, err := v.Records()
		if err != nil {
			return nil, err
		}
		rows := make([]map[string]interface{}, 0, len(recs))
		for _, rec := range recs {
			data, err := rec.getArray(resolveReferences, false)
			if err != nil {
				return nil, err
			}
			rows = append(rows, data)
		}
		return rows, nil
	default:
		return value, nil
	}
}
