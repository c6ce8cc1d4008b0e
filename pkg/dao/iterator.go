package dao

// ResultIterator lazily materializes query results. Each position is turned
// into a Record on first access and cached for the lifetime of the
// iteration, so a position is materialized at most once unless caching is
// disabled.
//
// Cursor and cache are private single-owner state: do not share one
// iterator across concurrent consumers.
type ResultIterator struct {
	store   Store
	source  DataSource
	pos     int
	cache   map[int]*Record
	asArray bool
	caching bool
}

// NewResultIterator wraps a data source's raw rows for a store. Caching is
// enabled by default.
func NewResultIterator(store Store, source DataSource) *ResultIterator {
	return &ResultIterator{
		store:   store,
		source:  source,
		cache:   map[int]*Record{},
		caching: true,
	}
}

// Valid reports whether the cursor still references an in-range row.
func (it *ResultIterator) Valid() bool {
	return it.pos < it.source.Count()
}

// Key returns the current zero-based position.
func (it *ResultIterator) Key() int { return it.pos }

// Next advances the cursor. The position only ever increases.
func (it *ResultIterator) Next() { it.pos++ }

// Count returns the number of rows in this page, not the total.
func (it *ResultIterator) Count() int { return it.source.Count() }

// CountTotal returns the total row count across the unpaged query when the
// source knows it, falling back to Count otherwise.
func (it *ResultIterator) CountTotal() int {
	if total, ok := it.source.TotalCount(); ok {
		return total
	}
	return it.source.Count()
}

// AsArrays toggles whether Current yields plain data instead of records.
// It mutates the iterator and returns it for chaining; previously cached
// records are projected at read time.
func (it *ResultIterator) AsArrays(enabled bool) *ResultIterator {
	it.asArray = enabled
	return it
}

// SetCaching toggles the per-position record cache. Disabling drops
// anything already cached, so every subsequent access re-materializes.
func (it *ResultIterator) SetCaching(enabled bool) *ResultIterator {
	it.caching = enabled
	if !enabled {
		it.cache = map[int]*Record{}
	}
	return it
}

// Current returns the record at the current position, or its plain-data
// projection when AsArrays is enabled. Past the end it returns nil, nil.
func (it *ResultIterator) Current() (interface{}, error) {
	if !it.Valid() {
		return nil, nil
	}
	rec, err := it.record(it.pos)
	if err != nil {
		return nil, err
	}
	if it.asArray {
		return rec.GetArray(false)
	}
	return rec, nil
}

// CurrentRecord is Current without the AsArrays projection.
func (it *ResultIterator) CurrentRecord() (*Record, error) {
	if !it.Valid() {
		return nil, nil
	}
	return it.record(it.pos)
}

// Records materializes every row of the page without moving the cursor.
// Cached positions are reused; persistence and projection read through
// this so a resolved iterator cached on a record survives them.
func (it *ResultIterator) Records() ([]*Record, error) {
	out := make([]*Record, 0, it.source.Count())
	for pos := 0; pos < it.source.Count(); pos++ {
		rec, err := it.record(pos)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// ToPlainDataList eagerly drains the iterator from its current position,
// returning plain-data projections of every remaining record. When
// resolveReferences is true each record's references are forced to resolve
// before projection.
func (it *ResultIterator) ToPlainDataList(resolveReferences bool) ([]map[string]interface{}, error) {
	var out []map[string]interface{}
	for ; it.Valid(); it.Next() {
		rec, err := it.record(it.pos)
		if err != nil {
			return nil, err
		}
		data, err := rec.GetArray(resolveReferences)
		if err != nil {
			return nil, err
		}
		out = append(out, data)
	}
	return out, nil
}

func (it *ResultIterator) record(pos int) (*Record, error) {
	if it.caching {
		if rec, ok := it.cache[pos]; ok {
			return rec, nil
		}
	}
	row, err := it.source.RowAt(pos)
	if err != nil {
		return nil, err
	}
	rec, err := it.store.CreateRecord(row)
	if err != nil {
		return nil, err
	}
	if it.caching {
		it.cache[pos] = rec
	}
	return rec, nil
}
