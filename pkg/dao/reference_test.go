package dao

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/morandi/jstore/pkg/query"
)

func newLibrary() (*memFactory, *memStore, *memStore) {
	factory := &memFactory{stores: map[string]Store{}}

	authors := newMemStore("authors", []Row{
		{"id": "a1", "name": "Eco"},
		{"id": "a2", "name": "Calvino"},
	})
	books := newMemStore("books", []Row{
		{"id": "b1", "title": "Il nome della rosa", "author_id": "a1", "author": "a1"},
		{"id": "b2", "title": "Se una notte", "author_id": "a2", "author": "a2"},
		{"id": "b3", "title": "Anonimo", "author_id": nil, "author": nil},
	})
	factory.add(authors)
	factory.add(books)
	return factory, authors, books
}

func TestToOneResolve(t *testing.T) {
	_, _, books := newLibrary()
	ref := NewToOne(RefConfig{
		ForeignName: "authors",
		LocalKey:    "author_id",
		Export:      true,
		Source:      books,
	})
	books.refs["author"] = ref

	it, err := books.Select(query.New().Eq("id", "b1"))
	require.NoError(t, err)
	rec, err := it.CurrentRecord()
	require.NoError(t, err)
	require.NotNil(t, rec)

	resolved, err := rec.Get("author")
	require.NoError(t, err)
	author, ok := resolved.(*Record)
	require.True(t, ok, "expected *Record, got %T", resolved)
	assert.Equal(t, "a1", author.ID())
	name, err := author.Get("name")
	require.NoError(t, err)
	assert.Equal(t, "Eco", name)

	// The resolved value is cached on the record; a second read returns
	// the identical record without another lookup.
	again, err := rec.Get("author")
	require.NoError(t, err)
	assert.Same(t, author, again.(*Record))
}

func TestToOneResolveMiss(t *testing.T) {
	_, _, books := newLibrary()
	books.refs["author"] = NewToOne(RefConfig{
		ForeignName: "authors",
		LocalKey:    "author_id",
		Source:      books,
	})

	rec, err := books.Get("b1")
	require.NoError(t, err)
	rec.Set("author_id", "missing")

	// A miss is a nil value, never an error.
	resolved, err := rec.Get("author")
	require.NoError(t, err)
	assert.Nil(t, resolved)
}

func TestToOneResolveNilJoin(t *testing.T) {
	_, _, books := newLibrary()
	books.refs["author"] = NewToOne(RefConfig{
		ForeignName: "authors",
		LocalKey:    "author_id",
		Source:      books,
	})

	rec, err := books.Get("b3")
	require.NoError(t, err)
	resolved, err := rec.Get("author")
	require.NoError(t, err)
	assert.Nil(t, resolved)
}

func TestToOneJoinOnAttributeValue(t *testing.T) {
	// No local key: the reference attribute's own raw value is the join key.
	_, _, books := newLibrary()
	books.refs["author"] = NewToOne(RefConfig{
		ForeignName: "authors",
		Source:      books,
	})

	rec, err := books.Get("b2")
	require.NoError(t, err)
	resolved, err := rec.Get("author")
	require.NoError(t, err)
	author := resolved.(*Record)
	assert.Equal(t, "a2", author.ID())
}

func TestToManyResolve(t *testing.T) {
	factory := &memFactory{stores: map[string]Store{}}
	authors := newMemStore("authors", []Row{{"id": "a1", "name": "Eco"}})
	books := newMemStore("books", []Row{
		{"id": "b1", "author_id": "a1"},
		{"id": "b2", "author_id": "a1"},
		{"id": "b3", "author_id": "a2"},
	})
	factory.add(authors)
	factory.add(books)

	authors.refs["books"] = NewToMany(RefConfig{
		ForeignName: "books",
		LocalKey:    "id",
		ForeignKey:  "author_id",
		Source:      authors,
	})

	rec, err := authors.Get("a1")
	require.NoError(t, err)
	resolved, err := rec.Get("books")
	require.NoError(t, err)
	it, ok := resolved.(*ResultIterator)
	require.True(t, ok, "expected *ResultIterator, got %T", resolved)
	assert.Equal(t, 2, it.Count())
}

func TestToManyFilterMerge(t *testing.T) {
	factory := &memFactory{stores: map[string]Store{}}
	authors := newMemStore("authors", []Row{{"id": "a1"}})
	books := newMemStore("books", nil)
	factory.add(authors)
	factory.add(books)

	ref := NewToMany(RefConfig{
		ForeignName: "books",
		LocalKey:    "id",
		ForeignKey:  "author_id",
		Filter:      map[string]interface{}{"deleted": false, "status": "draft"},
		Source:      authors,
	})
	authors.refs["books"] = ref

	rec, err := authors.Get("a1")
	require.NoError(t, err)
	app := query.New().Eq("status", "active")
	_, err = ref.ResolveWith(rec, "books", app)
	require.NoError(t, err)

	got := books.lastQuery.Filter
	// The reference filter is merged in, the application filter wins on
	// collision, and the join constraint is always present.
	assert.Equal(t, false, got["deleted"])
	assert.Equal(t, "active", got["status"])
	assert.Equal(t, "a1", got["author_id"])
}

func TestExportValueIDOnly(t *testing.T) {
	factory := &memFactory{stores: map[string]Store{}}
	own := newMemStore("own", []Row{{"id": 42}})
	own.idPrefix = "S:"
	foreign := newMemStore("foreign", nil)
	foreign.idPrefix = "F:"
	factory.add(own)
	factory.add(foreign)

	ref := NewToOne(RefConfig{
		ForeignName: "foreign",
		Export:      true,
		Source:      own,
	})

	rec, err := own.Get(42)
	require.NoError(t, err)

	// A record exports its id through its OWN store's id exporter.
	exported, err := ref.ExportValue(rec, false, false)
	require.NoError(t, err)
	assert.Equal(t, "S:42", exported)

	// A bare value goes through the foreign store's id exporter.
	exported, err = ref.ExportValue(7, false, false)
	require.NoError(t, err)
	assert.Equal(t, "F:7", exported)
}

func TestExportValueFullData(t *testing.T) {
	_, _, books := newLibrary()
	ref := NewToOne(RefConfig{
		ForeignName: "authors",
		LocalKey:    "author_id",
		Export:      true,
		ExportData:  true,
		Source:      books,
	})
	books.refs["author"] = ref

	rec, err := books.Get("b1")
	require.NoError(t, err)
	resolved, err := rec.Get("author")
	require.NoError(t, err)

	exported, err := ref.ExportValue(resolved, false, false)
	require.NoError(t, err)
	payload, ok := exported.(Row)
	require.True(t, ok, "expected full payload, got %T", exported)
	assert.Equal(t, "Eco", payload["name"])
	assert.Equal(t, "a1", payload["id"])
}

func TestExportValueNonExportingReferenceSkipped(t *testing.T) {
	_, _, books := newLibrary()
	books.refs["author"] = NewToOne(RefConfig{
		ForeignName: "authors",
		LocalKey:    "author_id",
		Export:      false,
		Source:      books,
	})

	rec, err := books.Get("b1")
	require.NoError(t, err)
	exported, err := books.ExportedValues(rec, false, false)
	require.NoError(t, err)
	_, present := exported["author"]
	assert.False(t, present)
}

func TestReferenceRoundTrip(t *testing.T) {
	_, _, books := newLibrary()
	ref := NewToOne(RefConfig{
		ForeignName: "authors",
		LocalKey:    "author_id",
		Export:      true,
		Source:      books,
	})
	books.refs["author"] = ref

	rec, err := books.Get("b1")
	require.NoError(t, err)
	resolved, err := rec.Get("author")
	require.NoError(t, err)
	original := resolved.(*Record)

	exported, err := ref.ExportValue(resolved, false, false)
	require.NoError(t, err)

	// Import is identity; re-resolving from the exported id yields a
	// record with the same identity.
	fresh, err := books.Get("b1")
	require.NoError(t, err)
	fresh.Set("author_id", ref.ImportValue(exported))
	reresolved, err := fresh.Get("author")
	require.NoError(t, err)
	assert.Equal(t, original.ID(), reresolved.(*Record).ID())
}

func TestToManyExportValue(t *testing.T) {
	factory := &memFactory{stores: map[string]Store{}}
	authors := newMemStore("authors", []Row{{"id": "a1"}})
	books := newMemStore("books", []Row{
		{"id": "b1", "author_id": "a1"},
		{"id": "b2", "author_id": "a1"},
	})
	books.idPrefix = "B:"
	factory.add(authors)
	factory.add(books)

	ref := NewToMany(RefConfig{
		ForeignName: "books",
		LocalKey:    "id",
		ForeignKey:  "author_id",
		Export:      true,
		Source:      authors,
	})
	authors.refs["books"] = ref

	rec, err := authors.Get("a1")
	require.NoError(t, err)
	resolved, err := rec.Get("books")
	require.NoError(t, err)

	exported, err := ref.ExportValue(resolved, false, false)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"B:b1", "B:b2"}, exported)
}

func TestToManyExportKeepsCachedIterator(t *testing.T) {
	factory := &memFactory{stores: map[string]Store{}}
	authors := newMemStore("authors", []Row{{"id": "a1"}})
	books := newMemStore("books", []Row{
		{"id": "b1", "author_id": "a1"},
		{"id": "b2", "author_id": "a1"},
	})
	factory.add(authors)
	factory.add(books)

	ref := NewToMany(RefConfig{
		ForeignName: "books",
		LocalKey:    "id",
		ForeignKey:  "author_id",
		Export:      true,
		Source:      authors,
	})
	authors.refs["books"] = ref

	rec, err := authors.Get("a1")
	require.NoError(t, err)
	resolved, err := rec.Get("books")
	require.NoError(t, err)

	exported, err := ref.ExportValue(resolved, false, false)
	require.NoError(t, err)
	require.Len(t, exported.([]interface{}), 2)

	// Exporting reads the whole page without consuming the iterator the
	// record cached; a later read still sees every row.
	again, err := rec.Get("books")
	require.NoError(t, err)
	it := again.(*ResultIterator)
	assert.Same(t, resolved.(*ResultIterator), it)
	rows, err := it.ToPlainDataList(false)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}
