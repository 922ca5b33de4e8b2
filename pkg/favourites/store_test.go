package favourites

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/ritzau/aip-explorer/pkg/api"
)

func sqlQuery(name, sql string) Query {
	data, _ := encode(sql)
	return Query{Type: QuerySQL, QueryName: name, Time: "2022-01-20T10:15:30.123Z", Query: data}
}

func TestAddPrependsAndStoresCompactJSON(t *testing.T) {
	kv := NewMemoryKV()
	store := NewStore(kv)

	if err := store.Add(sqlQuery("first", "SELECT 1")); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := store.Add(sqlQuery("second <b>&</b>", "SELECT * FROM a WHERE x > 1")); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	queries, err := store.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(queries) != 2 || queries[0].QueryName != "second <b>&</b>" {
		t.Fatalf("Expected newest first, got %v", queries)
	}

	raw, ok, _ := kv.Get(Key)
	if !ok {
		t.Fatal("Expected favourites under the favourite_queries key")
	}
	want := `[{"type":"sql","queryName":"second <b>&</b>","time":"2022-01-20T10:15:30.123Z","query":"SELECT * FROM a WHERE x > 1"},` +
		`{"type":"sql","queryName":"first","time":"2022-01-20T10:15:30.123Z","query":"SELECT 1"}]`
	if string(raw) != want {
		t.Errorf("Stored bytes:\n%s\nwant:\n%s", raw, want)
	}
}

func TestAddStampsTime(t *testing.T) {
	store := NewStore(NewMemoryKV())
	if err := store.Add(Query{Type: QuerySQL, QueryName: "q", Query: json.RawMessage(`"SELECT 1"`)}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	q, err := store.Get(0)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if _, err := time.Parse(time.RFC3339, q.Time); err != nil {
		t.Errorf("Expected an ISO timestamp, got %q", q.Time)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	source := NewStore(NewMemoryKV())
	filter := api.DefaultFilter()
	filter.Venue = "VIS"
	fq, err := NewFiltersQuery("vis papers", filter, time.Date(2022, 1, 20, 10, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("NewFiltersQuery failed: %v", err)
	}
	for _, q := range []Query{sqlQuery("a", "SELECT 1"), fq, sqlQuery("c", `SELECT "x"`)} {
		if err := source.Add(q); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}

	var exported bytes.Buffer
	if err := source.Export(&exported); err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if !strings.HasPrefix(exported.String(), `{"queries":[`) {
		t.Errorf("Unexpected export %s", exported.String())
	}

	target := NewStore(NewMemoryKV())
	n, err := target.Import(bytes.NewReader(exported.Bytes()))
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if n != 3 {
		t.Errorf("Expected 3 imported, got %d", n)
	}

	want, _ := source.List()
	got, _ := target.List()
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Round trip mismatch:\n got %v\nwant %v", got, want)
	}

	var again bytes.Buffer
	if err := target.Export(&again); err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if again.String() != exported.String() {
		t.Errorf("Re-export differs:\n%s\n%s", again.String(), exported.String())
	}
}

func TestImportAppendsWithoutDeduplication(t *testing.T) {
	store := NewStore(NewMemoryKV())
	if err := store.Add(sqlQuery("existing", "SELECT 1")); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	file := `{"queries": [
		{"type": "sql", "queryName": "existing", "time": "2022-01-20T10:15:30.123Z", "query": "SELECT 1"},
		{"type": "filters", "queryName": "new", "time": "2022-01-21T09:00:00.000Z", "query": {"venue": "VIS"}}
	]}`
	if _, err := store.Import(strings.NewReader(file)); err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	queries, _ := store.List()
	names := make([]string, len(queries))
	for i, q := range queries {
		names[i] = q.QueryName
	}
	if !reflect.DeepEqual(names, []string{"existing", "existing", "new"}) {
		t.Errorf("Unexpected order %v", names)
	}
}

func TestImportMalformed(t *testing.T) {
	tests := map[string]string{
		"not json":        `queries: []`,
		"missing queries": `{"favourites": []}`,
		"null queries":    `{"queries": null}`,
		"bad entry":       `{"queries": [42]}`,
		"bare array":      `[]`,
	}

	for name, file := range tests {
		t.Run(name, func(t *testing.T) {
			kv := NewMemoryKV()
			store := NewStore(kv)

			_, err := store.Import(strings.NewReader(file))
			if !errors.Is(err, ErrMalformedImport) {
				t.Errorf("Expected ErrMalformedImport, got %v", err)
			}
			if _, ok, _ := kv.Get(Key); ok {
				t.Error("Nothing should be stored after a malformed import")
			}
		})
	}
}

func TestRemove(t *testing.T) {
	store := NewStore(NewMemoryKV())
	for _, name := range []string{"c", "b", "a"} {
		store.Add(sqlQuery(name, "SELECT 1"))
	}

	if err := store.Remove(1); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	queries, _ := store.List()
	if len(queries) != 2 || queries[0].QueryName != "a" || queries[1].QueryName != "c" {
		t.Errorf("Unexpected list after remove %v", queries)
	}

	for _, index := range []int{-1, 2} {
		if err := store.Remove(index); !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("Remove(%d): expected ErrIndexOutOfRange, got %v", index, err)
		}
	}
}

func TestSearchIgnoresCase(t *testing.T) {
	store := NewStore(NewMemoryKV())
	store.Add(sqlQuery("Graph Drawing", "SELECT 1"))
	store.Add(sqlQuery("venues", "SELECT 2"))

	matches, err := store.Search("GRAPH")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(matches) != 1 || matches[0].QueryName != "Graph Drawing" {
		t.Errorf("Unexpected matches %v", matches)
	}

	all, _ := store.Search("")
	if len(all) != 2 {
		t.Errorf("Empty search should match everything, got %v", all)
	}
}

func TestOnChange(t *testing.T) {
	store := NewStore(NewMemoryKV())
	var seen []int
	store.OnChange(func(queries []Query) {
		seen = append(seen, len(queries))
	})

	store.Add(sqlQuery("a", "SELECT 1"))
	store.Add(sqlQuery("b", "SELECT 1"))
	store.Remove(0)
	store.Remove(5)

	if !reflect.DeepEqual(seen, []int{1, 2, 1}) {
		t.Errorf("Unexpected change notifications %v", seen)
	}
}

func TestCorruptStore(t *testing.T) {
	kv := NewMemoryKV()
	kv.Set(Key, []byte(`{"not": "a list"}`))

	if _, err := NewStore(kv).List(); !errors.Is(err, ErrCorruptStore) {
		t.Errorf("Expected ErrCorruptStore, got %v", err)
	}
}

func TestFiltersQuery(t *testing.T) {
	filter := api.DefaultFilter()
	filter.Year = &api.IntRange{2001, 2009}
	filter.AuthorNames = []string{"Jane Doe"}

	q, err := NewFiltersQuery("jane", filter, time.Date(2022, 1, 20, 10, 15, 30, 0, time.UTC))
	if err != nil {
		t.Fatalf("NewFiltersQuery failed: %v", err)
	}
	if string(q.Query) != `{"year":[2001,2009],"author_names":["Jane Doe"]}` {
		t.Errorf("Unexpected saved fields %s", q.Query)
	}
	if q.Time != "2022-01-20T10:15:30.000Z" {
		t.Errorf("Unexpected time %q", q.Time)
	}

	restored, err := q.Filter()
	if err != nil {
		t.Fatalf("Filter failed: %v", err)
	}
	if !reflect.DeepEqual(restored, filter) {
		t.Errorf("Filter() = %+v, want %+v", restored, filter)
	}

	if _, err := q.SQL(); err == nil {
		t.Error("SQL() on a filters query should fail")
	}
}

func TestSQLQuery(t *testing.T) {
	q, err := NewSQLQuery("all", "SELECT * FROM publications", time.Now())
	if err != nil {
		t.Fatalf("NewSQLQuery failed: %v", err)
	}
	sql, err := q.SQL()
	if err != nil || sql != "SELECT * FROM publications" {
		t.Errorf("SQL() = %q, %v", sql, err)
	}
	if _, err := q.Filter(); err == nil {
		t.Error("Filter() on a sql query should fail")
	}
}

func TestExportFileName(t *testing.T) {
	name := ExportFileName(time.Date(2022, 1, 20, 10, 15, 30, 0, time.UTC))
	if name != "AIP-FQ-Thu Jan 20 2022 10:15:30 GMT+0000.json" {
		t.Errorf("Unexpected file name %q", name)
	}
}

func TestBackends(t *testing.T) {
	dir := t.TempDir()

	fileKV, err := NewFileKV(filepath.Join(dir, "files"))
	if err != nil {
		t.Fatalf("NewFileKV failed: %v", err)
	}
	sqliteKV, err := OpenSQLiteKV(filepath.Join(dir, "db", "favourites.db"))
	if err != nil {
		t.Fatalf("OpenSQLiteKV failed: %v", err)
	}
	t.Cleanup(func() { sqliteKV.Close() })

	backends := map[string]KV{
		"memory": NewMemoryKV(),
		"file":   fileKV,
		"sqlite": sqliteKV,
	}

	for name, kv := range backends {
		t.Run(name, func(t *testing.T) {
			if _, ok, err := kv.Get("missing"); ok || err != nil {
				t.Fatalf("Get(missing) = %v, %v", ok, err)
			}
			if err := kv.Set("k", []byte("one")); err != nil {
				t.Fatalf("Set failed: %v", err)
			}
			if err := kv.Set("k", []byte("two")); err != nil {
				t.Fatalf("Set failed: %v", err)
			}
			v, ok, err := kv.Get("k")
			if err != nil || !ok || string(v) != "two" {
				t.Errorf("Get(k) = %q, %v, %v", v, ok, err)
			}

			store := NewStore(kv)
			if err := store.Add(sqlQuery("persisted", "SELECT 1")); err != nil {
				t.Fatalf("Add failed: %v", err)
			}
			queries, err := NewStore(kv).List()
			if err != nil || len(queries) != 1 {
				t.Errorf("Expected the favourite to persist, got %v, %v", queries, err)
			}
		})
	}
}
