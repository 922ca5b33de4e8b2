package favourites

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/ritzau/aip-explorer/pkg/logging"
	"github.com/ritzau/aip-explorer/pkg/metrics"
)

// Key is the single KV key all favourites live under
const Key = "favourite_queries"

var (
	ErrMalformedImport = errors.New("malformed favourites file")
	ErrIndexOutOfRange = errors.New("favourite index out of range")
	ErrCorruptStore    = errors.New("stored favourites are not a JSON array")
)

// Store is the list of favourites, most recent first.
type Store struct {
	kv       KV
	mu       sync.Mutex
	onChange func([]Query)
}

func NewStore(kv KV) *Store {
	return &Store{kv: kv}
}

// OnChange registers a callback invoked with the new list after every write
func (s *Store) OnChange(fn func([]Query)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

// List returns all favourites. A missing or empty value is an empty list.
func (s *Store) List() ([]Query, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Get returns the favourite at index
func (s *Store) Get(index int) (Query, error) {
	queries, err := s.List()
	if err != nil {
		return Query{}, err
	}
	if index < 0 || index >= len(queries) {
		return Query{}, fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, index, len(queries))
	}
	return queries[index], nil
}

// Add puts q in front of the list. An empty time is stamped with now.
func (s *Store) Add(q Query) error {
	if q.Time == "" {
		q.Time = FormatTime(time.Now())
	}
	return s.update(func(queries []Query) ([]Query, error) {
		return append([]Query{q}, queries...), nil
	})
}

// Remove drops the favourite at index
func (s *Store) Remove(index int) error {
	return s.update(func(queries []Query) ([]Query, error) {
		if index < 0 || index >= len(queries) {
			return nil, fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, index, len(queries))
		}
		return append(queries[:index:index], queries[index+1:]...), nil
	})
}

// Replace overwrites the whole list
func (s *Store) Replace(queries []Query) error {
	return s.update(func([]Query) ([]Query, error) {
		return append([]Query{}, queries...), nil
	})
}

// Search returns favourites whose name contains name, ignoring case
func (s *Store) Search(name string) ([]Query, error) {
	queries, err := s.List()
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(name)
	matches := make([]Query, 0, len(queries))
	for _, q := range queries {
		if strings.Contains(strings.ToLower(q.QueryName), needle) {
			matches = append(matches, q)
		}
	}
	return matches, nil
}

// exportFile is the shape of exported and imported files
type exportFile struct {
	Queries []Query `json:"queries"`
}

// Import appends the queries of an exported file after the existing ones.
// Nothing is stored when the file is malformed.
func (s *Store) Import(r io.Reader) (int, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, fmt.Errorf("reading import: %w", err)
	}

	var file struct {
		Queries *[]Query `json:"queries"`
	}
	if err := json.Unmarshal(data, &file); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrMalformedImport, err)
	}
	if file.Queries == nil {
		return 0, fmt.Errorf("%w: missing queries list", ErrMalformedImport)
	}
	imported := *file.Queries

	err = s.update(func(queries []Query) ([]Query, error) {
		return append(queries, imported...), nil
	})
	if err != nil {
		return 0, err
	}

	logging.Info("imported favourites", "count", len(imported))
	return len(imported), nil
}

// Export writes {"queries": [...]}
func (s *Store) Export(w io.Writer) error {
	queries, err := s.List()
	if err != nil {
		return err
	}
	data, err := encode(exportFile{Queries: queries})
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// ExportFileName names an export made at t
func ExportFileName(t time.Time) string {
	return "AIP-FQ-" + t.Format("Mon Jan 02 2006 15:04:05 GMT-0700") + ".json"
}

func (s *Store) update(fn func([]Query) ([]Query, error)) error {
	s.mu.Lock()
	queries, err := s.load()
	if err != nil {
		s.mu.Unlock()
		return err
	}
	queries, err = fn(queries)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if err := s.save(queries); err != nil {
		s.mu.Unlock()
		return err
	}
	onChange := s.onChange
	s.mu.Unlock()

	if onChange != nil {
		onChange(queries)
	}
	return nil
}

func (s *Store) load() ([]Query, error) {
	data, ok, err := s.kv.Get(Key)
	if err != nil {
		return nil, fmt.Errorf("loading favourites: %w", err)
	}
	queries := []Query{}
	if !ok || len(bytes.TrimSpace(data)) == 0 {
		return queries, nil
	}
	if err := json.Unmarshal(data, &queries); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptStore, err)
	}
	if queries == nil {
		queries = []Query{}
	}
	metrics.FavouriteCount.Set(float64(len(queries)))
	return queries, nil
}

func (s *Store) save(queries []Query) error {
	data, err := encode(queries)
	if err != nil {
		return fmt.Errorf("encoding favourites: %w", err)
	}
	if err := s.kv.Set(Key, data); err != nil {
		return fmt.Errorf("saving favourites: %w", err)
	}
	metrics.FavouriteCount.Set(float64(len(queries)))
	return nil
}

// encode produces compact JSON without HTML escaping
func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
