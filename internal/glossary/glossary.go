// Package glossary implements the glossary store: named, identified lists
// of forced source→target term substitutions supplied as translation hints.
// Records are immutable once created and persisted to a JSON flat file that
// is rewritten on every creation.
package glossary

import (
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Entry is one forced term substitution.
type Entry struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// Record is a stored glossary. The ID is generator-assigned, unique, and
// immutable; entries keep their creation order.
type Record struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Entries []Entry `json:"entries"`
}

// ErrNotFound is returned by Get for unknown glossary ids.
var ErrNotFound = errors.New("glossary not found")

// Store holds glossaries in memory, mirrored to a flat file. There is no
// update or delete operation; records only accumulate.
type Store struct {
	mu      sync.RWMutex
	records map[string]Record
	path    string
	log     *slog.Logger
}

// NewStore opens (or creates) a glossary store backed by path. Load
// failures are logged and treated as an empty store.
func NewStore(path string, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	s := &Store{
		records: make(map[string]Record),
		path:    path,
		log:     log,
	}
	s.load()
	return s
}

func (s *Store) load() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.log.Warn("glossary store load failed, starting empty", "path", s.path, "error", err)
		}
		return
	}
	if err := json.Unmarshal(data, &s.records); err != nil {
		s.log.Warn("glossary file corrupt, starting empty", "path", s.path, "error", err)
		s.records = make(map[string]Record)
		return
	}
	s.log.Info("glossaries loaded", "path", s.path, "count", len(s.records))
}

// saveLocked rewrites the persisted file. Callers must hold s.mu for write.
func (s *Store) saveLocked() {
	data, err := json.MarshalIndent(s.records, "", "  ")
	if err != nil {
		s.log.Warn("glossary encode failed, save skipped", "error", err)
		return
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		s.log.Warn("glossary save failed", "path", s.path, "error", err)
	}
}

// Create stores a new glossary and returns its generated id. The record is
// persisted synchronously before the id is handed out.
func (s *Store) Create(name string, entries []Entry) string {
	id := "gl-" + uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[id] = Record{ID: id, Name: name, Entries: entries}
	s.saveLocked()
	return id
}

// Get returns the glossary with the given id, or ErrNotFound.
func (s *Store) Get(id string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

// List returns all glossary ids, sorted so the order is stable within a
// load and across reloads.
func (s *Store) List() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.records))
	for id := range s.records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of stored glossaries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
