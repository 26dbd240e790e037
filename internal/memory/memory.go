// Package memory implements the translation memory: a concurrency-safe
// key-value store mapping (source text, target language) to a previously
// produced translation, persisted wholesale to a JSON flat file.
//
// The persisted form stores the key fields verbatim so the key is
// re-derivable after a process restart; no hash ever reaches the disk.
package memory

import (
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"sync"
)

// Key identifies one remembered translation. The exact text and the target
// language code together form the key; the source language does not
// participate (the same text translated to the same target is assumed
// deterministic enough to reuse).
type Key struct {
	Text       string
	TargetLang string
}

// Store is the translation-memory contract the service depends on.
// Implementations must be safe for concurrent use.
type Store interface {
	// Lookup returns the remembered translation for (text, targetLang).
	Lookup(text, targetLang string) (string, bool)
	// Store inserts or overwrites the entry and persists the store.
	Store(text, translation, targetLang string)
	// Clear empties the store and removes the persisted file.
	Clear()
	// Len returns the number of entries.
	Len() int
	// Stats returns usage counters since process start.
	Stats() Stats
}

// Stats reports translation-memory usage.
type Stats struct {
	Entries int    `json:"entries"`
	Hits    int64  `json:"hits"`
	Misses  int64  `json:"misses"`
	Path    string `json:"path,omitempty"`
}

// fileRecord is the on-disk form of one entry. Text and target language are
// stored literally; the in-memory key is rebuilt from them on load.
type fileRecord struct {
	Text        string `json:"text"`
	TargetLang  string `json:"target_lang"`
	Translation string `json:"translation"`
}

// FileStore is the file-backed Store implementation. Every write rewrites
// the whole file; acceptable at this scale, a known ceiling.
type FileStore struct {
	mu      sync.Mutex
	entries map[Key]string
	path    string
	hits    int64
	misses  int64
	log     *slog.Logger
}

// NewFileStore opens (or creates) a translation memory backed by path.
// Load failures are logged and treated as an empty memory, never surfaced.
func NewFileStore(path string, log *slog.Logger) *FileStore {
	if log == nil {
		log = slog.Default()
	}
	s := &FileStore{
		entries: make(map[Key]string),
		path:    path,
		log:     log,
	}
	s.load()
	return s
}

func (s *FileStore) load() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.log.Warn("translation memory load failed, starting empty", "path", s.path, "error", err)
		}
		return
	}
	var records []fileRecord
	if err := json.Unmarshal(data, &records); err != nil {
		s.log.Warn("translation memory file corrupt, starting empty", "path", s.path, "error", err)
		return
	}
	for _, r := range records {
		s.entries[Key{Text: r.Text, TargetLang: r.TargetLang}] = r.Translation
	}
	s.log.Info("translation memory loaded", "path", s.path, "entries", len(s.entries))
}

// saveLocked rewrites the persisted file. Callers must hold s.mu.
// I/O errors are logged; the in-memory store stays authoritative.
func (s *FileStore) saveLocked() {
	records := make([]fileRecord, 0, len(s.entries))
	for k, v := range s.entries {
		records = append(records, fileRecord{Text: k.Text, TargetLang: k.TargetLang, Translation: v})
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		s.log.Warn("translation memory encode failed, save skipped", "error", err)
		return
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		s.log.Warn("translation memory save failed", "path", s.path, "error", err)
	}
}

// Lookup returns the remembered translation for (text, targetLang).
func (s *FileStore) Lookup(text, targetLang string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	translation, ok := s.entries[Key{Text: text, TargetLang: targetLang}]
	if ok {
		s.hits++
	} else {
		s.misses++
	}
	return translation, ok
}

// Store inserts or overwrites the entry for (text, targetLang), then
// persists the whole store. Concurrent writers serialize on the mutex, so
// the file never sees interleaved writes; same-key races are last-write-wins.
func (s *FileStore) Store(text, translation, targetLang string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[Key{Text: text, TargetLang: targetLang}] = translation
	s.saveLocked()
}

// Clear empties the store and removes the persisted file.
func (s *FileStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[Key]string)
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.log.Warn("translation memory file removal failed", "path", s.path, "error", err)
	}
}

// Len returns the number of entries.
func (s *FileStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Stats returns usage counters since process start.
func (s *FileStore) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		Entries: len(s.entries),
		Hits:    s.hits,
		Misses:  s.misses,
		Path:    s.path,
	}
}
