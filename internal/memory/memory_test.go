package memory

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o600)
}

func TestFileStore_ImplementsStore(_ *testing.T) {
	var _ Store = (*FileStore)(nil)
}

func TestFileStore_RoundTrip(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "tm.json"), nil)

	s.Store("Hello", "你好", "zh")
	got, ok := s.Lookup("Hello", "zh")
	if !ok {
		t.Fatal("expected hit after store")
	}
	if got != "你好" {
		t.Errorf("got %q, want 你好", got)
	}
}

func TestFileStore_Miss(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "tm.json"), nil)
	if _, ok := s.Lookup("never stored", "zh"); ok {
		t.Error("expected miss")
	}
}

func TestFileStore_KeyIsolation(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "tm.json"), nil)

	// Same text, different targets; different text, same target.
	s.Store("Hello", "你好", "zh")
	s.Store("Hello", "Hallo", "de")
	s.Store("Bye", "再见", "zh")

	cases := []struct {
		text, lang, want string
	}{
		{"Hello", "zh", "你好"},
		{"Hello", "de", "Hallo"},
		{"Bye", "zh", "再见"},
	}
	for _, c := range cases {
		got, ok := s.Lookup(c.text, c.lang)
		if !ok || got != c.want {
			t.Errorf("Lookup(%q, %q) = %q, %v; want %q", c.text, c.lang, got, ok, c.want)
		}
	}
}

func TestFileStore_Overwrite(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "tm.json"), nil)
	s.Store("Hello", "first", "zh")
	s.Store("Hello", "second", "zh")
	if got, _ := s.Lookup("Hello", "zh"); got != "second" {
		t.Errorf("got %q, want last write", got)
	}
	if s.Len() != 1 {
		t.Errorf("overwrite must not add an entry, len = %d", s.Len())
	}
}

func TestFileStore_PersistAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tm.json")

	s := NewFileStore(path, nil)
	s.Store("Hello", "你好", "zh")
	// Texts with delimiter-looking content must survive the round trip
	// verbatim since keys are stored as literal fields, not encoded strings.
	s.Store("a|b_c\nd", "tricky", "fr")

	reloaded := NewFileStore(path, nil)
	if reloaded.Len() != 2 {
		t.Fatalf("reloaded %d entries, want 2", reloaded.Len())
	}
	if got, ok := reloaded.Lookup("Hello", "zh"); !ok || got != "你好" {
		t.Errorf("Lookup after reload = %q, %v", got, ok)
	}
	if got, ok := reloaded.Lookup("a|b_c\nd", "fr"); !ok || got != "tricky" {
		t.Errorf("delimiter-heavy key lost on reload: %q, %v", got, ok)
	}
}

func TestFileStore_Clear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tm.json")
	s := NewFileStore(path, nil)
	s.Store("Hello", "你好", "zh")

	s.Clear()
	if s.Len() != 0 {
		t.Errorf("len after clear = %d", s.Len())
	}
	if _, ok := s.Lookup("Hello", "zh"); ok {
		t.Error("expected miss after clear")
	}
	if reloaded := NewFileStore(path, nil); reloaded.Len() != 0 {
		t.Errorf("persisted file survived clear, %d entries", reloaded.Len())
	}
}

func TestFileStore_Stats(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "tm.json"), nil)
	s.Store("Hello", "你好", "zh")

	s.Lookup("Hello", "zh")
	s.Lookup("missing", "zh")

	stats := s.Stats()
	if stats.Entries != 1 || stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestFileStore_ConcurrentWriters(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "tm.json"), nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			text := fmt.Sprintf("text-%d", i)
			s.Store(text, fmt.Sprintf("translated-%d", i), "zh")
			if _, ok := s.Lookup(text, "zh"); !ok {
				t.Errorf("entry %d lost under concurrency", i)
			}
		}(i)
	}
	wg.Wait()

	if s.Len() != 20 {
		t.Errorf("len = %d, want 20", s.Len())
	}
}

func TestFileStore_CorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tm.json")
	if err := writeFile(path, "{not json"); err != nil {
		t.Fatal(err)
	}
	s := NewFileStore(path, nil)
	if s.Len() != 0 {
		t.Errorf("corrupt file should load as empty, len = %d", s.Len())
	}
	// The store must still accept writes afterwards.
	s.Store("Hello", "你好", "zh")
	if _, ok := s.Lookup("Hello", "zh"); !ok {
		t.Error("store unusable after corrupt load")
	}
}
