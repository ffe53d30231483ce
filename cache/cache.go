// Package cache stores extraction snapshots so that repeated parses of the
// same document skip the PDF decoding step. A snapshot is the parser.Source
// of one document serialized to JSON, keyed by the PDF file name without
// extension.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/PavelSyomin/oks-checker/parser"
)

// Store keeps one snapshot file per document under dir. All methods are safe
// for concurrent use; writes go through a temp file and a rename so readers
// never observe a partial snapshot.
type Store struct {
	dir string
	mu  sync.Mutex
}

func New(dir string) *Store {
	return &Store{dir: dir}
}

// Key derives the snapshot key from a PDF path: the base name without its
// extension.
func Key(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func (s *Store) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

// Has reports whether a snapshot exists for the document.
func (s *Store) Has(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	info, err := os.Stat(s.path(id))
	return err == nil && !info.IsDir()
}

// Load reads the snapshot for the document. A missing, unreadable or corrupt
// snapshot is a miss, not an error: the caller falls back to extracting the
// PDF again.
func (s *Store) Load(id string) (parser.Source, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path(id))
	if err != nil {
		return parser.Source{}, false
	}

	var src parser.Source
	if err := json.Unmarshal(data, &src); err != nil {
		return parser.Source{}, false
	}
	return src, true
}

// Save writes the snapshot for the document, replacing any previous one.
func (s *Store) Save(id string, src parser.Source) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating cache dir: %w", err)
	}

	data, err := json.Marshal(src)
	if err != nil {
		return fmt.Errorf("encoding snapshot %s: %w", id, err)
	}

	tmp, err := os.CreateTemp(s.dir, id+"-*.tmp")
	if err != nil {
		return fmt.Errorf("creating snapshot temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing snapshot %s: %w", id, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("closing snapshot %s: %w", id, err)
	}
	if err := os.Rename(tmp.Name(), s.path(id)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replacing snapshot %s: %w", id, err)
	}
	return nil
}

// Delete removes the snapshot for the document. Deleting a snapshot that
// does not exist is not an error.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path(id))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting snapshot %s: %w", id, err)
	}
	return nil
}
