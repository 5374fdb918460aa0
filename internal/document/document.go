/**
 * Document loading for the benchmark harness
 *
 * Loads plain-text documents from a data directory into Document records
 * with text and metadata, the unit consumed by the chunk splitters.
 */

package document

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/nlpforge/raglab/internal/errors"
)

// Document is a loaded source document.
type Document struct {
	ID       string
	Text     string
	Metadata map[string]interface{}
}

// DirectoryLoader loads .txt documents from a directory.
type DirectoryLoader struct {
	// Extensions accepted by the loader; defaults to .txt only.
	Extensions []string
}

// NewDirectoryLoader creates a loader for plain-text documents.
func NewDirectoryLoader() *DirectoryLoader {
	return &DirectoryLoader{Extensions: []string{".txt"}}
}

// Load reads all matching files under dir (recursively) in sorted path
// order. An absent or empty directory is a configuration error.
func (l *DirectoryLoader) Load(dir string) ([]Document, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, errors.NewMissingInputError(dir)
	}

	var paths []string
	err = filepath.Walk(dir, func(path string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			return nil
		}
		if l.matches(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan directory %s: %w", dir, err)
	}

	if len(paths) == 0 {
		return nil, errors.NewMissingInputError(dir)
	}

	sort.Strings(paths)

	docs := make([]Document, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}

		docs = append(docs, Document{
			ID:   uuid.New().String(),
			Text: string(data),
			Metadata: map[string]interface{}{
				"file_path": path,
				"file_name": filepath.Base(path),
			},
		})
	}

	return docs, nil
}

func (l *DirectoryLoader) matches(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, allowed := range l.Extensions {
		if ext == allowed {
			return true
		}
	}
	return false
}
