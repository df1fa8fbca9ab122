package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/samvad-hq/samvad-articles/internal/domain"
	"gopkg.in/yaml.v3"
)

// fixturesFile represents the structure of an article fixtures file.
type fixturesFile struct {
	Articles []domain.Article `json:"articles" yaml:"articles"`
}

// LoadFixtures reads seed articles from a YAML or JSON file.
func LoadFixtures(path string) ([]domain.Article, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("fixtures file path is empty")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixtures file: %w", err)
	}
	return parseFixtures(raw, filepath.Ext(path))
}

// parseFixtures attempts each decoder matching the file extension, or all of them
// when the extension is unknown.
func parseFixtures(data []byte, ext string) ([]domain.Article, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))
	decoders := []struct {
		ext string
		fn  func([]byte, any) error
	}{
		{ext: ".yaml", fn: yaml.Unmarshal},
		{ext: ".yml", fn: yaml.Unmarshal},
		{ext: ".json", fn: json.Unmarshal},
	}

	known := false
	for _, d := range decoders {
		if ext == d.ext {
			known = true
		}
	}

	for _, d := range decoders {
		if known && ext != d.ext {
			continue
		}
		var f fixturesFile
		if err := d.fn(data, &f); err == nil {
			return f.Articles, nil
		}
	}
	return nil, errors.New("fixtures file format not recognized (expected YAML or JSON)")
}

// Seed inserts articles in order. Stored ids are assigned by the store; ids in
// the fixtures are ignored.
func Seed(store Store, articles []domain.Article) (int, error) {
	n := 0
	for i, a := range articles {
		a.ID = 0
		if _, err := store.Create(a); err != nil {
			return n, fmt.Errorf("seed article[%d]: %w", i, err)
		}
		n++
	}
	return n, nil
}
