// Package loader reads plain-text documents from a directory.
package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/hyperjump/sqlrag/internal/models"
)

// Extension is the file extension of loadable documents, matched case-insensitively.
const Extension = ".txt"

// LoadDirectory reads every *.txt file directly inside dir, sorted by name.
// Subdirectories are not descended into.
// A missing dir yields models.ErrConfigurationMissing; a dir without matching files yields models.ErrNoDocumentsFound.
func LoadDirectory(dir string) ([]models.SourceDocument, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: documents directory %s does not exist", models.ErrConfigurationMissing, dir)
		}
		return nil, fmt.Errorf("failed to stat documents directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", models.ErrConfigurationMissing, dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read documents directory: %w", err)
	}
	var docs []models.SourceDocument
	for _, e := range entries {
		if !Matches(e.Name()) {
			continue
		}
		if !e.Type().IsRegular() {
			// follow symlinks to regular files
			fi, err := os.Stat(filepath.Join(dir, e.Name()))
			if err != nil || !fi.Mode().IsRegular() {
				continue
			}
		}
		path := filepath.Join(dir, e.Name())
		doc, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: no %s files in %s", models.ErrNoDocumentsFound, Extension, dir)
	}
	return docs, nil
}

// LoadFile reads a single document. The source identifier is the path as given.
func LoadFile(path string) (models.SourceDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.SourceDocument{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return models.SourceDocument{Source: path, Content: decodeText(data)}, nil
}

// Matches reports whether name has the loadable extension.
func Matches(name string) bool {
	return strings.EqualFold(filepath.Ext(name), Extension)
}

// decodeText drops a UTF-8 byte order mark and replaces invalid sequences with U+FFFD.
func decodeText(content []byte) string {
	s := strings.TrimPrefix(string(content), "\ufeff")
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "\ufffd")
	}
	return s
}
