// Package words loads the word pool and hands out random words from it.
package words

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/scythe504/wordrace-backend/internal/utils"
)

// Source yields the raw word list once at startup.
type Source interface {
	Load(ctx context.Context) ([]string, error)
}

// FileSource reads words from a file on disk. The parser is chosen by
// extension: .json (dictionary keys or a string array), .csv (first column)
// or anything else as one word per line.
type FileSource struct {
	Path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

func (s *FileSource) Load(_ context.Context) ([]string, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open word file %s: %w", s.Path, err)
	}
	defer f.Close()

	var words []string
	switch strings.ToLower(filepath.Ext(s.Path)) {
	case ".json":
		words, err = parseJSON(f)
	case ".csv":
		words, err = parseCSV(f)
	default:
		words, err = parseLines(f)
	}
	if err != nil {
		return nil, fmt.Errorf("parse word file %s: %w", s.Path, err)
	}
	return utils.NormalizeWords(words), nil
}

// parseJSON accepts {"apple": 1, "pear": 1} or ["apple", "pear"].
func parseJSON(r io.Reader) ([]string, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, nil
	}

	if raw[0] == '[' {
		var list []string
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, err
		}
		return list, nil
	}

	var dict map[string]json.RawMessage
	if err := json.Unmarshal(raw, &dict); err != nil {
		return nil, err
	}
	words := make([]string, 0, len(dict))
	for w := range dict {
		words = append(words, w)
	}
	return words, nil
}

// parseCSV takes the first column of each row; extra columns such as a
// usage count are ignored.
func parseCSV(r io.Reader) ([]string, error) {
	csvReader := csv.NewReader(r)
	csvReader.FieldsPerRecord = -1
	csvReader.TrimLeadingSpace = true

	var words []string
	for {
		record, err := csvReader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(record) == 0 {
			continue
		}
		words = append(words, record[0])
	}
	return words, nil
}

func parseLines(r io.Reader) ([]string, error) {
	var words []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		words = append(words, scanner.Text())
	}
	return words, scanner.Err()
}

// StaticSource serves a fixed list.
type StaticSource []string

func (s StaticSource) Load(context.Context) ([]string, error) {
	return utils.NormalizeWords(s), nil
}
