// Package tableio reads topic tables and writes retrieved result tables.
package tableio

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/kailas-cloud/chatnoir-retrieve/internal/domain"
	"github.com/kailas-cloud/chatnoir-retrieve/internal/domain/table"
)

// Format names a table serialization.
type Format string

// Supported formats.
const (
	FormatJSONL Format = "jsonl"
	FormatTSV   Format = "tsv"
	FormatTREC  Format = "trec"
)

// maxLine bounds a single JSONL line.
const maxLine = 16 << 20

// FormatFromPath guesses the topic format from a file extension.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl", ".json", ".ndjson":
		return FormatJSONL
	default:
		return FormatTSV
	}
}

// ReadTopicsFile opens path and parses it in the format implied by its extension.
func ReadTopicsFile(path string) (table.Table, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return table.Table{}, fmt.Errorf("open topics: %w", err)
	}
	defer func() { _ = f.Close() }()
	return ReadTopics(f, FormatFromPath(path))
}

// ReadTopics parses a topic table. The result always declares qid and query.
func ReadTopics(r io.Reader, format Format) (table.Table, error) {
	switch format {
	case FormatJSONL:
		return readJSONL(r)
	case FormatTSV:
		return readTSV(r)
	default:
		return table.Table{}, fmt.Errorf("%w: unsupported topic format %q", domain.ErrConfiguration, format)
	}
}

// readJSONL reads one JSON object per line. Numbers are kept as json.Number so
// qids like 0 and "0" group together.
func readJSONL(r io.Reader) (table.Table, error) {
	t := table.New(table.QID, table.Query)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), maxLine)

	line := 0
	for sc.Scan() {
		line++
		raw := bytes.TrimSpace(sc.Bytes())
		if len(raw) == 0 {
			continue
		}
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		var row table.Row
		if err := dec.Decode(&row); err != nil {
			return table.Table{}, fmt.Errorf("topics line %d: %w", line, err)
		}
		t.Append(row)
	}
	if err := sc.Err(); err != nil {
		return table.Table{}, fmt.Errorf("read topics: %w", err)
	}
	return t, nil
}

// readTSV reads tab-separated topics. A header row naming qid and query is
// used when present; otherwise the first two columns are qid and query.
func readTSV(r io.Reader) (table.Table, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.Comment = '#'
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return table.Table{}, fmt.Errorf("read topics: %w", err)
	}

	header := []string{table.QID, table.Query}
	if len(records) > 0 && hasTopicHeader(records[0]) {
		header = records[0]
		records = records[1:]
	}

	t := table.New(header...)
	for i, rec := range records {
		if len(rec) < 2 {
			return table.Table{}, fmt.Errorf("%w: topics row %d has %d fields, want at least 2",
				domain.ErrConfiguration, i+1, len(rec))
		}
		row := make(table.Row, len(header))
		for j, col := range header {
			if j < len(rec) {
				row[col] = rec[j]
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

func hasTopicHeader(rec []string) bool {
	var qid, query bool
	for _, c := range rec {
		switch strings.TrimSpace(c) {
		case table.QID:
			qid = true
		case table.Query:
			query = true
		}
	}
	return qid && query
}

// ErrUnsupportedFormat is returned for unknown output formats.
var ErrUnsupportedFormat = errors.New("unsupported format")
