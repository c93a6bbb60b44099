package tableio

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/kailas-cloud/chatnoir-retrieve/internal/domain/table"
)

// DefaultRunTag names the system in TREC run files.
const DefaultRunTag = "chatnoir"

// WriteResults writes a result table in the given format.
func WriteResults(w io.Writer, t table.Table, format Format, tag string) error {
	switch format {
	case FormatTREC:
		return WriteTRECRun(w, t, tag)
	case FormatJSONL:
		return WriteJSONL(w, t)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// WriteTRECRun writes "qid Q0 docno rank score tag" lines in table order.
func WriteTRECRun(w io.Writer, t table.Table, tag string) error {
	if tag == "" {
		tag = DefaultRunTag
	}
	bw := bufio.NewWriter(w)
	for _, r := range t.Rows {
		rank := 0
		if v, ok := r[table.Rank].(int); ok {
			rank = v
		}
		_, err := fmt.Fprintf(bw, "%s Q0 %s %d %s %s\n",
			r.QID(),
			r.String(table.Docno),
			rank,
			strconv.FormatFloat(r.Float(table.Score), 'f', -1, 64),
			tag,
		)
		if err != nil {
			return fmt.Errorf("write run: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	return nil
}

// WriteJSONL writes one JSON object per row, restricted to the table's columns.
func WriteJSONL(w io.Writer, t table.Table) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)
	for _, r := range t.Rows {
		out := make(map[string]any, len(t.Columns))
		for _, c := range t.Columns {
			out[c] = r[c]
		}
		if err := enc.Encode(out); err != nil {
			return fmt.Errorf("write jsonl: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write jsonl: %w", err)
	}
	return nil
}
