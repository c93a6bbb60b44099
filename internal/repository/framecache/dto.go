package framecache

import (
	"encoding/json"
	"fmt"

	"github.com/kailas-cloud/chatnoir-retrieve/internal/domain/table"
)

// frameDTO is the stored form of a frame. Values stay raw until decoded per column.
type frameDTO struct {
	Version int                          `json:"v"`
	Rows    []map[string]json.RawMessage `json:"rows"`
}

const frameVersion = 1

func encodeRows(rows []table.Row) ([]byte, error) {
	dto := frameDTO{Version: frameVersion, Rows: make([]map[string]json.RawMessage, len(rows))}
	for i, r := range rows {
		m := make(map[string]json.RawMessage, len(r))
		for k, v := range r {
			data, err := json.Marshal(v)
			if err != nil {
				return nil, fmt.Errorf("column %s: %w", k, err)
			}
			m[k] = data
		}
		dto.Rows[i] = m
	}
	return json.Marshal(dto)
}

func decodeRows(data []byte, rawColumns map[string]struct{}) ([]table.Row, error) {
	var dto frameDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return nil, fmt.Errorf("unmarshal frame: %w", err)
	}
	if dto.Version != frameVersion {
		return nil, fmt.Errorf("unsupported frame version %d", dto.Version)
	}

	rows := make([]table.Row, len(dto.Rows))
	for i, m := range dto.Rows {
		r := make(table.Row, len(m))
		for k, raw := range m {
			if _, ok := rawColumns[k]; ok && string(raw) != "null" {
				r[k] = json.RawMessage(raw)
				continue
			}
			var v any
			if err := json.Unmarshal(raw, &v); err != nil {
				return nil, fmt.Errorf("column %s: %w", k, err)
			}
			r[k] = v
		}
		rows[i] = r
	}
	return rows, nil
}
