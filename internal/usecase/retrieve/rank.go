package retrieve

import (
	"sort"

	"github.com/kailas-cloud/chatnoir-retrieve/internal/domain/table"
)

// AssignRanks orders rows by descending score, breaking ties by ascending docno,
// then numbers rows 0, 1, 2, ... within each qid in that order. Rows are sorted in place.
func AssignRanks(rows []table.Row) []table.Row {
	sort.SliceStable(rows, func(i, j int) bool {
		si, sj := rows[i].Float(table.Score), rows[j].Float(table.Score)
		if si != sj {
			return si > sj
		}
		return rows[i].String(table.Docno) < rows[j].String(table.Docno)
	})

	next := make(map[string]int)
	for _, r := range rows {
		qid := r.QID()
		r[table.Rank] = next[qid]
		next[qid]++
	}
	return rows
}
