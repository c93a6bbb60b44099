package retrieve

import (
	"github.com/kailas-cloud/chatnoir-retrieve/internal/domain/feature"
	"github.com/kailas-cloud/chatnoir-retrieve/internal/domain/table"
)

// Table is an ordered set of columns with rows.
type Table = table.Table

// Row maps column names to values; nil is the null marker.
type Row = table.Row

// Columns present in every topic or result table.
const (
	ColumnQID   = table.QID
	ColumnQuery = table.Query
	ColumnDocno = table.Docno
	ColumnScore = table.Score
	ColumnRank  = table.Rank
)

// Topic is one query with its id.
type Topic struct {
	QID   string
	Query string
}

// NewTopics builds a topic table with qid and query columns.
func NewTopics(topics ...Topic) Table {
	t := table.New(table.QID, table.Query)
	t.Rows = make([]table.Row, len(topics))
	for i, tp := range topics {
		t.Rows[i] = table.Row{table.QID: tp.QID, table.Query: tp.Query}
	}
	return t
}

// FeatureNames lists every accepted feature name, primitives first.
func FeatureNames() []string { return feature.KnownNames() }

// StagingOnlyFeatures lists the features only the staging endpoint serves.
func StagingOnlyFeatures() []string { return feature.StagingOnly.Names() }
