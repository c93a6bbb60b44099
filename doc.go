// Package retrieve turns tables of search topics into ranked result tables
// retrieved from the ChatNoir search engine.
//
//	r, _ := retrieve.New(apiKey,
//	    retrieve.WithIndices("cw12", "cw22"),
//	    retrieve.WithFeatures("ids", "title_text"),
//	    retrieve.WithNumResults(100),
//	)
//	defer r.Close()
//
//	topics := retrieve.NewTopics(
//	    retrieve.Topic{QID: "1", Query: "hubble telescope"},
//	    retrieve.Topic{QID: "2", Query: "solar panels efficiency"},
//	)
//	run, err := r.Transform(ctx, topics)
//
// Every output row carries the topic columns plus docno, score and rank, and
// one column per enabled feature. Rows are ordered by score, and rank counts
// from 0 within each qid.
//
// Hash returns a digest of the full configuration, suitable as an external
// cache key. With a cache option the retriever stores each query's results
// under that digest itself.
package retrieve
