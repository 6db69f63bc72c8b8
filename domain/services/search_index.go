package services

import "context"

// SearchHit is one result row (§4.8). Similarity is nil for random search.
type SearchHit struct {
	Filename   string
	Filepath   string
	Similarity *float32
}

// SearchIndex is the Search Index (C9): an in-memory embedding matrix for
// one tenant, constructed per request and discarded after. Loading a
// missing artifact is an error satisfying IsNotExist.
type SearchIndex interface {
	// SearchRanked excludes by filename then ranks the remainder by cosine
	// similarity against q, returning at most topK hits descending.
	SearchRanked(q []float32, topK int, exclude map[string]struct{}) []SearchHit

	// SearchShuffle ranks into a pool of max(pool, topK) candidates (pool
	// defaults to max(topK*3, 20)), then uniformly samples topK of them,
	// returned sorted by similarity descending.
	SearchShuffle(q []float32, topK, pool int, exclude map[string]struct{}) []SearchHit

	// SearchRandom uniformly samples min(count, |valid|) entries without
	// replacement; Similarity is always nil.
	SearchRandom(count int, exclude map[string]struct{}) []SearchHit

	// Len reports the number of valid (non-corrupt, embedded) entries.
	Len() int
}

// SearchIndexLoader constructs a SearchIndex for one tenant by reading its
// artifact from the Blob Store. A thin factory kept separate from
// SearchIndex itself so the matrix-building code stays test-friendly
// (construct from an in-memory artifact directly in tests).
type SearchIndexLoader interface {
	Load(ctx context.Context, uuid string) (SearchIndex, error)
}
