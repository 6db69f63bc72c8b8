package serviceimpl

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"drivesync/domain/services"
)

// searchRow is one valid (non-corrupt, embedded) entry materialized for
// in-memory cosine search.
type searchRow struct {
	filename string
	filepath string
	vector   []float32
	norm     float32
}

// DenseSearchIndex is the C9 implementation: a per-request, in-memory
// embedding matrix built fresh from one tenant's artifact and discarded
// after the request. Represented as plain slices with hand-rolled dot/norm
// helpers rather than a numerics library, matching the pack's total
// absence of one.
type DenseSearchIndex struct {
	rows []searchRow
}

func newDenseSearchIndex(entries []services.EmbeddingEntry) *DenseSearchIndex {
	rows := make([]searchRow, 0, len(entries))
	for _, e := range entries {
		if e.IsCorrupt || len(e.Embedding) == 0 {
			continue
		}
		rows = append(rows, searchRow{
			filename: e.Filename,
			filepath: e.Filepath,
			vector:   e.Embedding,
			norm:     vectorNorm(e.Embedding),
		})
	}
	return &DenseSearchIndex{rows: rows}
}

func vectorNorm(v []float32) float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return float32(math.Sqrt(sum))
}

func cosine(a []float32, aNorm float32, b []float32, bNorm float32) float32 {
	if aNorm == 0 || bNorm == 0 {
		return 0
	}
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
	}
	return float32(dot / (float64(aNorm) * float64(bNorm)))
}

func (idx *DenseSearchIndex) candidates(q []float32, exclude map[string]struct{}) ([]searchRow, []float32) {
	qNorm := vectorNorm(q)
	rows := make([]searchRow, 0, len(idx.rows))
	sims := make([]float32, 0, len(idx.rows))
	for _, r := range idx.rows {
		if _, skip := exclude[r.filename]; skip {
			continue
		}
		rows = append(rows, r)
		sims = append(sims, cosine(q, qNorm, r.vector, r.norm))
	}
	return rows, sims
}

// SearchRanked excludes by filename then ranks the remainder by cosine
// similarity against q, returning at most topK hits descending.
func (idx *DenseSearchIndex) SearchRanked(q []float32, topK int, exclude map[string]struct{}) []services.SearchHit {
	rows, sims := idx.candidates(q, exclude)
	order := make([]int, len(rows))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool { return sims[order[i]] > sims[order[j]] })

	if topK > len(order) {
		topK = len(order)
	}
	hits := make([]services.SearchHit, 0, topK)
	for _, i := range order[:topK] {
		sim := sims[i]
		hits = append(hits, services.SearchHit{Filename: rows[i].filename, Filepath: rows[i].filepath, Similarity: &sim})
	}
	return hits
}

// SearchShuffle ranks into a pool of candidates, then uniformly samples
// topK of them, returned sorted by similarity descending.
func (idx *DenseSearchIndex) SearchShuffle(q []float32, topK, pool int, exclude map[string]struct{}) []services.SearchHit {
	rows, sims := idx.candidates(q, exclude)
	order := make([]int, len(rows))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool { return sims[order[i]] > sims[order[j]] })

	effectivePool := pool
	if effectivePool <= 0 {
		effectivePool = topK * 3
		if effectivePool < 20 {
			effectivePool = 20
		}
	}
	if effectivePool < topK {
		effectivePool = topK
	}
	if effectivePool > len(order) {
		effectivePool = len(order)
	}
	poolIdx := order[:effectivePool]

	k := topK
	if k > len(poolIdx) {
		k = len(poolIdx)
	}
	sampled := sampleIndices(poolIdx, k)
	sort.Slice(sampled, func(i, j int) bool { return sims[sampled[i]] > sims[sampled[j]] })

	hits := make([]services.SearchHit, 0, len(sampled))
	for _, i := range sampled {
		sim := sims[i]
		hits = append(hits, services.SearchHit{Filename: rows[i].filename, Filepath: rows[i].filepath, Similarity: &sim})
	}
	return hits
}

// SearchRandom uniformly samples min(count, |valid|) entries without
// replacement; Similarity is always nil.
func (idx *DenseSearchIndex) SearchRandom(count int, exclude map[string]struct{}) []services.SearchHit {
	candidateIdx := make([]int, 0, len(idx.rows))
	for i, r := range idx.rows {
		if _, skip := exclude[r.filename]; skip {
			continue
		}
		candidateIdx = append(candidateIdx, i)
	}

	if count > len(candidateIdx) {
		count = len(candidateIdx)
	}
	sampled := sampleIndices(candidateIdx, count)

	hits := make([]services.SearchHit, 0, len(sampled))
	for _, i := range sampled {
		hits = append(hits, services.SearchHit{Filename: idx.rows[i].filename, Filepath: idx.rows[i].filepath, Similarity: nil})
	}
	return hits
}

// Len reports the number of valid entries.
func (idx *DenseSearchIndex) Len() int {
	return len(idx.rows)
}

// sampleIndices picks k distinct values from pool uniformly at random
// without replacement, via a partial Fisher-Yates shuffle.
func sampleIndices(pool []int, k int) []int {
	cp := make([]int, len(pool))
	copy(cp, pool)
	if k > len(cp) {
		k = len(cp)
	}
	for i := 0; i < k; i++ {
		j := i + rand.Intn(len(cp)-i)
		cp[i], cp[j] = cp[j], cp[i]
	}
	return cp[:k]
}

var _ services.SearchIndex = (*DenseSearchIndex)(nil)

// SearchIndexLoaderImpl constructs a DenseSearchIndex per request by
// reading the tenant's artifact straight from the Blob Store.
type SearchIndexLoaderImpl struct {
	blob           services.BlobStore
	artifactBucket string
}

func NewSearchIndexLoader(blob services.BlobStore, artifactBucket string) *SearchIndexLoaderImpl {
	return &SearchIndexLoaderImpl{blob: blob, artifactBucket: artifactBucket}
}

func (l *SearchIndexLoaderImpl) Load(ctx context.Context, uuid string) (services.SearchIndex, error) {
	data, err := l.blob.Read(ctx, l.artifactBucket, artifactKey(uuid))
	if err != nil {
		if services.IsNotExist(err) {
			return nil, err
		}
		return nil, fmt.Errorf("search_index: load artifact %s: %w", uuid, err)
	}
	var entries []services.EmbeddingEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("search_index: parse artifact %s: %w", uuid, err)
	}
	return newDenseSearchIndex(entries), nil
}

var _ services.SearchIndexLoader = (*SearchIndexLoaderImpl)(nil)
