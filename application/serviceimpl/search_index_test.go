package serviceimpl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drivesync/domain/services"
)

func sampleEntries() []services.EmbeddingEntry {
	return []services.EmbeddingEntry{
		{Filename: "a.jpg", Filepath: "/a.jpg", Embedding: []float32{1, 0, 0}},
		{Filename: "b.jpg", Filepath: "/b.jpg", Embedding: []float32{0, 1, 0}},
		{Filename: "c.jpg", Filepath: "/c.jpg", Embedding: []float32{0.9, 0.1, 0}},
		{Filename: "corrupt.jpg", Filepath: "/corrupt.jpg", IsCorrupt: true, Embedding: []float32{1, 1, 1}},
		{Filename: "empty.jpg", Filepath: "/empty.jpg"},
	}
}

func TestNewDenseSearchIndex_SkipsCorruptAndUnembedded(t *testing.T) {
	idx := newDenseSearchIndex(sampleEntries())
	assert.Equal(t, 3, idx.Len())
}

func TestSearchRanked_OrdersBySimilarityDescending(t *testing.T) {
	idx := newDenseSearchIndex(sampleEntries())
	hits := idx.SearchRanked([]float32{1, 0, 0}, 10, nil)
	require.Len(t, hits, 3)
	assert.Equal(t, "a.jpg", hits[0].Filename)
	assert.Equal(t, "c.jpg", hits[1].Filename)
	assert.Equal(t, "b.jpg", hits[2].Filename)
	require.NotNil(t, hits[0].Similarity)
	assert.InDelta(t, 1.0, *hits[0].Similarity, 1e-6)
}

func TestSearchRanked_RespectsTopK(t *testing.T) {
	idx := newDenseSearchIndex(sampleEntries())
	hits := idx.SearchRanked([]float32{1, 0, 0}, 1, nil)
	assert.Len(t, hits, 1)
	assert.Equal(t, "a.jpg", hits[0].Filename)
}

func TestSearchRanked_ExcludesByFilename(t *testing.T) {
	idx := newDenseSearchIndex(sampleEntries())
	hits := idx.SearchRanked([]float32{1, 0, 0}, 10, map[string]struct{}{"a.jpg": {}})
	require.Len(t, hits, 2)
	assert.Equal(t, "c.jpg", hits[0].Filename)
}

func TestSearchShuffle_NeverExceedsTopKAndStaysSortedBySimilarity(t *testing.T) {
	idx := newDenseSearchIndex(sampleEntries())
	hits := idx.SearchShuffle([]float32{1, 0, 0}, 2, 3, nil)
	require.Len(t, hits, 2)
	assert.GreaterOrEqual(t, *hits[0].Similarity, *hits[1].Similarity)
}

func TestSearchShuffle_DefaultsPoolWhenZero(t *testing.T) {
	idx := newDenseSearchIndex(sampleEntries())
	// pool<=0 should not panic and should still cap at available rows.
	hits := idx.SearchShuffle([]float32{1, 0, 0}, 10, 0, nil)
	assert.Len(t, hits, 3)
}

func TestSearchRandom_SimilarityAlwaysNil(t *testing.T) {
	idx := newDenseSearchIndex(sampleEntries())
	hits := idx.SearchRandom(2, nil)
	require.Len(t, hits, 2)
	for _, h := range hits {
		assert.Nil(t, h.Similarity)
	}
}

func TestSearchRandom_CapsAtAvailableCount(t *testing.T) {
	idx := newDenseSearchIndex(sampleEntries())
	hits := idx.SearchRandom(100, nil)
	assert.Len(t, hits, 3)
}

func TestSearchRandom_ExcludesByFilename(t *testing.T) {
	idx := newDenseSearchIndex(sampleEntries())
	hits := idx.SearchRandom(100, map[string]struct{}{"a.jpg": {}, "b.jpg": {}})
	require.Len(t, hits, 1)
	assert.Equal(t, "c.jpg", hits[0].Filename)
}

func TestCosine_ZeroNormReturnsZero(t *testing.T) {
	assert.Equal(t, float32(0), cosine([]float32{1, 0}, 0, []float32{1, 0}, 1))
}
