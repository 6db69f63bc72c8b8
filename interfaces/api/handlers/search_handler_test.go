package handlers

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drivesync/domain/services"
)

type fakeSearchIndex struct {
	rankedHits  []services.SearchHit
	shuffleHits []services.SearchHit
	randomHits  []services.SearchHit
}

func (i *fakeSearchIndex) SearchRanked([]float32, int, map[string]struct{}) []services.SearchHit {
	return i.rankedHits
}
func (i *fakeSearchIndex) SearchShuffle([]float32, int, int, map[string]struct{}) []services.SearchHit {
	return i.shuffleHits
}
func (i *fakeSearchIndex) SearchRandom(int, map[string]struct{}) []services.SearchHit {
	return i.randomHits
}
func (i *fakeSearchIndex) Len() int { return len(i.rankedHits) }

type fakeNotExistSearchErr struct{}

func (fakeNotExistSearchErr) Error() string  { return "not found" }
func (fakeNotExistSearchErr) NotExist() bool { return true }

type fakeSearchLoader struct {
	index    services.SearchIndex
	notFound bool
}

func (l *fakeSearchLoader) Load(context.Context, string) (services.SearchIndex, error) {
	if l.notFound {
		return nil, fakeNotExistSearchErr{}
	}
	return l.index, nil
}

type fakeSearchProvider struct {
	failEmbed bool
	gotHint   services.ModelHint
}

func (p *fakeSearchProvider) EmbedText(_ context.Context, _ string, hint services.ModelHint) ([]float32, error) {
	p.gotHint = hint
	if p.failEmbed {
		return nil, assert.AnError
	}
	return []float32{1, 0, 0}, nil
}
func (p *fakeSearchProvider) EmbedMultimodal(context.Context, string, []byte, services.ModelHint) ([]float32, error) {
	return nil, nil
}

type recordingTranslator struct {
	calls int
	out   string
	err   error
}

func (t *recordingTranslator) ToEnglish(_ context.Context, text string) (string, error) {
	t.calls++
	if t.err != nil {
		return text, t.err
	}
	if t.out != "" {
		return t.out, nil
	}
	return text, nil
}

func newSearchApp(h *SearchHandler) *fiber.App {
	app := fiber.New()
	app.Get("/search", h.Search)
	app.Post("/search", h.Search)
	return app
}

func TestSearch_StandardTriggerReturnsRankedHits(t *testing.T) {
	idx := &fakeSearchIndex{rankedHits: []services.SearchHit{{Filename: "a.jpg"}}}
	h := NewSearchHandler(&fakeSearchLoader{index: idx}, &fakeSearchProvider{}, nil)
	app := newSearchApp(h)

	req := httptest.NewRequest(fiber.MethodGet, "/search?uuid=t1&q=cats&trigger=standard", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestSearch_JapaneseTriggerVocabularyIsAccepted(t *testing.T) {
	idx := &fakeSearchIndex{shuffleHits: []services.SearchHit{{Filename: "a.jpg"}}}
	h := NewSearchHandler(&fakeSearchLoader{index: idx}, &fakeSearchProvider{}, nil)
	app := newSearchApp(h)

	req := httptest.NewRequest(fiber.MethodGet, "/search?uuid=t1&q=cats&trigger=%E3%82%B7%E3%83%A3%E3%83%83%E3%83%95%E3%83%AB", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestSearch_UnknownTriggerIsRejected(t *testing.T) {
	idx := &fakeSearchIndex{}
	h := NewSearchHandler(&fakeSearchLoader{index: idx}, &fakeSearchProvider{}, nil)
	app := newSearchApp(h)

	req := httptest.NewRequest(fiber.MethodGet, "/search?uuid=t1&q=cats&trigger=bogus", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestSearch_RandomTriggerDoesNotRequireQuery(t *testing.T) {
	idx := &fakeSearchIndex{randomHits: []services.SearchHit{{Filename: "a.jpg"}}}
	h := NewSearchHandler(&fakeSearchLoader{index: idx}, &fakeSearchProvider{}, nil)
	app := newSearchApp(h)

	req := httptest.NewRequest(fiber.MethodGet, "/search?uuid=t1&trigger=random", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestSearch_MissingQueryOnStandardTriggerIsRejected(t *testing.T) {
	idx := &fakeSearchIndex{}
	h := NewSearchHandler(&fakeSearchLoader{index: idx}, &fakeSearchProvider{}, nil)
	app := newSearchApp(h)

	req := httptest.NewRequest(fiber.MethodGet, "/search?uuid=t1&trigger=standard", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestSearch_MissingArtifactReturns404(t *testing.T) {
	h := NewSearchHandler(&fakeSearchLoader{notFound: true}, &fakeSearchProvider{}, nil)
	app := newSearchApp(h)

	req := httptest.NewRequest(fiber.MethodGet, "/search?uuid=t1&q=cats", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestSearch_EmbeddingFailureReturns500(t *testing.T) {
	idx := &fakeSearchIndex{}
	h := NewSearchHandler(&fakeSearchLoader{index: idx}, &fakeSearchProvider{failEmbed: true}, nil)
	app := newSearchApp(h)

	req := httptest.NewRequest(fiber.MethodGet, "/search?uuid=t1&q=cats", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}

func TestSearch_TranslatesQueryBeforeEmbedding(t *testing.T) {
	idx := &fakeSearchIndex{rankedHits: []services.SearchHit{{Filename: "a.jpg"}}}
	translator := &recordingTranslator{out: "cats"}
	h := NewSearchHandler(&fakeSearchLoader{index: idx}, &fakeSearchProvider{}, translator)
	app := newSearchApp(h)

	req := httptest.NewRequest(fiber.MethodGet, "/search?uuid=t1&q=%E7%8C%AB", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, translator.calls)
}

func TestSearch_FallsBackToOriginalQueryOnTranslationFailure(t *testing.T) {
	idx := &fakeSearchIndex{rankedHits: []services.SearchHit{{Filename: "a.jpg"}}}
	translator := &recordingTranslator{err: assert.AnError}
	h := NewSearchHandler(&fakeSearchLoader{index: idx}, &fakeSearchProvider{}, translator)
	app := newSearchApp(h)

	req := httptest.NewRequest(fiber.MethodGet, "/search?uuid=t1&q=cats", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestSearch_SearchModelSelectsMultimodalHint(t *testing.T) {
	idx := &fakeSearchIndex{rankedHits: []services.SearchHit{{Filename: "a.jpg"}}}
	provider := &fakeSearchProvider{}
	h := NewSearchHandler(&fakeSearchLoader{index: idx}, provider, nil)
	app := newSearchApp(h)

	req := httptest.NewRequest(fiber.MethodGet, "/search?uuid=t1&q=cats&search_model=multimodal-v4", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, services.ModelHintMultimodalV4, provider.gotHint)
}

func TestSearch_DefaultSearchModelUsesTextHint(t *testing.T) {
	idx := &fakeSearchIndex{rankedHits: []services.SearchHit{{Filename: "a.jpg"}}}
	provider := &fakeSearchProvider{}
	h := NewSearchHandler(&fakeSearchLoader{index: idx}, provider, nil)
	app := newSearchApp(h)

	req := httptest.NewRequest(fiber.MethodGet, "/search?uuid=t1&q=cats", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, services.ModelHintTextV3, provider.gotHint)
}

func TestNormalizeTrigger_LegacyShuffleAlias(t *testing.T) {
	got, ok := normalizeTrigger("類似画像検索")
	assert.True(t, ok)
	assert.Equal(t, triggerShuffle, got)
}
