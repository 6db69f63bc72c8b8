package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"drivesync/domain/services"
	"drivesync/pkg/logger"
)

// SearchHandler builds a per-request Search Index for one tenant and
// returns ranked, shuffled, or random results (§4.8).
type SearchHandler struct {
	loader     services.SearchIndexLoader
	provider   services.Provider
	translator services.Translator
}

func NewSearchHandler(loader services.SearchIndexLoader, provider services.Provider, translator services.Translator) *SearchHandler {
	if translator == nil {
		translator = services.NoopTranslator{}
	}
	return &SearchHandler{loader: loader, provider: provider, translator: translator}
}

// Internal trigger tags the Search Index itself operates on.
const (
	triggerStandard = "standard"
	triggerShuffle  = "shuffle"
	triggerRandom   = "random"
)

// normalizeTrigger accepts the internal tags alongside the original
// Japanese vocabulary (and its legacy alias) at this HTTP boundary only —
// nothing past this function ever sees the Japanese strings.
func normalizeTrigger(raw string) (string, bool) {
	switch raw {
	case triggerStandard, "スタンダード":
		return triggerStandard, true
	case triggerShuffle, "シャッフル", "類似画像検索":
		return triggerShuffle, true
	case triggerRandom, "ランダム":
		return triggerRandom, true
	default:
		return "", false
	}
}

type searchRequest struct {
	UUID         string   `json:"uuid"`
	Q            string   `json:"q"`
	TopK         int      `json:"top_k"`
	Trigger      string   `json:"trigger"`
	TopN         int      `json:"top_n"`
	SearchModel  string   `json:"search_model"`
	ExcludeFiles []string `json:"exclude_files"`
}

func parseSearchRequest(c *fiber.Ctx) (searchRequest, error) {
	var req searchRequest
	if c.Method() == fiber.MethodPost {
		if err := c.BodyParser(&req); err != nil {
			return req, err
		}
	} else {
		req.UUID = c.Query("uuid")
		req.Q = c.Query("q")
		req.TopK = c.QueryInt("top_k", 10)
		req.Trigger = c.Query("trigger", triggerStandard)
		req.TopN = c.QueryInt("top_n", 0)
		req.SearchModel = c.Query("search_model")
	}
	if req.TopK <= 0 {
		req.TopK = 10
	}
	return req, nil
}

// translateQuery attempts to translate q to English before embedding,
// falling back to the original text on any translation failure.
func (h *SearchHandler) translateQuery(ctx context.Context, q, uuid string) string {
	en, err := h.translator.ToEnglish(ctx, q)
	if err != nil {
		logger.Warn(logger.CategorySearch, "translate_failed", "query translation failed, using original text", map[string]interface{}{"uuid": uuid})
		return q
	}
	return en
}

// Search handles GET and POST /search.
func (h *SearchHandler) Search(c *fiber.Ctx) error {
	req, err := parseSearchRequest(c)
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "invalid_request", "malformed request body")
	}
	if req.UUID == "" {
		return errorJSON(c, fiber.StatusBadRequest, "invalid_request", "uuid is required")
	}

	trigger, ok := normalizeTrigger(req.Trigger)
	if !ok {
		return errorJSON(c, fiber.StatusBadRequest, "invalid_trigger", "trigger must be standard, shuffle, or random")
	}
	if trigger != triggerRandom && req.Q == "" {
		return errorJSON(c, fiber.StatusBadRequest, "invalid_request", "q is required for standard and shuffle search")
	}

	ctx := c.UserContext()
	index, err := h.loader.Load(ctx, req.UUID)
	if err != nil {
		if services.IsNotExist(err) {
			return errorJSON(c, fiber.StatusNotFound, "not_found", "no artifact for this uuid")
		}
		logger.Error(logger.CategorySearch, "load_failed", "failed to load search index", err, map[string]interface{}{"uuid": req.UUID})
		return errorJSON(c, fiber.StatusInternalServerError, "load_failed", "failed to load search index")
	}

	exclude := make(map[string]struct{}, len(req.ExcludeFiles))
	for _, f := range req.ExcludeFiles {
		exclude[f] = struct{}{}
	}

	hint := services.ModelHintTextV3
	if req.SearchModel == string(services.ModelHintMultimodalV4) {
		hint = services.ModelHintMultimodalV4
	}

	var hits []services.SearchHit
	switch trigger {
	case triggerRandom:
		hits = index.SearchRandom(req.TopK, exclude)
	case triggerShuffle:
		q, embedErr := h.provider.EmbedText(ctx, h.translateQuery(ctx, req.Q, req.UUID), hint)
		if embedErr != nil {
			logger.Error(logger.CategorySearch, "embed_query_failed", "failed to embed search query", embedErr, map[string]interface{}{"uuid": req.UUID})
			return errorJSON(c, fiber.StatusInternalServerError, "embedding_failure", "failed to embed search query")
		}
		hits = index.SearchShuffle(q, req.TopK, req.TopN, exclude)
	default:
		q, embedErr := h.provider.EmbedText(ctx, h.translateQuery(ctx, req.Q, req.UUID), hint)
		if embedErr != nil {
			logger.Error(logger.CategorySearch, "embed_query_failed", "failed to embed search query", embedErr, map[string]interface{}{"uuid": req.UUID})
			return errorJSON(c, fiber.StatusInternalServerError, "embedding_failure", "failed to embed search query")
		}
		hits = index.SearchRanked(q, req.TopK, exclude)
	}

	return c.JSON(fiber.Map{
		"results": hits,
		"count":   len(hits),
	})
}
