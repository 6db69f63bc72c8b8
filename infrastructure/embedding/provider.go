package embedding

import (
	"context"
	"fmt"

	"drivesync/domain/services"
)

// Config selects and parameterizes one Provider variant at startup.
type Config struct {
	Backend         string // "vertex_ai" (also when empty) or "cohere"
	VertexProject   string
	VertexLocation  string
	VertexTextModel string
	VertexMMModel   string
	CohereBaseURL   string
	CohereAPIKey    string
	CohereTextModel string
	CohereImgModel  string
}

// New builds the configured Provider. Selection happens once at process
// startup (§4.3) — there is no per-request backend switching.
func New(ctx context.Context, cfg Config) (services.Provider, error) {
	switch cfg.Backend {
	case "cohere":
		return NewCohereProvider(cfg.CohereBaseURL, cfg.CohereAPIKey, cfg.CohereTextModel, cfg.CohereImgModel), nil
	case "vertex_ai", "":
		return NewVertexProvider(ctx, cfg.VertexProject, cfg.VertexLocation, cfg.VertexTextModel, cfg.VertexMMModel)
	default:
		return nil, fmt.Errorf("embedding provider: unknown backend %q", cfg.Backend)
	}
}
