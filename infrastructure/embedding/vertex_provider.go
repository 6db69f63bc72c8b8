package embedding

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"drivesync/domain/services"
)

// VertexProvider implements services.Provider against Vertex AI's
// multimodal-native embedding model. It generalizes the teacher's
// genai.NewClient construction idiom (infrastructure/gemini/gemini_client.go)
// from generative text to the embedding endpoint.
type VertexProvider struct {
	client          *genai.Client
	textModel       string
	multimodalModel string
}

// NewVertexProvider constructs a provider against a Vertex AI project.
// Credential acquisition (application-default credentials, workload
// identity) is the caller's responsibility.
func NewVertexProvider(ctx context.Context, project, location, textModel, multimodalModel string) (*VertexProvider, error) {
	if project == "" {
		return nil, fmt.Errorf("vertex embedding provider: project is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  project,
		Location: location,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, fmt.Errorf("vertex embedding provider: create client: %w", err)
	}

	if textModel == "" {
		textModel = "text-embedding-005"
	}
	if multimodalModel == "" {
		multimodalModel = "multimodalembedding@001"
	}

	return &VertexProvider{client: client, textModel: textModel, multimodalModel: multimodalModel}, nil
}

func (p *VertexProvider) modelFor(hint services.ModelHint, fallback string) string {
	switch hint {
	case services.ModelHintTextV3:
		return p.textModel
	case services.ModelHintMultimodalV4:
		return p.multimodalModel
	default:
		return fallback
	}
}

func (p *VertexProvider) EmbedText(ctx context.Context, text string, hint services.ModelHint) ([]float32, error) {
	model := p.modelFor(hint, p.textModel)
	contents := []*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}

	result, err := p.client.Models.EmbedContent(ctx, model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("vertex embedding provider: embed text: %w", err)
	}
	return firstEmbeddingValues(result)
}

// EmbedMultimodal issues one call carrying both modalities — the
// multimodal model returns one embedding per content part, image first,
// text second — and fuses the pair per the shared Fuse function (§4.3).
func (p *VertexProvider) EmbedMultimodal(ctx context.Context, text string, imageBytes []byte, hint services.ModelHint) ([]float32, error) {
	model := p.modelFor(hint, p.multimodalModel)

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{genai.NewPartFromBytes(imageBytes, "image/jpeg")}, genai.RoleUser),
		genai.NewContentFromText(text, genai.RoleUser),
	}

	result, err := p.client.Models.EmbedContent(ctx, model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("vertex embedding provider: embed multimodal: %w", err)
	}
	if result == nil || len(result.Embeddings) < 2 {
		return nil, fmt.Errorf("vertex embedding provider: expected two embeddings in response")
	}

	imageVec := result.Embeddings[0].Values
	textVec := result.Embeddings[1].Values
	return Fuse(textVec, imageVec), nil
}

func firstEmbeddingValues(result *genai.EmbedContentResponse) ([]float32, error) {
	if result == nil || len(result.Embeddings) == 0 {
		return nil, fmt.Errorf("vertex embedding provider: empty embedding response")
	}
	return result.Embeddings[0].Values, nil
}

var _ services.Provider = (*VertexProvider)(nil)
