package services

import "context"

// ModelHint selects which underlying embedding model a provider should use.
type ModelHint string

const (
	ModelHintTextV3       ModelHint = "text-v3"
	ModelHintMultimodalV4 ModelHint = "multimodal-v4"
)

// Provider is the Embedding Provider (C3): polymorphic over the Vertex AI
// (multimodal-native) and Cohere (dual-call) backends. Both variants present
// this single interface; the fusion math that combines a multimodal result's
// two vectors into one is shared code (see Fuse), not duplicated per variant.
type Provider interface {
	// EmbedText embeds a text query. Used for every search query and for
	// the text leg of the dual-call variant.
	EmbedText(ctx context.Context, text string, hint ModelHint) ([]float32, error)

	// EmbedMultimodal embeds one (text, image) pair and returns the fused
	// vector (see Fuse) ready for storage in an EmbeddingEntry.
	EmbedMultimodal(ctx context.Context, text string, imageBytes []byte, hint ModelHint) ([]float32, error)
}
