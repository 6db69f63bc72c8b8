package embedding

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"drivesync/domain/services"
)

// CohereProvider implements services.Provider against the Cohere embed
// API, which has no single multimodal call: text and image are embedded
// separately and fused locally (§4.3). Client shape follows the teacher's
// faceapi.FaceClient — base URL, http.Client, typed request/response
// structs, context-aware POST helper.
type CohereProvider struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	textModel  string
	imageModel string
}

// NewCohereProvider constructs a client against Cohere's public API (or a
// compatible proxy at baseURL).
func NewCohereProvider(baseURL, apiKey, textModel, imageModel string) *CohereProvider {
	if baseURL == "" {
		baseURL = "https://api.cohere.com/v2"
	}
	if textModel == "" {
		textModel = "embed-v4.0"
	}
	if imageModel == "" {
		imageModel = "embed-v4.0"
	}
	return &CohereProvider{
		baseURL:    baseURL,
		apiKey:     apiKey,
		textModel:  textModel,
		imageModel: imageModel,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

type embedRequest struct {
	Model      string   `json:"model"`
	Texts      []string `json:"texts,omitempty"`
	Images     []string `json:"images,omitempty"`
	InputType  string   `json:"input_type"`
	EmbedTypes []string `json:"embedding_types"`
}

type embedResponse struct {
	Embeddings struct {
		Float [][]float32 `json:"float"`
	} `json:"embeddings"`
}

func (c *CohereProvider) post(ctx context.Context, body embedRequest) ([]float32, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("cohere embedding provider: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embed", bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("cohere embedding provider: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cohere embedding provider: call embed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("cohere embedding provider: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cohere embedding provider: embed error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var result embedResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("cohere embedding provider: parse response: %w", err)
	}
	if len(result.Embeddings.Float) == 0 {
		return nil, fmt.Errorf("cohere embedding provider: empty embedding in response")
	}
	return result.Embeddings.Float[0], nil
}

func (c *CohereProvider) EmbedText(ctx context.Context, text string, hint services.ModelHint) ([]float32, error) {
	model := c.textModel
	return c.post(ctx, embedRequest{
		Model:      model,
		Texts:      []string{text},
		InputType:  "search_document",
		EmbedTypes: []string{"float"},
	})
}

func (c *CohereProvider) EmbedMultimodal(ctx context.Context, text string, imageBytes []byte, hint services.ModelHint) ([]float32, error) {
	textVec, err := c.post(ctx, embedRequest{
		Model:      c.textModel,
		Texts:      []string{text},
		InputType:  "search_document",
		EmbedTypes: []string{"float"},
	})
	if err != nil {
		return nil, fmt.Errorf("cohere embedding provider: text leg: %w", err)
	}

	encoded := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(imageBytes)
	imageVec, err := c.post(ctx, embedRequest{
		Model:      c.imageModel,
		Images:     []string{encoded},
		InputType:  "image",
		EmbedTypes: []string{"float"},
	})
	if err != nil {
		return nil, fmt.Errorf("cohere embedding provider: image leg: %w", err)
	}

	return Fuse(textVec, imageVec), nil
}

var _ services.Provider = (*CohereProvider)(nil)
