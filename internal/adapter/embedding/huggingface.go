package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

const defaultHFBaseURL = "https://api-inference.huggingface.co"

// HuggingFaceEmbedder calls the hosted feature-extraction pipeline of a
// sentence-transformers model. The token is read from the environment on
// every call.
type HuggingFaceEmbedder struct {
	tokenEnv  string
	model     string
	baseURL   string
	dimension int
	client    *http.Client
}

type featureExtractionRequest struct {
	Inputs  []string          `json:"inputs"`
	Options featureExtraction `json:"options"`
}

type featureExtraction struct {
	WaitForModel bool `json:"wait_for_model"`
}

func NewHuggingFaceEmbedder(tokenEnv, model, baseURL string, dimension int) *HuggingFaceEmbedder {
	if baseURL == "" {
		baseURL = defaultHFBaseURL
	}
	if dimension <= 0 {
		dimension = 384
	}
	return &HuggingFaceEmbedder{
		tokenEnv:  tokenEnv,
		model:     model,
		baseURL:   baseURL,
		dimension: dimension,
		client:    &http.Client{Timeout: 120 * time.Second},
	}
}

func (e *HuggingFaceEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	jsonData, err := json.Marshal(featureExtractionRequest{
		Inputs:  texts,
		Options: featureExtraction{WaitForModel: true},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/pipeline/feature-extraction/%s", e.baseURL, e.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token := os.Getenv(e.tokenEnv); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, preview(body))
	}

	var embeddings [][]float32
	if err := json.Unmarshal(body, &embeddings); err != nil {
		return nil, fmt.Errorf("failed to parse response (body: %s): %w", preview(body), err)
	}
	if len(embeddings) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(embeddings))
	}

	return embeddings, nil
}

func (e *HuggingFaceEmbedder) Dimension() int {
	return e.dimension
}

func (e *HuggingFaceEmbedder) ModelName() string {
	return e.model
}
