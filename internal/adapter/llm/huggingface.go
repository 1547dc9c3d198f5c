// Package llm holds the clients for hosted text-generation endpoints.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

const defaultHFBaseURL = "https://api-inference.huggingface.co"

// HuggingFaceClient calls the hosted inference API of a text-generation model.
type HuggingFaceClient struct {
	baseURL     string
	model       string
	tokenEnv    string
	temperature float64
	maxTokens   int
	client      *http.Client
}

type hfRequest struct {
	Inputs     string       `json:"inputs"`
	Parameters hfParameters `json:"parameters"`
}

type hfParameters struct {
	Temperature    float64 `json:"temperature"`
	MaxNewTokens   int     `json:"max_new_tokens"`
	ReturnFullText bool    `json:"return_full_text"`
}

type hfGeneration struct {
	GeneratedText string `json:"generated_text"`
}

type hfError struct {
	Error string `json:"error"`
}

func NewHuggingFaceClient(opts Options) *HuggingFaceClient {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = defaultHFBaseURL
	}
	return &HuggingFaceClient{
		baseURL:     strings.TrimRight(baseURL, "/"),
		model:       opts.Model,
		tokenEnv:    opts.TokenEnv,
		temperature: opts.Temperature,
		maxTokens:   opts.MaxNewTokens,
		client:      &http.Client{Timeout: opts.Timeout},
	}
}

// Generate sends one prompt and returns the generated continuation.
// The token is looked up on every call; a missing token is not an error here.
func (c *HuggingFaceClient) Generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(hfRequest{
		Inputs: prompt,
		Parameters: hfParameters{
			Temperature:    c.temperature,
			MaxNewTokens:   c.maxTokens,
			ReturnFullText: false,
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/models/"+c.model, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token := os.Getenv(c.tokenEnv); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("inference call: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp hfError
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			return "", fmt.Errorf("inference error %d: %s", resp.StatusCode, errResp.Error)
		}
		return "", fmt.Errorf("inference error %d: %s", resp.StatusCode, string(respBody))
	}

	var generations []hfGeneration
	if err := json.Unmarshal(respBody, &generations); err != nil {
		// some deployments answer with a bare object
		var single hfGeneration
		if json.Unmarshal(respBody, &single) != nil {
			return "", fmt.Errorf("unmarshal response: %w", err)
		}
		generations = []hfGeneration{single}
	}
	if len(generations) == 0 {
		return "", fmt.Errorf("empty response from model")
	}

	return strings.TrimSpace(generations[0].GeneratedText), nil
}

func (c *HuggingFaceClient) ModelName() string {
	return c.model
}
