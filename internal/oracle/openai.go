// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package oracle

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// OpenAIOracle calls the OpenAI vision chat API to transcribe page images.
type OpenAIOracle struct {
	model  string
	client *http.Client
}

// NewOpenAIOracle creates an oracle backed by the OpenAI vision chat API.
// An empty model falls back to the ORACLE_MODEL environment variable, then
// to gpt-4o-mini.
func NewOpenAIOracle(model string) *OpenAIOracle {
	if model == "" {
		model = os.Getenv("ORACLE_MODEL")
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAIOracle{
		model:  model,
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

// Extract sends one page image with the given prompt and returns the model
// reply text.
func (o *OpenAIOracle) Extract(ctx context.Context, image []byte, prompt string) (string, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return "", fmt.Errorf("OPENAI_API_KEY not set")
	}

	url := "https://api.openai.com/v1/chat/completions"
	imageURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(image)

	payload := map[string]interface{}{
		"model": o.model,
		"messages": []map[string]interface{}{
			{
				"role": "user",
				"content": []map[string]interface{}{
					{"type": "text", "text": prompt},
					{"type": "image_url", "image_url": map[string]string{"url": imageURL}},
				},
			},
		},
		"max_tokens":  2000,
		"temperature": 0.0, // verbatim transcription, no creativity wanted
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := o.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("OpenAI API error: %d - %s", resp.StatusCode, string(body))
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("no response from OpenAI")
	}

	return strings.TrimSpace(result.Choices[0].Message.Content), nil
}
