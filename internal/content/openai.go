package content

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"vocab-drill-service/internal/domain"
)

const systemPrompt = `You create vocabulary for a children's language learning game.
Given a topic, respond with a JSON array of 8 objects, each with the keys
"word" (Mandarin), "translation" (English), "pinyin", and "emoji" (a single
emoji). Respond with the JSON array only, no prose.`

// OpenAIGenerator calls an OpenAI-compatible chat completions endpoint to
// generate vocabulary for a topic.
type OpenAIGenerator struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

func NewOpenAIGenerator(baseURL, apiKey, model string) *OpenAIGenerator {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAIGenerator{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float32       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Generate asks the model for a topic's vocabulary and validates the result.
func (g *OpenAIGenerator) Generate(ctx context.Context, topic string) ([]domain.VocabularyItem, error) {
	reqBody := chatRequest{
		Model: g.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: "Topic: " + topic},
		},
		Temperature: 0.7,
	}
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request: %v", domain.ErrContentGeneration, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", domain.ErrContentGeneration, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrContentGeneration, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", domain.ErrContentGeneration, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: api error %d: %s", domain.ErrContentGeneration, resp.StatusCode, string(body))
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: parse response: %v", domain.ErrContentGeneration, err)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("%w: empty completion", domain.ErrContentGeneration)
	}

	items, err := parseItems(parsed.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}
	if err := domain.ValidateItems(items); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrContentGeneration, err)
	}
	return items, nil
}

// parseItems extracts the JSON array from the completion text, tolerating
// markdown code fences around it.
func parseItems(text string) ([]domain.VocabularyItem, error) {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("%w: no JSON array in completion", domain.ErrContentGeneration)
	}
	var items []domain.VocabularyItem
	if err := json.Unmarshal([]byte(text[start:end+1]), &items); err != nil {
		return nil, fmt.Errorf("%w: unmarshal items: %v", domain.ErrContentGeneration, err)
	}
	return items, nil
}
