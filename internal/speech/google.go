// Package speech provides text-to-speech synthesizer clients.
package speech

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultEndpoint = "https://texttospeech.googleapis.com/v1/text:synthesize"

// GoogleClient synthesizes words via the Google Cloud TTS REST API.
type GoogleClient struct {
	apiKey     string
	langCode   string
	endpoint   string
	httpClient *http.Client
}

func NewGoogleClient(apiKey, langCode string) *GoogleClient {
	if langCode == "" {
		langCode = "cmn-CN"
	}
	return &GoogleClient{
		apiKey:   apiKey,
		langCode: langCode,
		endpoint: defaultEndpoint,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// WithEndpoint overrides the API endpoint (tests).
func (c *GoogleClient) WithEndpoint(endpoint string) *GoogleClient {
	c.endpoint = endpoint
	return c
}

// Synthesize returns MP3 audio for the word.
func (c *GoogleClient) Synthesize(ctx context.Context, word string) ([]byte, error) {
	reqBody := map[string]interface{}{
		"input": map[string]string{
			"text": word,
		},
		"voice": map[string]interface{}{
			"languageCode": c.langCode,
			"ssmlGender":   "FEMALE",
		},
		"audioConfig": map[string]string{
			"audioEncoding": "MP3",
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"?key="+c.apiKey, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tts request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tts api error %d: %s", resp.StatusCode, string(body))
	}

	var result struct {
		AudioContent string `json:"audioContent"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	audio, err := base64.StdEncoding.DecodeString(result.AudioContent)
	if err != nil {
		return nil, fmt.Errorf("decode audio: %w", err)
	}
	return audio, nil
}

// Disabled is a synthesizer that always fails, for deployments without a TTS
// key. The playback coordinator degrades to silence.
type Disabled struct{}

func (Disabled) Synthesize(context.Context, string) ([]byte, error) {
	return nil, errors.New("speech synthesis disabled")
}
