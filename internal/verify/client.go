package verify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/parislaw/stepchase/internal/config"
)

const stepCountPrompt = `You are an AI assistant specialized in verifying step counts from images and detecting potential fraud.
Analyze the image provided and extract the step count shown on the screen. Also assess the likelihood that the image has been manipulated or the step count is inaccurate.
Return ONLY a JSON object with these exact fields, no extra text:
{"stepCount": <number>, "fraudProbability": <number between 0 and 1>}`

const manipulationPrompt = `You are an expert in analyzing images for manipulation.
You are given a photo, and your job is to determine if it has been digitally altered in any way.
Return ONLY a JSON object with these exact fields, no extra text:
{"isManipulated": <true|false>, "confidence": <number between 0 and 1>, "explanation": "<why you think so>"}`

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

type chatContentPart struct {
	Type     string        `json:"type"`
	Text     string        `json:"text,omitempty"`
	ImageURL *chatImageURL `json:"image_url,omitempty"`
}

type chatImageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content interface{} `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type provider struct {
	name   string
	apiURL string
	apiKey string
	model  string
}

// Client calls OpenAI-compatible vision chat-completions endpoints.
// GLM vision is the primary provider with DeepSeek as fallback; the
// first provider that returns a parseable result wins.
type Client struct {
	providers  []provider
	httpClient *http.Client
}

func NewClient(cfg *config.Config) *Client {
	var providers []provider
	if cfg.GLMAPIKey != "" {
		providers = append(providers, provider{"glm", cfg.GLMAPIURL, cfg.GLMAPIKey, cfg.GLMVisionModel})
	}
	if cfg.DeepSeekAPIKey != "" {
		providers = append(providers, provider{"deepseek", cfg.DeepSeekAPIURL, cfg.DeepSeekAPIKey, cfg.DeepSeekModel})
	}

	timeout := cfg.AITimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &Client{
		providers:  providers,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) VerifyStepCount(ctx context.Context, photoDataURI string) (*StepVerification, error) {
	var result StepVerification
	if err := c.analyze(ctx, stepCountPrompt, photoDataURI, &result); err != nil {
		return nil, err
	}
	if result.StepCount < 0 {
		result.StepCount = 0
	}
	result.FraudProbability = clamp01(result.FraudProbability)
	return &result, nil
}

func (c *Client) DetectManipulation(ctx context.Context, photoDataURI string) (*ManipulationReport, error) {
	var result ManipulationReport
	if err := c.analyze(ctx, manipulationPrompt, photoDataURI, &result); err != nil {
		return nil, err
	}
	result.Confidence = clamp01(result.Confidence)
	return &result, nil
}

func (c *Client) analyze(ctx context.Context, prompt, photoDataURI string, out interface{}) error {
	if err := ValidatePhotoDataURI(photoDataURI); err != nil {
		return err
	}
	if len(c.providers) == 0 {
		return errors.New("no AI provider configured")
	}

	var lastErr error
	for _, p := range c.providers {
		if err := c.callProvider(ctx, p, prompt, photoDataURI, out); err != nil {
			slog.Warn("AI provider call failed", "provider", p.name, "error", err)
			lastErr = fmtProviderErr(p.name, err)
			continue
		}
		return nil
	}
	return lastErr
}

func (c *Client) callProvider(ctx context.Context, p provider, prompt, photoDataURI string, out interface{}) error {
	reqBody := chatRequest{
		Model: p.model,
		Messages: []chatMessage{
			{Role: "system", Content: prompt},
			{Role: "user", Content: []chatContentPart{
				{Type: "text", Text: "Analyze this screenshot and return the JSON result."},
				{Type: "image_url", ImageURL: &chatImageURL{URL: photoDataURI, Detail: "auto"}},
			}},
		},
		Temperature: 0.1,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("AI API error: status %d", resp.StatusCode)
	}

	var completion chatResponse
	if err := json.Unmarshal(respBody, &completion); err != nil {
		return err
	}
	if len(completion.Choices) == 0 {
		return errors.New("no response from AI")
	}

	var content string
	switch v := completion.Choices[0].Message.Content.(type) {
	case string:
		content = v
	default:
		contentBytes, err := json.Marshal(v)
		if err != nil {
			return errors.New("failed to extract content from AI response")
		}
		content = string(contentBytes)
	}

	return parseModelJSON(content, out)
}

// parseModelJSON strips markdown fences the model sometimes wraps its
// answer in, then falls back to slicing the outermost braces when loose
// prose surrounds the object.
func parseModelJSON(content string, out interface{}) error {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```json") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimSuffix(content, "```")
		content = strings.TrimSpace(content)
	} else if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(content, "```")
		content = strings.TrimSpace(content)
	}

	if err := json.Unmarshal([]byte(content), out); err != nil {
		start := strings.Index(content, "{")
		end := strings.LastIndex(content, "}")
		if start >= 0 && end > start {
			if err2 := json.Unmarshal([]byte(content[start:end+1]), out); err2 != nil {
				return fmt.Errorf("failed to parse verification result: %w", err2)
			}
			return nil
		}
		return fmt.Errorf("failed to parse verification result: %w", err)
	}
	return nil
}
