package summarize

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

var _ ArticleSummarizer = (*Gateway)(nil)
var _ DigestBuilder = (*Gateway)(nil)

// Gateway wraps an OpenAI-compatible chat completion endpoint. All
// model parameters are threaded through the constructor; there is no
// process-wide client state.
type Gateway struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	timeout     time.Duration
}

// NewGateway creates a gateway for any OpenAI-compatible API. Set
// baseURL to a non-empty string to point at a local server (LM Studio,
// llama.cpp, Ollama's /v1 endpoint, etc.); leave empty for
// api.openai.com.
func NewGateway(apiKey, baseURL, model string, temperature float64, maxTokens int, timeout time.Duration) *Gateway {
	clientCfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientCfg.BaseURL = baseURL
	}

	return &Gateway{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       model,
		temperature: float32(temperature),
		maxTokens:   maxTokens,
		timeout:     timeout,
	}
}

// SummarizeArticle asks the model for a Markdown summary and a
// recipient list for a single article. Returned usernames are filtered
// against the roster; the model is not a trusted input source.
func (g *Gateway) SummarizeArticle(ctx context.Context, article ArticleInput, users []UserInterest) (Result, error) {
	content, err := g.complete(ctx, systemPrompt, buildArticlePrompt(article, users), true)
	if err != nil {
		return Result{}, err
	}

	var result Result
	if err := json.Unmarshal([]byte(stripCodeFence(content)), &result); err != nil {
		return Result{}, fmt.Errorf("invalid structured output: %w", err)
	}

	if strings.TrimSpace(result.Summary) == "" {
		return Result{}, fmt.Errorf("structured output has empty summary")
	}

	result.Recipients = filterKnownUsernames(result.Recipients, users)

	return result, nil
}

// BuildDigest consolidates a user's delivered articles into one
// Markdown digest. Plain text output, no structural contract.
func (g *Gateway) BuildDigest(ctx context.Context, user UserInterest, entries []DigestEntry) (string, error) {
	content, err := g.complete(ctx, digestSystemPrompt, buildDigestPrompt(user, entries), false)
	if err != nil {
		return "", err
	}

	digest := strings.TrimSpace(content)
	if digest == "" {
		return "", fmt.Errorf("model returned an empty digest")
	}

	return digest, nil
}

func (g *Gateway) complete(ctx context.Context, system, user string, jsonOutput bool) (string, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model:       g.model,
		Temperature: g.temperature,
		MaxTokens:   g.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	}

	if jsonOutput {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := g.client.CreateChatCompletion(timeoutCtx, req)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from model %q", g.model)
	}

	return resp.Choices[0].Message.Content, nil
}

func filterKnownUsernames(recipients []string, users []UserInterest) []string {
	known := make(map[string]bool, len(users))
	for _, u := range users {
		known[u.Username] = true
	}

	filtered := make([]string, 0, len(recipients))
	seen := make(map[string]bool, len(recipients))
	for _, name := range recipients {
		if !known[name] {
			slog.Warn("Dropping unknown recipient from model output", "username", name)
			continue
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		filtered = append(filtered, name)
	}

	return filtered
}

// stripCodeFence unwraps ```json ... ``` blocks some models emit even
// in JSON output mode.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")

	return strings.TrimSpace(s)
}
