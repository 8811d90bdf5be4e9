package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/feedscribe/feedscribe/app/database"
)

// RecipientResult is the per-recipient delivery outcome. Failures are
// values, not errors; the caller aggregates them.
type RecipientResult struct {
	Username  string
	Delivered bool
	Reason    string
}

// ArticleResult aggregates one article's delivery attempt.
type ArticleResult struct {
	FeedName   string
	EntryID    string
	Recipients []RecipientResult
}

// AllDelivered reports whether every listed recipient received the
// article. An article with zero recipients is trivially delivered.
func (r ArticleResult) AllDelivered() bool {
	for _, rec := range r.Recipients {
		if !rec.Delivered {
			return false
		}
	}
	return true
}

type payload struct {
	ID               string   `json:"id"`
	FeedName         string   `json:"feed_name"`
	Title            string   `json:"title"`
	Link             string   `json:"link"`
	Published        *string  `json:"published"`
	FeedSummary      string   `json:"feed_summary"`
	AISummary        string   `json:"ai_summary"`
	MatchedInterests []string `json:"matched_interests"`
	Part             int      `json:"part"`
	Parts            int      `json:"parts"`
}

// Engine delivers summarized articles to recipient webhooks. Summaries
// over the word limit go out as sequential labeled chunks with a short
// delay between calls to respect target rate limits.
type Engine struct {
	userRepo       database.UserRepository
	httpClient     *http.Client
	chunkWordLimit int
	chunkDelay     time.Duration
	userAgent      string
}

func NewEngine(userRepo database.UserRepository, httpClient *http.Client,
	chunkWordLimit int, chunkDelay time.Duration, userAgent string) *Engine {
	return &Engine{
		userRepo:       userRepo,
		httpClient:     httpClient,
		chunkWordLimit: chunkWordLimit,
		chunkDelay:     chunkDelay,
		userAgent:      userAgent,
	}
}

// DispatchArticle delivers one article to each of its recipients. One
// recipient's failure never blocks the others.
func (e *Engine) DispatchArticle(ctx context.Context, article database.Article) ArticleResult {
	result := ArticleResult{
		FeedName:   article.FeedName,
		EntryID:    article.EntryID,
		Recipients: make([]RecipientResult, 0, len(article.Recipients)),
	}

	for _, username := range article.Recipients {
		result.Recipients = append(result.Recipients, e.deliverToRecipient(ctx, article, username))
	}

	return result
}

func (e *Engine) deliverToRecipient(ctx context.Context, article database.Article, username string) RecipientResult {
	user, err := e.userRepo.GetUser(username)
	if err != nil {
		slog.Warn("Failed to look up recipient", "username", username, "error", err)
		return RecipientResult{Username: username, Reason: fmt.Sprintf("user lookup failed: %v", err)}
	}
	if user == nil || user.Webhook == "" {
		slog.Warn("Recipient not found or has no webhook configured", "username", username)
		return RecipientResult{Username: username, Reason: "no webhook configured"}
	}

	chunks := LabelChunks(SplitWords(article.AISummary, e.chunkWordLimit))

	var published *string
	if article.Published != nil {
		formatted := article.Published.Format(time.RFC3339)
		published = &formatted
	}

	for i, chunk := range chunks {
		if i > 0 && e.chunkDelay > 0 {
			select {
			case <-ctx.Done():
				return RecipientResult{Username: username, Reason: ctx.Err().Error()}
			case <-time.After(e.chunkDelay):
			}
		}

		body := payload{
			ID:               article.Link,
			FeedName:         article.FeedName,
			Title:            article.Title,
			Link:             article.Link,
			Published:        published,
			FeedSummary:      article.FeedSummary,
			AISummary:        chunk,
			MatchedInterests: article.Recipients,
			Part:             i + 1,
			Parts:            len(chunks),
		}

		if err := e.post(ctx, user.Webhook, body); err != nil {
			slog.Warn("Webhook delivery failed",
				"username", username, "feed", article.FeedName,
				"entry_id", article.EntryID, "part", i+1, "error", err)
			return RecipientResult{Username: username, Reason: err.Error()}
		}
	}

	return RecipientResult{Username: username, Delivered: true}
}

// SendText delivers standalone text (e.g. a daily digest) to a webhook,
// chunked the same way as article summaries.
func (e *Engine) SendText(ctx context.Context, webhook, title, text string) error {
	chunks := LabelChunks(SplitWords(text, e.chunkWordLimit))

	for i, chunk := range chunks {
		if i > 0 && e.chunkDelay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(e.chunkDelay):
			}
		}

		body := payload{
			Title:     title,
			AISummary: chunk,
			Part:      i + 1,
			Parts:     len(chunks),
		}

		if err := e.post(ctx, webhook, body); err != nil {
			return err
		}
	}

	return nil
}

func (e *Engine) post(ctx context.Context, url string, body payload) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", e.userAgent)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	return nil
}
