package tasks

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/feedscribe/feedscribe/app/database"
	"github.com/feedscribe/feedscribe/app/feed"
	"github.com/feedscribe/feedscribe/app/summarize"
)

// SummarizeJob walks every article still in status 'new', asks the
// model for a summary and recipient list, and commits each success
// immediately. Articles are processed one at a time: a call returning
// N outputs for N inputs is not reliably alignable when the model
// reorders or drops items.
type SummarizeJob struct {
	articleRepo database.ArticleRepository
	userRepo    database.UserRepository
	feedRepo    database.FeedRepository
	summarizer  summarize.ArticleSummarizer
	extractor   *feed.ContentExtractor
	httpClient  *http.Client
	userAgent   string
	timeout     time.Duration
}

func NewSummarizeJob(articleRepo database.ArticleRepository, userRepo database.UserRepository,
	feedRepo database.FeedRepository, summarizer summarize.ArticleSummarizer,
	extractor *feed.ContentExtractor, httpClient *http.Client,
	userAgent string, timeout time.Duration) *SummarizeJob {
	return &SummarizeJob{
		articleRepo: articleRepo,
		userRepo:    userRepo,
		feedRepo:    feedRepo,
		summarizer:  summarizer,
		extractor:   extractor,
		httpClient:  httpClient,
		userAgent:   userAgent,
		timeout:     timeout,
	}
}

func (j *SummarizeJob) Name() string {
	return "summarize"
}

func (j *SummarizeJob) Run(ctx context.Context) error {
	articles, err := j.articleRepo.ListArticlesByStatus(database.StatusNew, nil)
	if err != nil {
		return fmt.Errorf("failed to list new articles: %w", err)
	}
	if len(articles) == 0 {
		return nil
	}

	users, err := j.userRepo.ListUsers()
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	roster := make([]summarize.UserInterest, 0, len(users))
	for _, u := range users {
		roster = append(roster, summarize.UserInterest{
			Username:  u.Username,
			Interests: u.Interests,
		})
	}

	extractable, err := j.extractableFeeds()
	if err != nil {
		return fmt.Errorf("failed to list feeds: %w", err)
	}

	started := time.Now()
	summarized := 0
	failed := 0

	for _, article := range articles {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		result, err := j.summarizer.SummarizeArticle(ctx, j.buildInput(ctx, article, extractable), roster)
		if err != nil {
			// The article stays 'new'; the next run retries it.
			slog.Warn("Summarization failed, article left for retry",
				"feed", article.FeedName, "entry_id", article.EntryID, "error", err)
			failed++
			continue
		}

		ok, err := j.articleRepo.MarkSummarized(article.FeedName, article.EntryID,
			result.Summary, result.Recipients)
		if err != nil {
			slog.Warn("Failed to store summary, article left for retry",
				"feed", article.FeedName, "entry_id", article.EntryID, "error", err)
			failed++
			continue
		}
		if !ok {
			slog.Debug("Article no longer in expected status, skipping",
				"feed", article.FeedName, "entry_id", article.EntryID)
			continue
		}

		summarized++
		slog.Debug("Article summarized",
			"feed", article.FeedName, "entry_id", article.EntryID,
			"recipients", len(result.Recipients))
	}

	slog.Info("Task completed",
		"type", "Summarize",
		"duration", time.Since(started),
		"total", len(articles),
		"summarized", summarized,
		"failed", failed)

	return nil
}

func (j *SummarizeJob) buildInput(ctx context.Context, article database.Article, extractable map[string]bool) summarize.ArticleInput {
	input := summarize.ArticleInput{
		Title:       article.Title,
		Link:        article.Link,
		FeedSummary: article.FeedSummary,
	}

	if article.Published != nil {
		input.Published = article.Published.Format(time.RFC3339)
	}

	if extractable[article.FeedName] && article.Link != "" {
		content, err := j.extractContent(ctx, article.Link)
		if err != nil {
			// Extraction only enriches the prompt; the feed summary
			// still carries the article.
			slog.Debug("Content extraction failed", "link", article.Link, "error", err)
		} else {
			input.Content = content
		}
	}

	return input
}

func (j *SummarizeJob) extractableFeeds() (map[string]bool, error) {
	feeds, err := j.feedRepo.ListFeeds()
	if err != nil {
		return nil, err
	}

	extractable := make(map[string]bool, len(feeds))
	for _, f := range feeds {
		if f.ExtractContent {
			extractable[f.Name] = true
		}
	}

	return extractable, nil
}

func (j *SummarizeJob) extractContent(ctx context.Context, url string) (string, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", j.userAgent)

	resp, err := j.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch article page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	return j.extractor.Run(data)
}
