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
)

// IngestJob polls every configured feed and stores entries that have
// not been seen before. A feed that is unreachable or malformed is
// logged and skipped; it never aborts the batch.
type IngestJob struct {
	feedRepo    database.FeedRepository
	articleRepo database.ArticleRepository
	parser      *feed.Parser
	httpClient  *http.Client
	userAgent   string
	timeout     time.Duration
}

func NewIngestJob(feedRepo database.FeedRepository, articleRepo database.ArticleRepository,
	parser *feed.Parser, httpClient *http.Client, userAgent string, timeout time.Duration) *IngestJob {
	return &IngestJob{
		feedRepo:    feedRepo,
		articleRepo: articleRepo,
		parser:      parser,
		httpClient:  httpClient,
		userAgent:   userAgent,
		timeout:     timeout,
	}
}

func (j *IngestJob) Name() string {
	return "ingest"
}

func (j *IngestJob) Run(ctx context.Context) error {
	feeds, err := j.feedRepo.ListFeeds()
	if err != nil {
		return fmt.Errorf("failed to list feeds: %w", err)
	}

	started := time.Now()
	newCount := 0
	failedFeeds := 0

	for _, f := range feeds {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		inserted, err := j.ingestFeed(ctx, f)
		if err != nil {
			slog.Warn("Feed ingestion failed, skipping", "feed", f.Name, "error", err)
			failedFeeds++
			continue
		}
		newCount += inserted
	}

	slog.Info("Task completed",
		"type", "Ingest",
		"duration", time.Since(started),
		"feeds", len(feeds),
		"failed_feeds", failedFeeds,
		"new", newCount)

	return nil
}

func (j *IngestJob) ingestFeed(ctx context.Context, f database.Feed) (int, error) {
	data, err := j.fetchFeed(ctx, f.URL)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch feed: %w", err)
	}

	_, entries, err := j.parser.Run(data)
	if err != nil {
		return 0, fmt.Errorf("failed to parse feed: %w", err)
	}

	inserted := 0
	for _, entry := range entries {
		ok, err := j.articleRepo.InsertArticleIfAbsent(database.NewArticle{
			FeedName:    f.Name,
			EntryID:     entry.EntryID,
			Title:       entry.Title,
			Link:        entry.Link,
			Published:   entry.Published,
			FeedSummary: entry.Summary,
		})
		if err != nil {
			return inserted, fmt.Errorf("failed to store entry %q: %w", entry.EntryID, err)
		}
		if ok {
			inserted++
		}
	}

	slog.Debug("Feed ingested", "feed", f.Name, "entries", len(entries), "new", inserted)

	return inserted, nil
}

func (j *IngestJob) fetchFeed(ctx context.Context, url string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", j.userAgent)

	resp, err := j.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}
