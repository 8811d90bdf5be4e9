package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/feedscribe/feedscribe/app/database"
	"github.com/feedscribe/feedscribe/app/dispatch"
)

// ArticleDispatcher delivers one summarized article to its recipients.
type ArticleDispatcher interface {
	DispatchArticle(ctx context.Context, article database.Article) dispatch.ArticleResult
}

// DispatchJob delivers every summarized-but-unsent article. An article
// is marked sent only when every recipient succeeded; on any failure
// it stays summarized and unsent so the next run retries dispatch
// without re-summarizing.
type DispatchJob struct {
	articleRepo database.ArticleRepository
	engine      ArticleDispatcher
}

func NewDispatchJob(articleRepo database.ArticleRepository, engine ArticleDispatcher) *DispatchJob {
	return &DispatchJob{
		articleRepo: articleRepo,
		engine:      engine,
	}
}

func (j *DispatchJob) Name() string {
	return "dispatch"
}

func (j *DispatchJob) Run(ctx context.Context) error {
	articles, err := j.articleRepo.ListUnsentArticles()
	if err != nil {
		return fmt.Errorf("failed to list unsent articles: %w", err)
	}
	if len(articles) == 0 {
		return nil
	}

	started := time.Now()
	sent := 0
	retained := 0

	for _, article := range articles {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		result := j.engine.DispatchArticle(ctx, article)

		if !result.AllDelivered() {
			retained++
			for _, rec := range result.Recipients {
				if !rec.Delivered {
					slog.Warn("Recipient delivery failed, article retained for retry",
						"feed", article.FeedName, "entry_id", article.EntryID,
						"username", rec.Username, "reason", rec.Reason)
				}
			}
			continue
		}

		ok, err := j.articleRepo.MarkSent(article.FeedName, article.EntryID)
		if err != nil {
			slog.Warn("Failed to mark article sent, retained for retry",
				"feed", article.FeedName, "entry_id", article.EntryID, "error", err)
			retained++
			continue
		}
		if !ok {
			slog.Debug("Article no longer in expected status, skipping",
				"feed", article.FeedName, "entry_id", article.EntryID)
			continue
		}

		sent++
		slog.Info("Article dispatched",
			"feed", article.FeedName, "entry_id", article.EntryID,
			"recipients", article.Recipients)
	}

	slog.Info("Task completed",
		"type", "Dispatch",
		"duration", time.Since(started),
		"total", len(articles),
		"sent", sent,
		"retained", retained)

	return nil
}
