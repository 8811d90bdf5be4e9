package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/feedscribe/feedscribe/app/database"
	"github.com/feedscribe/feedscribe/app/summarize"
)

// TextSender delivers standalone text to a webhook.
type TextSender interface {
	SendText(ctx context.Context, webhook, title, text string) error
}

// DigestJob builds a per-user digest of the articles delivered to that
// user within the window and posts it to the user's webhook. Intended
// to run once a day.
type DigestJob struct {
	articleRepo database.ArticleRepository
	userRepo    database.UserRepository
	builder     summarize.DigestBuilder
	sender      TextSender
	window      time.Duration
}

func NewDigestJob(articleRepo database.ArticleRepository, userRepo database.UserRepository,
	builder summarize.DigestBuilder, sender TextSender, window time.Duration) *DigestJob {
	return &DigestJob{
		articleRepo: articleRepo,
		userRepo:    userRepo,
		builder:     builder,
		sender:      sender,
		window:      window,
	}
}

func (j *DigestJob) Name() string {
	return "daily_digest"
}

func (j *DigestJob) Run(ctx context.Context) error {
	since := time.Now().UTC().Add(-j.window)

	articles, err := j.articleRepo.ListSentArticlesSince(since)
	if err != nil {
		return fmt.Errorf("failed to list sent articles: %w", err)
	}
	if len(articles) == 0 {
		return nil
	}

	users, err := j.userRepo.ListUsers()
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	started := time.Now()
	delivered := 0

	for _, user := range users {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := j.digestForUser(ctx, user, articles); err != nil {
			slog.Warn("Digest failed for user", "username", user.Username, "error", err)
			continue
		}
		delivered++
	}

	slog.Info("Task completed",
		"type", "DailyDigest",
		"duration", time.Since(started),
		"articles", len(articles),
		"users", delivered)

	return nil
}

func (j *DigestJob) digestForUser(ctx context.Context, user database.User, articles []database.Article) error {
	var entries []summarize.DigestEntry
	for _, article := range articles {
		if !slices.Contains(article.Recipients, user.Username) {
			continue
		}
		entries = append(entries, summarize.DigestEntry{
			Title:     article.Title,
			Link:      article.Link,
			AISummary: article.AISummary,
		})
	}
	if len(entries) == 0 {
		return nil
	}

	if user.Webhook == "" {
		return fmt.Errorf("no webhook configured")
	}

	digest, err := j.builder.BuildDigest(ctx, summarize.UserInterest{
		Username:  user.Username,
		Interests: user.Interests,
	}, entries)
	if err != nil {
		return fmt.Errorf("failed to build digest: %w", err)
	}

	if err := j.sender.SendText(ctx, user.Webhook, j.Name(), digest); err != nil {
		return fmt.Errorf("failed to deliver digest: %w", err)
	}

	return nil
}
