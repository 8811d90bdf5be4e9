package summarize

import (
	"context"
)

// ArticleInput is the per-article material handed to the language
// model. Content is optional extracted page text.
type ArticleInput struct {
	Title       string
	Link        string
	Published   string
	FeedSummary string
	Content     string
}

// UserInterest pairs a username with that user's stated topics.
type UserInterest struct {
	Username  string
	Interests []string
}

// Result is the structured output contract: a Markdown summary plus
// the usernames the article should be delivered to. Recipients may be
// empty; the summary never is.
type Result struct {
	Summary    string   `json:"summary"`
	Recipients []string `json:"recipients"`
}

// DigestEntry is one delivered article inside a daily digest request.
type DigestEntry struct {
	Title     string
	Link      string
	AISummary string
}

// ArticleSummarizer produces a summary and recipient list for one
// article. Recipient selection policy lives entirely behind this
// interface so tests can swap in a deterministic matcher.
type ArticleSummarizer interface {
	SummarizeArticle(ctx context.Context, article ArticleInput, users []UserInterest) (Result, error)
}

// DigestBuilder consolidates a user's delivered articles into a single
// Markdown digest.
type DigestBuilder interface {
	BuildDigest(ctx context.Context, user UserInterest, entries []DigestEntry) (string, error)
}
