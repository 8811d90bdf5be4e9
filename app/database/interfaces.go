package database

import (
	"time"
)

// NewArticle carries the fields set by ingestion. Everything else is
// owned by later pipeline stages.
type NewArticle struct {
	FeedName    string
	EntryID     string
	Title       string
	Link        string
	Published   *time.Time
	FeedSummary string
}

type ArticleRepository interface {
	InsertArticleIfAbsent(article NewArticle) (bool, error)
	ListArticlesByStatus(status string, since *time.Time) ([]Article, error)
	ListUnsentArticles() ([]Article, error)
	ListSentArticlesSince(since time.Time) ([]Article, error)
	MarkSummarized(feedName, entryID, aiSummary string, recipients []string) (bool, error)
	MarkSent(feedName, entryID string) (bool, error)
	GetArticle(feedName, entryID string) (*Article, error)
	CountArticlesByStatus() (map[string]int, error)
}

type FeedRepository interface {
	UpsertFeed(name, url string, extractContent bool) error
	GetFeed(name string) (*Feed, error)
	ListFeeds() ([]Feed, error)
}

type UserRepository interface {
	UpsertUser(username, webhook string, interests []string) error
	GetUser(username string) (*User, error)
	ListUsers() ([]User, error)
}
