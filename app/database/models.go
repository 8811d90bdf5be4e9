package database

import (
	"time"
)

// Article statuses form the pipeline state machine. An article only
// moves forward: new -> summarized -> sent.
const (
	StatusNew        = "new"
	StatusSummarized = "summarized"
	StatusSent       = "sent"
)

type Article struct {
	ID          int64
	FeedName    string // Identity: (FeedName, EntryID) is the durable dedup key
	EntryID     string
	Title       string
	Link        string
	Published   *time.Time
	FeedSummary string // Verbatim from the feed, immutable after ingestion
	AISummary   string
	Recipients  []string
	Sent        bool
	Status      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Feed struct {
	ID             int64
	Name           string
	URL            string
	ExtractContent bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type User struct {
	ID        int64
	Username  string
	Webhook   string
	Interests []string
	CreatedAt time.Time
	UpdatedAt time.Time
}
