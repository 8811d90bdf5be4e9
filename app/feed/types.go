package feed

import (
	"time"
)

// Entry is a normalized feed entry ready for ingestion. EntryID falls
// back to the entry link so even minimal feeds carry an identity.
type Entry struct {
	EntryID   string
	Title     string
	Link      string
	Published *time.Time
	Summary   string
}

// Metadata describes the feed document itself.
type Metadata struct {
	Title       string
	Link        string
	Description string
	Language    string
	PublishedAt *time.Time
}
