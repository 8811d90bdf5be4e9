package feed

import (
	"bytes"
	"cmp"
	"fmt"
	"log/slog"

	"github.com/mmcdole/gofeed"
	"golang.org/x/text/unicode/norm"
)

type Parser struct {
	gofeedParser *gofeed.Parser
}

func NewParser() *Parser {
	return &Parser{
		gofeedParser: gofeed.NewParser(),
	}
}

// Run parses a syndication document into normalized entries. Entries
// without an identity (no GUID and no link) are dropped; the caller
// has nothing durable to key them on.
func (p *Parser) Run(data []byte) (*Metadata, []Entry, error) {
	parsed, err := p.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	metadata := &Metadata{
		Title:       parsed.Title,
		Link:        parsed.Link,
		Description: parsed.Description,
		Language:    parsed.Language,
	}

	if parsed.PublishedParsed != nil {
		metadata.PublishedAt = parsed.PublishedParsed
	}

	entries := make([]Entry, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item == nil {
			continue
		}
		entry := p.normalizeEntry(item)
		if entry.EntryID == "" {
			slog.Warn("Skipping entry without GUID or link", "title", item.Title)
			continue
		}
		entries = append(entries, entry)
	}

	return metadata, entries, nil
}

func (p *Parser) normalizeEntry(item *gofeed.Item) Entry {
	entry := Entry{
		// NFC normalization keeps visually identical identities from
		// producing distinct dedup keys across feed revisions.
		EntryID: norm.NFC.String(cmp.Or(item.GUID, item.Link)),
		Title:   item.Title,
		Link:    item.Link,
		Summary: item.Description,
	}

	if item.PublishedParsed != nil {
		entry.Published = item.PublishedParsed
	}

	return entry
}
