package database

import (
	"database/sql"
	"fmt"
	"time"
)

var _ FeedRepository = (*FeedRepositoryImpl)(nil)

type FeedRepositoryImpl struct {
	db *DB
}

func NewFeedRepository(db *DB) *FeedRepositoryImpl {
	return &FeedRepositoryImpl{db: db}
}

// UpsertFeed registers a feed or refreshes its URL. Used only by
// startup seeding; the pipeline treats feeds as read-only input.
func (r *FeedRepositoryImpl) UpsertFeed(name, url string, extractContent bool) error {
	now := time.Now().UTC()

	_, err := r.db.Exec(`
		INSERT INTO feeds (name, url, extract_content, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET
			url = excluded.url,
			extract_content = excluded.extract_content,
			updated_at = excluded.updated_at
	`, name, url, extractContent, now, now)
	if err != nil {
		return fmt.Errorf("failed to upsert feed: %w", err)
	}

	return nil
}

func (r *FeedRepositoryImpl) GetFeed(name string) (*Feed, error) {
	var feed Feed
	err := r.db.QueryRow(`
		SELECT id, name, url, extract_content, created_at, updated_at
		FROM feeds
		WHERE name = ?
	`, name).Scan(&feed.ID, &feed.Name, &feed.URL, &feed.ExtractContent,
		&feed.CreatedAt, &feed.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get feed: %w", err)
	}

	return &feed, nil
}

func (r *FeedRepositoryImpl) ListFeeds() ([]Feed, error) {
	rows, err := r.db.Query(`
		SELECT id, name, url, extract_content, created_at, updated_at
		FROM feeds
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list feeds: %w", err)
	}
	defer rows.Close()

	var feeds []Feed
	for rows.Next() {
		var feed Feed
		err := rows.Scan(&feed.ID, &feed.Name, &feed.URL, &feed.ExtractContent,
			&feed.CreatedAt, &feed.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan feed row: %w", err)
		}
		feeds = append(feeds, feed)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating feed rows: %w", err)
	}

	return feeds, nil
}
