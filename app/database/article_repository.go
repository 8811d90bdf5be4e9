package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
)

var _ ArticleRepository = (*ArticleRepositoryImpl)(nil)

type ArticleRepositoryImpl struct {
	db *DB
}

func NewArticleRepository(db *DB) *ArticleRepositoryImpl {
	return &ArticleRepositoryImpl{db: db}
}

var articleColumns = []string{
	"id", "feed_name", "entry_id", "title", "link", "published",
	"feed_summary", "ai_summary", "recipients", "sent", "status",
	"created_at", "updated_at",
}

// InsertArticleIfAbsent stores a freshly ingested article with status
// 'new'. Returns false when the (feed_name, entry_id) pair already
// exists; re-ingesting the same feed snapshot never overwrites fields
// set by later pipeline stages.
func (r *ArticleRepositoryImpl) InsertArticleIfAbsent(article NewArticle) (bool, error) {
	now := time.Now().UTC()

	result, err := r.db.Exec(`
		INSERT INTO articles (feed_name, entry_id, title, link, published, feed_summary, status, sent, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?, ?)
		ON CONFLICT (feed_name, entry_id) DO NOTHING
	`, article.FeedName, article.EntryID, article.Title, article.Link,
		article.Published, article.FeedSummary, StatusNew, now, now)
	if err != nil {
		return false, fmt.Errorf("failed to insert article: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return affected > 0, nil
}

// ListArticlesByStatus returns articles in the given status, optionally
// restricted to those touched at or after 'since'.
func (r *ArticleRepositoryImpl) ListArticlesByStatus(status string, since *time.Time) ([]Article, error) {
	query := sq.Select(articleColumns...).
		From("articles").
		Where(sq.Eq{"status": status}).
		OrderBy("created_at ASC")

	if since != nil {
		query = query.Where(sq.GtOrEq{"updated_at": *since})
	}

	return r.queryArticles(query)
}

// ListUnsentArticles returns summarized articles awaiting dispatch.
func (r *ArticleRepositoryImpl) ListUnsentArticles() ([]Article, error) {
	query := sq.Select(articleColumns...).
		From("articles").
		Where(sq.Eq{"status": StatusSummarized, "sent": false}).
		OrderBy("created_at ASC")

	return r.queryArticles(query)
}

// ListSentArticlesSince returns delivered articles updated within the
// digest window.
func (r *ArticleRepositoryImpl) ListSentArticlesSince(since time.Time) ([]Article, error) {
	query := sq.Select(articleColumns...).
		From("articles").
		Where(sq.Eq{"status": StatusSent, "sent": true}).
		Where(sq.GtOrEq{"updated_at": since}).
		OrderBy("created_at ASC")

	return r.queryArticles(query)
}

// MarkSummarized advances an article from 'new' to 'summarized' in a
// single atomic update. Returns false when the article was not in the
// expected status, which makes concurrent summarize runs benign.
func (r *ArticleRepositoryImpl) MarkSummarized(feedName, entryID, aiSummary string, recipients []string) (bool, error) {
	recipientsJSON, err := json.Marshal(recipients)
	if err != nil {
		return false, fmt.Errorf("failed to encode recipients: %w", err)
	}

	result, err := r.db.Exec(`
		UPDATE articles
		SET ai_summary = ?, recipients = ?, status = ?, sent = 0, updated_at = ?
		WHERE feed_name = ? AND entry_id = ? AND status = ?
	`, aiSummary, string(recipientsJSON), StatusSummarized, time.Now().UTC(),
		feedName, entryID, StatusNew)
	if err != nil {
		return false, fmt.Errorf("failed to mark article summarized: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return affected > 0, nil
}

// MarkSent records a fully successful dispatch. Conditional on the
// article still being summarized and unsent, so a repeated dispatch run
// is a no-op.
func (r *ArticleRepositoryImpl) MarkSent(feedName, entryID string) (bool, error) {
	result, err := r.db.Exec(`
		UPDATE articles
		SET sent = 1, status = ?, updated_at = ?
		WHERE feed_name = ? AND entry_id = ? AND status = ? AND sent = 0
	`, StatusSent, time.Now().UTC(), feedName, entryID, StatusSummarized)
	if err != nil {
		return false, fmt.Errorf("failed to mark article sent: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return affected > 0, nil
}

func (r *ArticleRepositoryImpl) GetArticle(feedName, entryID string) (*Article, error) {
	query := sq.Select(articleColumns...).
		From("articles").
		Where(sq.Eq{"feed_name": feedName, "entry_id": entryID})

	articles, err := r.queryArticles(query)
	if err != nil {
		return nil, err
	}
	if len(articles) == 0 {
		return nil, nil
	}

	return &articles[0], nil
}

func (r *ArticleRepositoryImpl) CountArticlesByStatus() (map[string]int, error) {
	rows, err := r.db.Query(`SELECT status, COUNT(*) FROM articles GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count articles: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan count row: %w", err)
		}
		counts[status] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating count rows: %w", err)
	}

	return counts, nil
}

func (r *ArticleRepositoryImpl) queryArticles(query sq.SelectBuilder) ([]Article, error) {
	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.db.Query(sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query articles: %w", err)
	}
	defer rows.Close()

	var articles []Article
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, article)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating article rows: %w", err)
	}

	return articles, nil
}

func scanArticle(rows *sql.Rows) (Article, error) {
	var article Article
	var published sql.NullTime
	var aiSummary, recipients sql.NullString

	err := rows.Scan(
		&article.ID, &article.FeedName, &article.EntryID, &article.Title,
		&article.Link, &published, &article.FeedSummary, &aiSummary,
		&recipients, &article.Sent, &article.Status,
		&article.CreatedAt, &article.UpdatedAt,
	)
	if err != nil {
		return Article{}, fmt.Errorf("failed to scan article row: %w", err)
	}

	if published.Valid {
		article.Published = &published.Time
	}
	article.AISummary = aiSummary.String

	if recipients.Valid && recipients.String != "" {
		if err := json.Unmarshal([]byte(recipients.String), &article.Recipients); err != nil {
			return Article{}, fmt.Errorf("failed to decode recipients: %w", err)
		}
	}

	return article, nil
}
