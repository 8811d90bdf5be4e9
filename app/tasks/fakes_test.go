package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/feedscribe/feedscribe/app/database"
	"github.com/feedscribe/feedscribe/app/dispatch"
	"github.com/feedscribe/feedscribe/app/summarize"
)

// In-memory article store implementing the same conditional status
// transitions as the SQLite repository.
type memArticleRepo struct {
	articles map[string]*database.Article
}

func newMemArticleRepo() *memArticleRepo {
	return &memArticleRepo{articles: make(map[string]*database.Article)}
}

func articleKey(feedName, entryID string) string {
	return feedName + "|" + entryID
}

func (r *memArticleRepo) InsertArticleIfAbsent(a database.NewArticle) (bool, error) {
	key := articleKey(a.FeedName, a.EntryID)
	if _, ok := r.articles[key]; ok {
		return false, nil
	}
	now := time.Now().UTC()
	r.articles[key] = &database.Article{
		FeedName:    a.FeedName,
		EntryID:     a.EntryID,
		Title:       a.Title,
		Link:        a.Link,
		Published:   a.Published,
		FeedSummary: a.FeedSummary,
		Status:      database.StatusNew,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return true, nil
}

func (r *memArticleRepo) ListArticlesByStatus(status string, since *time.Time) ([]database.Article, error) {
	var out []database.Article
	for _, a := range r.articles {
		if a.Status != status {
			continue
		}
		if since != nil && a.UpdatedAt.Before(*since) {
			continue
		}
		out = append(out, *a)
	}
	return out, nil
}

func (r *memArticleRepo) ListUnsentArticles() ([]database.Article, error) {
	var out []database.Article
	for _, a := range r.articles {
		if a.Status == database.StatusSummarized && !a.Sent {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r *memArticleRepo) ListSentArticlesSince(since time.Time) ([]database.Article, error) {
	var out []database.Article
	for _, a := range r.articles {
		if a.Status == database.StatusSent && a.Sent && !a.UpdatedAt.Before(since) {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r *memArticleRepo) MarkSummarized(feedName, entryID, aiSummary string, recipients []string) (bool, error) {
	a, ok := r.articles[articleKey(feedName, entryID)]
	if !ok || a.Status != database.StatusNew {
		return false, nil
	}
	a.AISummary = aiSummary
	a.Recipients = recipients
	a.Status = database.StatusSummarized
	a.Sent = false
	a.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (r *memArticleRepo) MarkSent(feedName, entryID string) (bool, error) {
	a, ok := r.articles[articleKey(feedName, entryID)]
	if !ok || a.Status != database.StatusSummarized || a.Sent {
		return false, nil
	}
	a.Sent = true
	a.Status = database.StatusSent
	a.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (r *memArticleRepo) GetArticle(feedName, entryID string) (*database.Article, error) {
	a, ok := r.articles[articleKey(feedName, entryID)]
	if !ok {
		return nil, nil
	}
	copied := *a
	return &copied, nil
}

func (r *memArticleRepo) CountArticlesByStatus() (map[string]int, error) {
	counts := make(map[string]int)
	for _, a := range r.articles {
		counts[a.Status]++
	}
	return counts, nil
}

type memFeedRepo struct {
	feeds []database.Feed
}

func (r *memFeedRepo) UpsertFeed(name, url string, extractContent bool) error {
	r.feeds = append(r.feeds, database.Feed{Name: name, URL: url, ExtractContent: extractContent})
	return nil
}

func (r *memFeedRepo) GetFeed(name string) (*database.Feed, error) {
	for _, f := range r.feeds {
		if f.Name == name {
			copied := f
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *memFeedRepo) ListFeeds() ([]database.Feed, error) {
	return r.feeds, nil
}

type memUserRepo struct {
	users []database.User
}

func (r *memUserRepo) UpsertUser(username, webhook string, interests []string) error {
	r.users = append(r.users, database.User{Username: username, Webhook: webhook, Interests: interests})
	return nil
}

func (r *memUserRepo) GetUser(username string) (*database.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			copied := u
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *memUserRepo) ListUsers() ([]database.User, error) {
	return r.users, nil
}

// fakeSummarizer returns canned results keyed by article title, or an
// error for titles in the fail set.
type fakeSummarizer struct {
	results map[string]summarize.Result
	fail    map[string]bool
	calls   int
}

func (s *fakeSummarizer) SummarizeArticle(ctx context.Context, article summarize.ArticleInput, users []summarize.UserInterest) (summarize.Result, error) {
	s.calls++
	if s.fail[article.Title] {
		return summarize.Result{}, fmt.Errorf("simulated model failure")
	}
	if result, ok := s.results[article.Title]; ok {
		return result, nil
	}
	return summarize.Result{Summary: "summary of " + article.Title}, nil
}

// fakeDispatcher reports per-recipient outcomes based on a fail set.
type fakeDispatcher struct {
	failUsers map[string]bool
	calls     int
}

func (d *fakeDispatcher) DispatchArticle(ctx context.Context, article database.Article) dispatch.ArticleResult {
	d.calls++
	result := dispatch.ArticleResult{FeedName: article.FeedName, EntryID: article.EntryID}
	for _, username := range article.Recipients {
		result.Recipients = append(result.Recipients, dispatch.RecipientResult{
			Username:  username,
			Delivered: !d.failUsers[username],
			Reason:    "simulated",
		})
	}
	return result
}

type fakeDigestBuilder struct {
	digests map[string]string
}

func (b *fakeDigestBuilder) BuildDigest(ctx context.Context, user summarize.UserInterest, entries []summarize.DigestEntry) (string, error) {
	if digest, ok := b.digests[user.Username]; ok {
		return digest, nil
	}
	return fmt.Sprintf("digest for %s (%d articles)", user.Username, len(entries)), nil
}

type fakeTextSender struct {
	sent map[string]string // webhook -> text
}

func (s *fakeTextSender) SendText(ctx context.Context, webhook, title, text string) error {
	if s.sent == nil {
		s.sent = make(map[string]string)
	}
	s.sent[webhook] = text
	return nil
}
