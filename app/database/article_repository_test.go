package database

import (
	"path/filepath"
	"testing"
	"time"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := NewConnection(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, _, err := RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return db
}

func sampleArticle() NewArticle {
	published := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return NewArticle{
		FeedName:    "tech",
		EntryID:     "abc123",
		Title:       "X",
		Link:        "http://x",
		Published:   &published,
		FeedSummary: "feed summary",
	}
}

func TestInsertArticleIfAbsent_Idempotent(t *testing.T) {
	repo := NewArticleRepository(newTestDB(t))

	inserted, err := repo.InsertArticleIfAbsent(sampleArticle())
	if err != nil {
		t.Fatalf("First insert failed: %v", err)
	}
	if !inserted {
		t.Error("First insert should report inserted=true")
	}

	inserted, err = repo.InsertArticleIfAbsent(sampleArticle())
	if err != nil {
		t.Fatalf("Second insert failed: %v", err)
	}
	if inserted {
		t.Error("Re-ingesting the same entry should report inserted=false")
	}

	articles, err := repo.ListArticlesByStatus(StatusNew, nil)
	if err != nil {
		t.Fatalf("ListArticlesByStatus failed: %v", err)
	}
	if len(articles) != 1 {
		t.Fatalf("Expected exactly 1 article after double ingestion, got %d", len(articles))
	}

	article := articles[0]
	if article.Status != StatusNew {
		t.Errorf("Fresh article should have status new, got %q", article.Status)
	}
	if article.AISummary != "" {
		t.Errorf("Fresh article should have no AI summary, got %q", article.AISummary)
	}
	if article.Sent {
		t.Error("Fresh article should not be marked sent")
	}
}

func TestInsertArticleIfAbsent_DoesNotOverwrite(t *testing.T) {
	repo := NewArticleRepository(newTestDB(t))

	if _, err := repo.InsertArticleIfAbsent(sampleArticle()); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if _, err := repo.MarkSummarized("tech", "abc123", "summary", []string{"alice"}); err != nil {
		t.Fatalf("MarkSummarized failed: %v", err)
	}

	// Re-fetch of the same feed snapshot must not clobber LLM output.
	changed := sampleArticle()
	changed.Title = "X (updated)"
	if _, err := repo.InsertArticleIfAbsent(changed); err != nil {
		t.Fatalf("Re-insert failed: %v", err)
	}

	article, err := repo.GetArticle("tech", "abc123")
	if err != nil {
		t.Fatalf("GetArticle failed: %v", err)
	}
	if article.AISummary != "summary" {
		t.Errorf("AI summary overwritten by re-ingestion: %q", article.AISummary)
	}
	if article.Title != "X" {
		t.Errorf("Title overwritten by re-ingestion: %q", article.Title)
	}
}

func TestMarkSummarized(t *testing.T) {
	repo := NewArticleRepository(newTestDB(t))

	if _, err := repo.InsertArticleIfAbsent(sampleArticle()); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	ok, err := repo.MarkSummarized("tech", "abc123", "an ai summary", []string{"alice", "bob"})
	if err != nil {
		t.Fatalf("MarkSummarized failed: %v", err)
	}
	if !ok {
		t.Fatal("MarkSummarized should succeed for a new article")
	}

	article, err := repo.GetArticle("tech", "abc123")
	if err != nil {
		t.Fatalf("GetArticle failed: %v", err)
	}
	if article.Status != StatusSummarized {
		t.Errorf("Expected status summarized, got %q", article.Status)
	}
	if article.Sent {
		t.Error("Summarized article should start unsent")
	}
	if len(article.Recipients) != 2 || article.Recipients[0] != "alice" {
		t.Errorf("Recipients not round-tripped: %v", article.Recipients)
	}

	// A second attempt finds the article no longer in 'new'.
	ok, err = repo.MarkSummarized("tech", "abc123", "another summary", nil)
	if err != nil {
		t.Fatalf("Second MarkSummarized failed: %v", err)
	}
	if ok {
		t.Error("MarkSummarized should report false when article is not in status new")
	}
}

func TestMarkSent(t *testing.T) {
	repo := NewArticleRepository(newTestDB(t))

	if _, err := repo.InsertArticleIfAbsent(sampleArticle()); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	// Cannot send an article that was never summarized.
	ok, err := repo.MarkSent("tech", "abc123")
	if err != nil {
		t.Fatalf("MarkSent failed: %v", err)
	}
	if ok {
		t.Error("MarkSent should report false for an unsummarized article")
	}

	if _, err := repo.MarkSummarized("tech", "abc123", "summary", []string{"alice"}); err != nil {
		t.Fatalf("MarkSummarized failed: %v", err)
	}

	ok, err = repo.MarkSent("tech", "abc123")
	if err != nil {
		t.Fatalf("MarkSent failed: %v", err)
	}
	if !ok {
		t.Fatal("MarkSent should succeed for a summarized unsent article")
	}

	article, err := repo.GetArticle("tech", "abc123")
	if err != nil {
		t.Fatalf("GetArticle failed: %v", err)
	}
	if article.Status != StatusSent || !article.Sent {
		t.Errorf("Expected status sent with sent=true, got %q sent=%v", article.Status, article.Sent)
	}
	if article.AISummary == "" {
		t.Error("Sent article must carry an AI summary")
	}

	// Repeated dispatch of a sent article is a no-op.
	ok, err = repo.MarkSent("tech", "abc123")
	if err != nil {
		t.Fatalf("Second MarkSent failed: %v", err)
	}
	if ok {
		t.Error("MarkSent should report false for an already sent article")
	}
}

func TestListUnsentArticles(t *testing.T) {
	repo := NewArticleRepository(newTestDB(t))

	first := sampleArticle()
	second := sampleArticle()
	second.EntryID = "def456"

	for _, a := range []NewArticle{first, second} {
		if _, err := repo.InsertArticleIfAbsent(a); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
		if _, err := repo.MarkSummarized(a.FeedName, a.EntryID, "summary", []string{"alice"}); err != nil {
			t.Fatalf("MarkSummarized failed: %v", err)
		}
	}

	if _, err := repo.MarkSent("tech", "abc123"); err != nil {
		t.Fatalf("MarkSent failed: %v", err)
	}

	unsent, err := repo.ListUnsentArticles()
	if err != nil {
		t.Fatalf("ListUnsentArticles failed: %v", err)
	}
	if len(unsent) != 1 {
		t.Fatalf("Expected 1 unsent article, got %d", len(unsent))
	}
	if unsent[0].EntryID != "def456" {
		t.Errorf("Wrong article listed as unsent: %q", unsent[0].EntryID)
	}
}

func TestListSentArticlesSince(t *testing.T) {
	repo := NewArticleRepository(newTestDB(t))

	if _, err := repo.InsertArticleIfAbsent(sampleArticle()); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if _, err := repo.MarkSummarized("tech", "abc123", "summary", []string{"alice"}); err != nil {
		t.Fatalf("MarkSummarized failed: %v", err)
	}
	if _, err := repo.MarkSent("tech", "abc123"); err != nil {
		t.Fatalf("MarkSent failed: %v", err)
	}

	recent, err := repo.ListSentArticlesSince(time.Now().UTC().Add(-time.Hour))
	if err != nil {
		t.Fatalf("ListSentArticlesSince failed: %v", err)
	}
	if len(recent) != 1 {
		t.Errorf("Expected 1 recently sent article, got %d", len(recent))
	}

	old, err := repo.ListSentArticlesSince(time.Now().UTC().Add(time.Hour))
	if err != nil {
		t.Fatalf("ListSentArticlesSince failed: %v", err)
	}
	if len(old) != 0 {
		t.Errorf("Expected no articles ahead of the window, got %d", len(old))
	}
}

func TestCountArticlesByStatus(t *testing.T) {
	repo := NewArticleRepository(newTestDB(t))

	first := sampleArticle()
	second := sampleArticle()
	second.EntryID = "def456"

	for _, a := range []NewArticle{first, second} {
		if _, err := repo.InsertArticleIfAbsent(a); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}
	if _, err := repo.MarkSummarized("tech", "abc123", "summary", nil); err != nil {
		t.Fatalf("MarkSummarized failed: %v", err)
	}

	counts, err := repo.CountArticlesByStatus()
	if err != nil {
		t.Fatalf("CountArticlesByStatus failed: %v", err)
	}
	if counts[StatusNew] != 1 || counts[StatusSummarized] != 1 {
		t.Errorf("Unexpected counts: %v", counts)
	}
}

func TestNullablePublished(t *testing.T) {
	repo := NewArticleRepository(newTestDB(t))

	article := sampleArticle()
	article.Published = nil
	if _, err := repo.InsertArticleIfAbsent(article); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	stored, err := repo.GetArticle("tech", "abc123")
	if err != nil {
		t.Fatalf("GetArticle failed: %v", err)
	}
	if stored.Published != nil {
		t.Errorf("Expected nil published timestamp, got %v", stored.Published)
	}
}
