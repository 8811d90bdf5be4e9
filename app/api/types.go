package api

import (
	"github.com/feedscribe/feedscribe/app/database"
	"github.com/feedscribe/feedscribe/app/tasks"
)

type Handler struct {
	articleRepo database.ArticleRepository
	feedRepo    database.FeedRepository
	userRepo    database.UserRepository
	scheduler   tasks.JobSchedulerInterface
}

type articleResponse struct {
	FeedName    string   `json:"feed_name"`
	EntryID     string   `json:"entry_id"`
	Title       string   `json:"title"`
	Link        string   `json:"link"`
	Published   *string  `json:"published"`
	FeedSummary string   `json:"feed_summary"`
	AISummary   string   `json:"ai_summary,omitempty"`
	Recipients  []string `json:"recipients,omitempty"`
	Sent        bool     `json:"sent"`
	Status      string   `json:"status"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
}

type feedResponse struct {
	Name           string `json:"name"`
	URL            string `json:"url"`
	ExtractContent bool   `json:"extract_content"`
}

type userResponse struct {
	Username  string   `json:"username"`
	Webhook   string   `json:"webhook"`
	Interests []string `json:"interests"`
}
