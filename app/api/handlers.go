package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/feedscribe/feedscribe/app/cfg"
	"github.com/feedscribe/feedscribe/app/database"
	"github.com/feedscribe/feedscribe/app/tasks"
)

func NewHandler(articleRepo database.ArticleRepository, feedRepo database.FeedRepository,
	userRepo database.UserRepository, scheduler tasks.JobSchedulerInterface) *Handler {
	return &Handler{
		articleRepo: articleRepo,
		feedRepo:    feedRepo,
		userRepo:    userRepo,
		scheduler:   scheduler,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"version":   cfg.Get().Version,
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	})
}

func (h *Handler) GetStats(c *gin.Context) {
	counts, err := h.articleRepo.CountArticlesByStatus()
	if err != nil {
		slog.Error("Database error", "operation", "count_articles", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	feeds, err := h.feedRepo.ListFeeds()
	if err != nil {
		slog.Error("Database error", "operation", "list_feeds", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	users, err := h.userRepo.ListUsers()
	if err != nil {
		slog.Error("Database error", "operation", "list_users", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	total := 0
	for _, count := range counts {
		total += count
	}

	c.JSON(http.StatusOK, gin.H{
		"articles": gin.H{
			"total":      total,
			"new":        counts[database.StatusNew],
			"summarized": counts[database.StatusSummarized],
			"sent":       counts[database.StatusSent],
		},
		"feeds": len(feeds),
		"users": len(users),
	})
}

func (h *Handler) ListArticles(c *gin.Context) {
	status := c.DefaultQuery("status", database.StatusNew)
	switch status {
	case database.StatusNew, database.StatusSummarized, database.StatusSent:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
		return
	}

	articles, err := h.articleRepo.ListArticlesByStatus(status, nil)
	if err != nil {
		slog.Error("Database error", "operation", "list_articles", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	if len(articles) > limit {
		articles = articles[:limit]
	}

	response := make([]articleResponse, 0, len(articles))
	for _, article := range articles {
		response = append(response, toArticleResponse(article))
	}

	c.JSON(http.StatusOK, gin.H{"articles": response, "count": len(response)})
}

func (h *Handler) ListFeeds(c *gin.Context) {
	feeds, err := h.feedRepo.ListFeeds()
	if err != nil {
		slog.Error("Database error", "operation", "list_feeds", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	response := make([]feedResponse, 0, len(feeds))
	for _, feed := range feeds {
		response = append(response, feedResponse{
			Name:           feed.Name,
			URL:            feed.URL,
			ExtractContent: feed.ExtractContent,
		})
	}

	c.JSON(http.StatusOK, gin.H{"feeds": response, "count": len(response)})
}

func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.userRepo.ListUsers()
	if err != nil {
		slog.Error("Database error", "operation", "list_users", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	response := make([]userResponse, 0, len(users))
	for _, user := range users {
		response = append(response, userResponse{
			Username:  user.Username,
			Webhook:   user.Webhook,
			Interests: user.Interests,
		})
	}

	c.JSON(http.StatusOK, gin.H{"users": response, "count": len(response)})
}

func (h *Handler) TriggerFetch(c *gin.Context) {
	h.triggerJob(c, "ingest")
}

func (h *Handler) TriggerSummarize(c *gin.Context) {
	h.triggerJob(c, "summarize")
}

func (h *Handler) TriggerDispatch(c *gin.Context) {
	h.triggerJob(c, "dispatch")
}

func (h *Handler) triggerJob(c *gin.Context, name string) {
	if err := h.scheduler.Trigger(name); err != nil {
		slog.Error("Failed to trigger job", "job", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"triggered": name})
}

func toArticleResponse(article database.Article) articleResponse {
	response := articleResponse{
		FeedName:    article.FeedName,
		EntryID:     article.EntryID,
		Title:       article.Title,
		Link:        article.Link,
		FeedSummary: article.FeedSummary,
		AISummary:   article.AISummary,
		Recipients:  article.Recipients,
		Sent:        article.Sent,
		Status:      article.Status,
		CreatedAt:   article.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   article.UpdatedAt.Format(time.RFC3339),
	}

	if article.Published != nil {
		formatted := article.Published.Format(time.RFC3339)
		response.Published = &formatted
	}

	return response
}
