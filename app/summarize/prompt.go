package summarize

import (
	"fmt"
	"strings"
)

const systemPrompt = `You are an assistant that summarizes news articles and recommends them to users by matching each article to their topics of interest.
For the article:
- Write a concise **summary in Markdown format**.
- **Include the article link**.
- Highlight the parts of the summary that match a recommended user's interests using **bold text**.
Respond with a JSON object with exactly two fields:
"summary": the Markdown summary as a string.
"recipients": an array of usernames the article is relevant to. Use an empty array when no user's interests match. Never invent usernames.`

const digestSystemPrompt = `You are an assistant that writes a personalized daily digest of news articles for a single user.
- Write a concise **digest in Markdown format** covering the articles.
- **Include each article link**.
- Highlight the parts that match the user's interests using **bold text**.`

func buildUserRoster(users []UserInterest) string {
	var b strings.Builder
	for _, u := range users {
		fmt.Fprintf(&b, "- %s: %s\n", u.Username, strings.Join(u.Interests, ", "))
	}
	return b.String()
}

func buildArticlePrompt(article ArticleInput, users []UserInterest) string {
	var b strings.Builder

	b.WriteString("Users and their interests:\n")
	b.WriteString(buildUserRoster(users))

	b.WriteString("\nArticle to summarize:\n")
	fmt.Fprintf(&b, "Title: %s\nLink: %s\nPublished: %s\nFeed Summary: %s\n",
		article.Title, article.Link, article.Published, article.FeedSummary)

	if article.Content != "" {
		fmt.Fprintf(&b, "Full Content:\n%s\n", article.Content)
	}

	return b.String()
}

func buildDigestPrompt(user UserInterest, entries []DigestEntry) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Daily digest of articles for %s.\n", user.Username)
	fmt.Fprintf(&b, "Interests: %s\n\nArticles:\n", strings.Join(user.Interests, ", "))

	for _, entry := range entries {
		fmt.Fprintf(&b, "- %s: %s\n  %s\n", entry.Title, entry.Link, entry.AISummary)
	}

	return b.String()
}
