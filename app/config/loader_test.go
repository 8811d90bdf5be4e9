package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

func TestLoadFeeds(t *testing.T) {
	path := writeTempFile(t, "feeds.yml", `
feeds:
  - name: tech
    url: http://example.com/rss
    extract_content: true
  - name: science
    url: http://example.com/science.xml
`)

	feeds, err := LoadFeeds(path)
	if err != nil {
		t.Fatalf("LoadFeeds failed: %v", err)
	}
	if len(feeds) != 2 {
		t.Fatalf("Expected 2 feeds, got %d", len(feeds))
	}
	if feeds[0].Name != "tech" || !feeds[0].ExtractContent {
		t.Errorf("Unexpected first feed: %+v", feeds[0])
	}
	if feeds[1].ExtractContent {
		t.Error("extract_content should default to false")
	}
}

func TestLoadFeeds_MissingName(t *testing.T) {
	path := writeTempFile(t, "feeds.yml", `
feeds:
  - url: http://example.com/rss
`)

	if _, err := LoadFeeds(path); err == nil {
		t.Error("Expected error for feed without a name")
	}
}

func TestLoadFeeds_MissingURL(t *testing.T) {
	path := writeTempFile(t, "feeds.yml", `
feeds:
  - name: tech
`)

	if _, err := LoadFeeds(path); err == nil {
		t.Error("Expected error for feed without a url")
	}
}

func TestLoadFeeds_FileNotFound(t *testing.T) {
	if _, err := LoadFeeds(filepath.Join(t.TempDir(), "nope.yml")); err == nil {
		t.Error("Expected error for a missing feeds file")
	}
}

func TestLoadUsers(t *testing.T) {
	path := writeTempFile(t, "users.yml", `
users:
  - username: alice
    webhook: http://hooks.example.com/alice
    interests:
      - golang
      - databases
  - username: bob
`)

	users, err := LoadUsers(path)
	if err != nil {
		t.Fatalf("LoadUsers failed: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("Expected 2 users, got %d", len(users))
	}
	if users[0].Username != "alice" || len(users[0].Interests) != 2 {
		t.Errorf("Unexpected first user: %+v", users[0])
	}
	if users[1].Webhook != "" || len(users[1].Interests) != 0 {
		t.Errorf("Webhook and interests are optional: %+v", users[1])
	}
}

func TestLoadUsers_MissingUsername(t *testing.T) {
	path := writeTempFile(t, "users.yml", `
users:
  - webhook: http://hooks.example.com/who
`)

	if _, err := LoadUsers(path); err == nil {
		t.Error("Expected error for user without a username")
	}
}

func TestLoadLLM(t *testing.T) {
	path := writeTempFile(t, "llm.yml", `
model: local-model
temperature: 0.2
max_tokens: 1024
base_url: http://localhost:1234/v1
`)

	params, err := LoadLLM(path)
	if err != nil {
		t.Fatalf("LoadLLM failed: %v", err)
	}
	if params.Model != "local-model" {
		t.Errorf("Expected model local-model, got %q", params.Model)
	}
	if params.Temperature != 0.2 {
		t.Errorf("Expected temperature 0.2, got %v", params.Temperature)
	}
	if params.MaxTokens != 1024 {
		t.Errorf("Expected max_tokens 1024, got %d", params.MaxTokens)
	}
	if params.BaseURL != "http://localhost:1234/v1" {
		t.Errorf("Unexpected base_url %q", params.BaseURL)
	}
}

func TestLoadLLM_MissingFileUsesDefaults(t *testing.T) {
	params, err := LoadLLM(filepath.Join(t.TempDir(), "llm.yml"))
	if err != nil {
		t.Fatalf("A missing llm file must not be an error: %v", err)
	}
	if params.Model != DefaultModel {
		t.Errorf("Expected default model, got %q", params.Model)
	}
	if params.Temperature != DefaultTemperature {
		t.Errorf("Expected default temperature, got %v", params.Temperature)
	}
	if params.MaxTokens != DefaultMaxTokens {
		t.Errorf("Expected default max_tokens, got %d", params.MaxTokens)
	}
	if params.BaseURL != "" {
		t.Errorf("Expected empty base_url, got %q", params.BaseURL)
	}
}

func TestLoadLLM_PartialFileFillsDefaults(t *testing.T) {
	path := writeTempFile(t, "llm.yml", `
base_url: http://localhost:8080/v1
`)

	params, err := LoadLLM(path)
	if err != nil {
		t.Fatalf("LoadLLM failed: %v", err)
	}
	if params.Model != DefaultModel || params.MaxTokens != DefaultMaxTokens {
		t.Errorf("Missing fields should fall back to defaults: %+v", params)
	}
	if params.BaseURL != "http://localhost:8080/v1" {
		t.Errorf("Unexpected base_url %q", params.BaseURL)
	}
}
