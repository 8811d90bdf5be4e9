package config

// FeedDef is a single feed entry from feeds.yml.
type FeedDef struct {
	Name           string `yaml:"name"`
	URL            string `yaml:"url"`
	ExtractContent bool   `yaml:"extract_content"`
}

// UserDef is a single subscriber entry from users.yml.
type UserDef struct {
	Username  string   `yaml:"username"`
	Webhook   string   `yaml:"webhook"`
	Interests []string `yaml:"interests"`
}

// LLMParams holds language model parameters from llm.yml.
// Values not present in the file fall back to defaults.
type LLMParams struct {
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	BaseURL     string  `yaml:"base_url"`
}

type feedsFile struct {
	Feeds []FeedDef `yaml:"feeds"`
}

type usersFile struct {
	Users []UserDef `yaml:"users"`
}
