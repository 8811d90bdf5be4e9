package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultModel       = "gpt-4.1"
	DefaultTemperature = 0.5
	DefaultMaxTokens   = 4096
)

// LoadFeeds reads the feed roster from a YAML file.
func LoadFeeds(path string) ([]FeedDef, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read feeds file: %w", err)
	}

	var f feedsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse feeds file: %w", err)
	}

	for i, feed := range f.Feeds {
		if feed.Name == "" {
			return nil, fmt.Errorf("feed #%d: name is required", i+1)
		}
		if feed.URL == "" {
			return nil, fmt.Errorf("feed %q: url is required", feed.Name)
		}
	}

	return f.Feeds, nil
}

// LoadUsers reads the subscriber roster from a YAML file.
func LoadUsers(path string) ([]UserDef, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read users file: %w", err)
	}

	var f usersFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse users file: %w", err)
	}

	for i, user := range f.Users {
		if user.Username == "" {
			return nil, fmt.Errorf("user #%d: username is required", i+1)
		}
	}

	return f.Users, nil
}

// LoadLLM reads language model parameters from a YAML file. A missing
// file is not an error; defaults are returned so the service can run
// against any OpenAI-compatible endpoint without extra configuration.
func LoadLLM(path string) (LLMParams, error) {
	params := LLMParams{
		Model:       DefaultModel,
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return params, nil
		}
		return params, fmt.Errorf("failed to read llm file: %w", err)
	}

	if err := yaml.Unmarshal(data, &params); err != nil {
		return params, fmt.Errorf("failed to parse llm file: %w", err)
	}

	if params.Model == "" {
		params.Model = DefaultModel
	}
	if params.MaxTokens <= 0 {
		params.MaxTokens = DefaultMaxTokens
	}

	return params, nil
}
