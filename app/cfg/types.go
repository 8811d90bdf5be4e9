package cfg

type Cfg struct {
	// Storage configuration
	DBPath string

	// Roster configuration files
	FeedsFile string
	UsersFile string
	LLMFile   string

	// Pipeline scheduling (seconds)
	PollInterval      int
	SummarizeInterval int
	DispatchInterval  int

	// Daily digest
	DigestEnabled bool
	DigestTime    string // HH:MM local time

	// Dispatch behavior
	ChunkWordLimit int
	ChunkDelayMs   int
	WebhookTimeout int // seconds

	// HTTP server
	Port         string
	APIAccessKey string

	// Outbound HTTP
	HTTPTimeout int // seconds
	UserAgent   string

	// LLM credentials (model parameters live in LLMFile)
	OpenAIAPIKey string

	// Application metadata
	Timezone string
	Debug    bool
	Version  string
}
