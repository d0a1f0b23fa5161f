package types

import (
	"fmt"
	"os"
	"strconv"
)

// StoreBackend selects the document store implementation.
type StoreBackend string

const (
	StoreMemory   StoreBackend = "memory"
	StoreDir      StoreBackend = "dir"
	StorePostgres StoreBackend = "postgres"
)

// Config is the process-wide configuration, loaded once from the environment
// at startup.
type Config struct {
	ServerAddr string
	DataDir    string
	Store      StoreBackend

	OllamaBaseURL string
	OllamaModel   string
	EmbedModel    string

	TopK            int
	ChunkSize       int
	ChunkOverlap    int
	SummaryMapChars int
	MaxContextChars int

	PostgresDSN string

	TTSVoice   string
	FFmpegPath string
}

// ConfigFromEnv builds a Config from environment variables, applying the
// documented defaults for anything unset. A malformed value is rejected, not
// silently replaced by its default.
func ConfigFromEnv() (Config, error) {
	cfg := Config{
		ServerAddr:    envOr("SERVER_ADDR", ":8080"),
		DataDir:       envOr("DATA_DIR", "data"),
		Store:         StoreBackend(envOr("STORE", string(StoreDir))),
		OllamaBaseURL: envOr("OLLAMA_BASE_URL", "http://localhost:11434"),
		OllamaModel:   envOr("OLLAMA_MODEL", "qwen2.5:7b"),
		TTSVoice:      envOr("EDGE_TTS_VOICE", "en-US-AriaNeural"),
		FFmpegPath:    envOr("FFMPEG_PATH", "ffmpeg"),
	}

	var err error
	if cfg.TopK, err = envInt("TOP_K", 5); err != nil {
		return Config{}, err
	}
	if cfg.ChunkSize, err = envInt("CHUNK_SIZE", 900); err != nil {
		return Config{}, err
	}
	if cfg.ChunkOverlap, err = envInt("CHUNK_OVERLAP", 150); err != nil {
		return Config{}, err
	}
	if cfg.SummaryMapChars, err = envInt("SUMMARY_MAP_CHARS", 7000); err != nil {
		return Config{}, err
	}
	if cfg.MaxContextChars, err = envInt("MAX_CONTEXT_CHARS", 20000); err != nil {
		return Config{}, err
	}

	// Embedding model falls back to the chat model, matching the documented
	// single-Ollama setup.
	cfg.EmbedModel = envOr("EMBED_MODEL", cfg.OllamaModel)

	if cfg.Store == StorePostgres {
		port, err := envInt("PG_PORT", 5432)
		if err != nil {
			return Config{}, err
		}
		cfg.PostgresDSN = fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			envOr("PG_HOST", "localhost"), port,
			os.Getenv("PG_USER"), os.Getenv("PG_PASS"), os.Getenv("PG_DB_NAME"),
		)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects parameter combinations that would corrupt downstream work.
func (c Config) Validate() error {
	if c.ChunkSize <= 0 {
		return NewConfigError(fmt.Sprintf("chunk size must be positive, got %d", c.ChunkSize))
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return NewConfigError(fmt.Sprintf("chunk overlap must satisfy 0 <= overlap < size, got overlap=%d size=%d", c.ChunkOverlap, c.ChunkSize))
	}
	if c.TopK <= 0 {
		return NewConfigError(fmt.Sprintf("top_k must be positive, got %d", c.TopK))
	}
	if c.SummaryMapChars <= 0 {
		return NewConfigError(fmt.Sprintf("summary map chars must be positive, got %d", c.SummaryMapChars))
	}
	switch c.Store {
	case StoreMemory, StoreDir, StorePostgres:
	default:
		return NewConfigError(fmt.Sprintf("unknown store backend %q", c.Store))
	}
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, NewConfigError(fmt.Sprintf("%s must be an integer, got %q", key, v))
	}
	return n, nil
}
