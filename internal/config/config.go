package config

import (
	_ "embed"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/Nenorae/PIFACE/internal/constants"
)

//go:embed model_thresholds.yaml
var thresholdsYAML []byte

type Config struct {
	Database   DatabaseConfig
	Embedding  EmbeddingConfig
	Roster     RosterConfig
	Agent      AgentConfig
	Thresholds ThresholdsConfig
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL
	MaxOpenConns int    // Maximum open connections (default 25)
	MaxIdleConns int    // Maximum idle connections (default 5)
}

type EmbeddingConfig struct {
	URL       string  // embedding server base URL, defaults to http://localhost:8000
	Model     string  // embedding model name, defaults to vggface
	Threshold float64 // similarity threshold; 0 means "use the model preset"
}

type RosterConfig struct {
	SnapshotPath string // roster snapshot file (gob)
	DatasetPath  string // dataset directory for roster builds
}

type AgentConfig struct {
	ServerURL    string // attendance server base URL
	FrameDir     string // directory the camera process spools frames into
	PollInterval int    // session status poll interval in seconds
}

type ThresholdsConfig struct {
	Models map[string]ModelThreshold `yaml:"models"`
}

type ModelThreshold struct {
	Threshold float64 `yaml:"threshold"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a positive float.
// Returns 0 if the env var is unset, empty, or invalid.
func envFloat(key string) float64 {
	s := os.Getenv(key)
	if s == "" {
		return 0
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		return f
	}
	return 0
}

func Load() *Config {
	var thresholds ThresholdsConfig
	if err := yaml.Unmarshal(thresholdsYAML, &thresholds); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded model_thresholds.yaml: " + err.Error())
	}

	return &Config{
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Embedding: EmbeddingConfig{
			URL:       os.Getenv("EMBEDDING_URL"),
			Model:     os.Getenv("EMBEDDING_MODEL"),
			Threshold: envFloat("SIMILARITY_THRESHOLD"),
		},
		Roster: RosterConfig{
			SnapshotPath: os.Getenv("ROSTER_SNAPSHOT_PATH"),
			DatasetPath:  os.Getenv("DATASET_PATH"),
		},
		Agent: AgentConfig{
			ServerURL:    os.Getenv("SERVER_URL"),
			FrameDir:     os.Getenv("FRAME_DIR"),
			PollInterval: envInt("POLL_INTERVAL", constants.DefaultPollIntervalSec),
		},
		Thresholds: thresholds,
	}
}

// SimilarityThreshold resolves the effective similarity threshold: an explicit
// SIMILARITY_THRESHOLD override wins, then the preset for the configured
// model, then the default.
func (c *Config) SimilarityThreshold() float64 {
	if c.Embedding.Threshold > 0 {
		return c.Embedding.Threshold
	}
	model := c.Embedding.Model
	if model == "" {
		model = constants.DefaultEmbeddingModel
	}
	if preset, ok := c.Thresholds.Models[model]; ok && preset.Threshold > 0 {
		return preset.Threshold
	}
	return constants.DefaultSimilarityThreshold
}

// SnapshotPath returns the configured roster snapshot path or the default.
func (c *Config) SnapshotPath() string {
	if c.Roster.SnapshotPath != "" {
		return c.Roster.SnapshotPath
	}
	return constants.DefaultSnapshotPath
}

// DatasetPath returns the configured dataset directory or the default.
func (c *Config) DatasetPath() string {
	if c.Roster.DatasetPath != "" {
		return c.Roster.DatasetPath
	}
	return constants.DefaultDatasetPath
}
