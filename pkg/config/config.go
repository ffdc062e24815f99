package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Settings holds all configuration values.
type Settings struct {
	// Server is the chat backend the client talks to.
	Server struct {
		URL     string
		Timeout time.Duration // request/response calls only, never streams
	}

	// Chat holds the generation defaults sent with each turn. Zero values
	// defer to the project defaults stored on the backend.
	Chat struct {
		Temperature     float64
		MaxTokens       int
		ModelID         string
		Provider        string
		AgentID         int64
		UseRAG          bool
		HistoryStrategy string
	}

	// Stream holds streaming behavior. StallTimeout cancels a stream that
	// has delivered no bytes for the configured period; zero disables it.
	Stream struct {
		StallTimeout time.Duration
	}

	Logging struct {
		LogFile string
		Persist bool
		Level   string
	}

	// ConfigFile is the path of the config file actually used, if any.
	ConfigFile string
}

var global *Settings

// Init loads configuration from the given file (or the default search path)
// plus environment variables, and populates the global settings.
func Init(cfgFile string) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath("./.strand")
		viper.SetConfigType("yaml")
		viper.SetConfigName("settings")
	}

	setDefaults()

	viper.SetEnvPrefix("STRAND")
	viper.AutomaticEnv()
	viper.BindEnv("server.url", "STRAND_SERVER_URL")
	viper.BindEnv("chat.model_id", "STRAND_MODEL_ID")

	if err := viper.ReadInConfig(); err != nil {
		// A missing config file is fine, anything else is not.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && cfgFile != "" {
			return fmt.Errorf("failed to read config file %s: %w", cfgFile, err)
		}
	}

	global = load()
	return nil
}

func setDefaults() {
	viper.SetDefault("server.url", "http://localhost:8000")
	viper.SetDefault("server.timeout", "30s")

	viper.SetDefault("chat.temperature", 0.0)
	viper.SetDefault("chat.max_tokens", 0)
	viper.SetDefault("chat.model_id", "")
	viper.SetDefault("chat.provider", "tgi")
	viper.SetDefault("chat.agent_id", 0)
	viper.SetDefault("chat.use_rag", false)
	viper.SetDefault("chat.history_strategy", "recent")

	viper.SetDefault("stream.stall_timeout", "0s")

	viper.SetDefault("logging.log_file", "./.strand/system.log")
	viper.SetDefault("logging.persist", true)
	viper.SetDefault("logging.level", "info")
}

func load() *Settings {
	s := &Settings{}
	s.Server.URL = viper.GetString("server.url")
	s.Server.Timeout = viper.GetDuration("server.timeout")

	s.Chat.Temperature = viper.GetFloat64("chat.temperature")
	s.Chat.MaxTokens = viper.GetInt("chat.max_tokens")
	s.Chat.ModelID = viper.GetString("chat.model_id")
	s.Chat.Provider = viper.GetString("chat.provider")
	s.Chat.AgentID = viper.GetInt64("chat.agent_id")
	s.Chat.UseRAG = viper.GetBool("chat.use_rag")
	s.Chat.HistoryStrategy = viper.GetString("chat.history_strategy")

	s.Stream.StallTimeout = viper.GetDuration("stream.stall_timeout")

	s.Logging.LogFile = viper.GetString("logging.log_file")
	s.Logging.Persist = viper.GetBool("logging.persist")
	s.Logging.Level = viper.GetString("logging.level")

	s.ConfigFile = viper.ConfigFileUsed()
	return s
}

// Get returns the global settings, loading defaults if Init was never
// called (tests mostly).
func Get() *Settings {
	if global == nil {
		setDefaults()
		global = load()
	}
	return global
}
