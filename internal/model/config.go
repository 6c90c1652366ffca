package model

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// AIConfig holds settings for the language-model integration.
type AIConfig struct {
	Model     string `mapstructure:"model" yaml:"model"`
	MaxTokens int    `mapstructure:"max_tokens" yaml:"max_tokens"`
}

// SMTPConfig holds the outbound mail relay settings. The account password
// lives in the system keyring, not here.
type SMTPConfig struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port int    `mapstructure:"port" yaml:"port"`

	// From is the mail account address; it is both the envelope sender
	// and the SMTP AUTH username.
	From string `mapstructure:"from" yaml:"from"`
}

// IMAPConfig holds the settings for the optional save-to-sent step.
// When Host is empty the step is skipped entirely.
type IMAPConfig struct {
	Host       string `mapstructure:"host" yaml:"host"`
	Port       int    `mapstructure:"port" yaml:"port"`
	TLS        bool   `mapstructure:"tls" yaml:"tls"`
	SentFolder string `mapstructure:"sent_folder" yaml:"sent_folder"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme string `mapstructure:"theme" yaml:"theme"`
}

// HistoryConfig bounds the in-memory conversation context.
type HistoryConfig struct {
	MaxMessages int `mapstructure:"max_messages" yaml:"max_messages"`
}

// TranscriptConfig locates the local transcript database.
type TranscriptConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	AI         AIConfig         `mapstructure:"ai" yaml:"ai"`
	SMTP       SMTPConfig       `mapstructure:"smtp" yaml:"smtp"`
	IMAP       IMAPConfig       `mapstructure:"imap" yaml:"imap"`
	Display    DisplayConfig    `mapstructure:"display" yaml:"display"`
	History    HistoryConfig    `mapstructure:"history" yaml:"history"`
	Transcript TranscriptConfig `mapstructure:"transcript" yaml:"transcript"`
}

// Complete reports whether the configuration carries everything needed to
// dispatch mail. The UI falls back to the setup view when it does not.
func (c *AppConfig) Complete() bool {
	return c.SMTP.Host != "" && c.SMTP.From != ""
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/lumabot/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "lumabot", "config.yaml")
}

// DefaultTranscriptPath returns the default path for the transcript
// database, located at ~/.local/share/lumabot/transcript.db.
func DefaultTranscriptPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "transcript.db")
	}
	return filepath.Join(home, ".local", "share", "lumabot", "transcript.db")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		AI: AIConfig{
			Model:     "gpt-4o",
			MaxTokens: 1024,
		},
		SMTP: SMTPConfig{
			Host: "smtp.gmail.com",
			Port: 587,
		},
		IMAP: IMAPConfig{
			Port:       993,
			TLS:        true,
			SentFolder: "Sent",
		},
		Display: DisplayConfig{
			Theme: "default",
		},
		History: HistoryConfig{
			MaxMessages: 40,
		},
		Transcript: TranscriptConfig{
			Path: DefaultTranscriptPath(),
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("ai.model", "gpt-4o")
	v.SetDefault("ai.max_tokens", 1024)
	v.SetDefault("smtp.host", "smtp.gmail.com")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("imap.port", 993)
	v.SetDefault("imap.tls", true)
	v.SetDefault("imap.sent_folder", "Sent")
	v.SetDefault("display.theme", "default")
	v.SetDefault("history.max_messages", 40)
	v.SetDefault("transcript.path", DefaultTranscriptPath())

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaultAppConfig(), nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaultAppConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("ai", cfg.AI)
	v.Set("smtp", cfg.SMTP)
	v.Set("imap", cfg.IMAP)
	v.Set("display", cfg.Display)
	v.Set("history", cfg.History)
	v.Set("transcript", cfg.Transcript)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
