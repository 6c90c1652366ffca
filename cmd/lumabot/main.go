// Lumabot is a terminal AI email assistant: describe an email in natural
// language, review the drafted message, and confirm before it is sent.
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/otg002/Lumabot/internal/ai"
	"github.com/otg002/Lumabot/internal/app"
	"github.com/otg002/Lumabot/internal/credential"
	"github.com/otg002/Lumabot/internal/logging"
	"github.com/otg002/Lumabot/internal/mailbox"
	"github.com/otg002/Lumabot/internal/mailer"
	"github.com/otg002/Lumabot/internal/model"
	"github.com/otg002/Lumabot/internal/session"
	"github.com/otg002/Lumabot/internal/store"
)

func main() {
	configPath := flag.String("config", model.DefaultConfigPath(), "Path to config file")
	envFile := flag.String("env-file", "", "Path to env file")
	logFile := flag.String("log-file", "", "Path to log file (in addition to the in-app log pane)")
	flag.Parse()

	if *envFile != "" {
		if err := godotenv.Load(*envFile); err != nil {
			fmt.Fprintf(os.Stderr, "loading env file: %v\n", err)
			os.Exit(1)
		}
	} else {
		// Best-effort load of a local .env; absence is fine.
		_ = godotenv.Load()
	}

	ring := logging.NewRing(500)
	logger, closeLog, err := buildLogger(ring, *logFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "opening log file: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()
	slog.SetDefault(logger)

	cfg, err := model.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}

	engine, transcript := buildEngine(cfg, logger)
	if transcript != nil {
		defer transcript.Close()
	}

	p := tea.NewProgram(
		app.New(engine, cfg, *configPath, ring),
		tea.WithAltScreen(),
	)
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "running program: %v\n", err)
		os.Exit(1)
	}
}

// buildEngine assembles the session engine from configuration and
// credentials. It returns a nil engine when no model API key is
// available; the UI then shows setup instructions instead of a chat.
func buildEngine(cfg *model.AppConfig, logger *slog.Logger) (*session.Engine, store.TranscriptStore) {
	apiKey := credential.Resolve("OPENAI_API_KEY", credential.KeyOpenAIAPIKey)
	if apiKey == "" {
		logger.Warn("no model API key configured")
		return nil, nil
	}

	smtpPassword := credential.Resolve("LUMABOT_SMTP_PASSWORD", credential.KeySMTPPassword)

	var archiver mailer.Archiver
	if cfg.IMAP.Host != "" {
		archiver = mailbox.NewSentArchiver(
			cfg.IMAP.Host,
			cfg.IMAP.Port,
			cfg.SMTP.From,
			smtpPassword,
			cfg.IMAP.TLS,
			cfg.IMAP.SentFolder,
			logger,
		)
	}

	m := mailer.NewSMTP(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.From,
		smtpPassword,
		archiver,
		logger,
	)

	assistant := ai.New(apiKey, cfg.AI.Model, cfg.AI.MaxTokens)

	transcript := openTranscript(cfg.Transcript.Path, logger)

	return session.New(
		assistant,
		m,
		transcript,
		cfg.History.MaxMessages,
		logger,
	), transcript
}

// openTranscript opens the transcript database, creating its directory
// if needed. A transcript failure degrades to no persistence rather
// than refusing to start.
func openTranscript(path string, logger *slog.Logger) store.TranscriptStore {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		logger.Warn("could not create transcript directory", "error", err)
		return nil
	}
	s, err := store.NewSQLiteStore(path)
	if err != nil {
		logger.Warn("could not open transcript store", "error", err)
		return nil
	}
	return s
}

// buildLogger creates the ring-backed logger, optionally teeing lines
// into a file.
func buildLogger(ring *logging.Ring, logFile string) (*slog.Logger, func(), error) {
	var extra io.Writer
	closeLog := func() {}

	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, err
		}
		extra = f
		closeLog = func() { _ = f.Close() }
	}

	return logging.New(ring, extra, slog.LevelInfo), closeLog, nil
}
