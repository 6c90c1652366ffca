package model_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otg002/Lumabot/internal/model"
)

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := model.LoadConfig(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o", cfg.AI.Model)
	assert.Equal(t, 1024, cfg.AI.MaxTokens)
	assert.Equal(t, "smtp.gmail.com", cfg.SMTP.Host)
	assert.Equal(t, 587, cfg.SMTP.Port)
	assert.Equal(t, "Sent", cfg.IMAP.SentFolder)
	assert.True(t, cfg.IMAP.TLS)
	assert.Equal(t, 40, cfg.History.MaxMessages)
	assert.False(t, cfg.Complete())
}

func TestLoadConfigReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
ai:
  model: gpt-4o-mini
smtp:
  host: mail.example.com
  port: 2525
  from: me@example.com
imap:
  host: imap.example.com
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := model.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o-mini", cfg.AI.Model)
	assert.Equal(t, "mail.example.com", cfg.SMTP.Host)
	assert.Equal(t, 2525, cfg.SMTP.Port)
	assert.Equal(t, "me@example.com", cfg.SMTP.From)
	assert.True(t, cfg.Complete())

	// Keys absent from the file keep their defaults.
	assert.Equal(t, 1024, cfg.AI.MaxTokens)
	assert.Equal(t, 993, cfg.IMAP.Port)
	assert.Equal(t, "imap.example.com", cfg.IMAP.Host)
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := model.LoadConfig(path)
	require.NoError(t, err)
	cfg.SMTP.From = "me@example.com"
	cfg.SMTP.Host = "smtp.example.com"
	cfg.History.MaxMessages = 25

	require.NoError(t, model.SaveConfig(path, cfg))

	loaded, err := model.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "me@example.com", loaded.SMTP.From)
	assert.Equal(t, "smtp.example.com", loaded.SMTP.Host)
	assert.Equal(t, 25, loaded.History.MaxMessages)
	assert.True(t, loaded.Complete())
}
