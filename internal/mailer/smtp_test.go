package mailer

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otg002/Lumabot/internal/model"
)

func TestBuildMessageHeaders(t *testing.T) {
	d := model.Draft{
		To:      "bob@co.com",
		Subject: "Meeting Reminder",
		Body:    "See you at 3pm.",
		Cc:      "alice@co.com, carol@co.com",
	}

	raw, err := buildMessage("me@co.com", d, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	msg := string(raw)
	assert.Contains(t, msg, "me@co.com")
	assert.Contains(t, msg, "bob@co.com")
	assert.Contains(t, msg, "Meeting Reminder")
	assert.Contains(t, msg, "alice@co.com")
	assert.Contains(t, msg, "carol@co.com")
	assert.Contains(t, msg, "See you at 3pm.")
	assert.NotContains(t, msg, "Bcc:")
}

func TestBuildMessageBccOnlyWhenSet(t *testing.T) {
	d := model.Draft{
		To:      "bob@co.com",
		Subject: "Hi",
		Body:    "Hello.",
		Bcc:     "dan@co.com",
	}

	raw, err := buildMessage("me@co.com", d, time.Now())
	require.NoError(t, err)

	msg := string(raw)
	assert.Contains(t, msg, "dan@co.com")
	assert.NotContains(t, msg, "Cc:")
}

func TestFailureDetailFormat(t *testing.T) {
	res := failure(errors.New("auth failed: 535 bad credentials"))

	assert.False(t, res.OK)
	assert.Equal(t, "Failed to send email: auth failed: 535 bad credentials", res.Detail)
}

func TestHeloDomain(t *testing.T) {
	assert.Equal(t, "co.com", heloDomain("me@co.com"))
	assert.Equal(t, "localhost", heloDomain("not-an-address"))
	assert.Equal(t, "localhost", heloDomain("trailing@"))
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a@x.com", "b@x.com"}, splitList(" a@x.com ,b@x.com,"))
	assert.Nil(t, splitList(""))
}
