package draft_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otg002/Lumabot/internal/draft"
)

func TestParseCompleteDraft(t *testing.T) {
	d, err := draft.Parse(json.RawMessage(`{
		"to": "bob@co.com",
		"subject": "Meeting Reminder",
		"body": "See you at 3pm.",
		"cc": "alice@co.com, carol@co.com",
		"bcc": "dan@co.com"
	}`))
	require.NoError(t, err)

	assert.Equal(t, "bob@co.com", d.To)
	assert.Equal(t, "Meeting Reminder", d.Subject)
	assert.Equal(t, "See you at 3pm.", d.Body)
	assert.Equal(t, "alice@co.com, carol@co.com", d.Cc)
	assert.Equal(t, "dan@co.com", d.Bcc)
}

func TestParseWithoutOptionalFields(t *testing.T) {
	d, err := draft.Parse(json.RawMessage(`{
		"to": "bob@co.com",
		"subject": "Hi",
		"body": "Hello."
	}`))
	require.NoError(t, err)

	assert.Empty(t, d.Cc)
	assert.Empty(t, d.Bcc)
}

func TestParseRejectsUnusableArguments(t *testing.T) {
	cases := []struct {
		name  string
		args  string
		field string
	}{
		{
			name:  "missing to",
			args:  `{"subject": "Hi", "body": "Hello."}`,
			field: "to",
		},
		{
			name:  "missing subject",
			args:  `{"to": "bob@co.com", "body": "Hello."}`,
			field: "subject",
		},
		{
			name:  "missing body",
			args:  `{"to": "bob@co.com", "subject": "Hi"}`,
			field: "body",
		},
		{
			name:  "empty to",
			args:  `{"to": "", "subject": "Hi", "body": "Hello."}`,
			field: "to",
		},
		{
			name:  "non-string subject",
			args:  `{"to": "bob@co.com", "subject": 7, "body": "Hello."}`,
			field: "subject",
		},
		{
			name:  "non-string cc",
			args:  `{"to": "bob@co.com", "subject": "Hi", "body": "Hello.", "cc": ["a@co.com"]}`,
			field: "cc",
		},
		{
			name:  "not an object",
			args:  `"just a string"`,
			field: "arguments",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d, err := draft.Parse(json.RawMessage(tc.args))
			require.Error(t, err)
			assert.Nil(t, d)

			var malformed *draft.MalformedError
			require.True(t, errors.As(err, &malformed))
			assert.Equal(t, tc.field, malformed.Field)
		})
	}
}
