package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOutgoingMessage(t *testing.T) {
	got, err := ParseOutgoingMessage([]byte(`{"text":"hi","extra":1}`))
	require.NoError(t, err)
	assert.Equal(t, OutgoingMessage{Text: "hi"}, got)

	missing, err := ParseOutgoingMessage([]byte(`{}`))
	require.NoError(t, err)
	assert.Empty(t, missing.Text, "blank text is rejected later by Send")
}

func TestParseOutgoingMessage_RejectsServerAssignedKeys(t *testing.T) {
	for _, body := range []string{
		`{"text":"hi","id":""}`,
		`{"text":"hi","id":"m1"}`,
		`{"text":"hi","senderId":null}`,
		`{"text":"hi","sentAt":"2024-01-01T00:00:00Z"}`,
		`{"text":"hi","readAt":""}`,
		`{"text":"hi","readDate":"2024-01-01T00:00:00Z"}`,
	} {
		_, err := ParseOutgoingMessage([]byte(body))
		assert.ErrorIs(t, err, ErrInvalidMessage, body)
	}
}

func TestParseOutgoingMessage_Malformed(t *testing.T) {
	for _, body := range []string{`{`, `[]`, `{"text":42}`} {
		_, err := ParseOutgoingMessage([]byte(body))
		assert.ErrorIs(t, err, ErrInvalidMessage, body)
	}
}
