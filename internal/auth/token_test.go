package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTokenCodec_IssueAndDecode(t *testing.T) {
	codec := NewTokenCodec("test-secret", time.Minute, time.Hour)

	t.Run("AccessTokenRoundTrip", func(t *testing.T) {
		token, err := codec.IssueAccess("user-123")
		assert.NoError(t, err)

		userID, err := codec.Decode(token)
		assert.NoError(t, err)
		assert.Equal(t, "user-123", userID)
	})

	t.Run("RefreshTokenRoundTrip", func(t *testing.T) {
		token, err := codec.IssueRefresh("user-456")
		assert.NoError(t, err)

		userID, err := codec.Decode(token)
		assert.NoError(t, err)
		assert.Equal(t, "user-456", userID)
	})
}

func TestTokenCodec_Decode_Invalid(t *testing.T) {
	codec := NewTokenCodec("test-secret", time.Minute, time.Hour)

	t.Run("Malformed", func(t *testing.T) {
		_, err := codec.Decode("not.a.jwt")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("WrongSecret", func(t *testing.T) {
		other := NewTokenCodec("other-secret", time.Minute, time.Hour)
		token, err := other.IssueAccess("user-123")
		assert.NoError(t, err)

		_, err = codec.Decode(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Expired", func(t *testing.T) {
		expired := NewTokenCodec("test-secret", -time.Minute, -time.Minute)
		token, err := expired.IssueAccess("user-123")
		assert.NoError(t, err)

		_, err = codec.Decode(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("EmptyUserID", func(t *testing.T) {
		token, err := codec.IssueAccess("")
		assert.NoError(t, err)

		_, err = codec.Decode(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
