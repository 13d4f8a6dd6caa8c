package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPasswordPolicy_Validate(t *testing.T) {
	policy := PasswordPolicy{MinLength: 6, MaxLength: 32}

	t.Run("ValidPassword", func(t *testing.T) {
		assert.NoError(t, policy.Validate("s3cret!pass", "s3cret!pass"))
	})

	t.Run("WhitespaceRejected", func(t *testing.T) {
		err := policy.Validate("bad pass1", "bad pass1")
		assert.ErrorIs(t, err, ErrPasswordWhitespace)
	})

	t.Run("TooShort", func(t *testing.T) {
		err := policy.Validate("abc1", "abc1")
		assert.ErrorIs(t, err, ErrPasswordLength)
	})

	t.Run("TooLong", func(t *testing.T) {
		long := "a123456789a123456789a123456789abc"
		err := policy.Validate(long, long)
		assert.ErrorIs(t, err, ErrPasswordLength)
	})

	t.Run("NonASCIIRejected", func(t *testing.T) {
		err := policy.Validate("пароль123", "пароль123")
		assert.ErrorIs(t, err, ErrPasswordCharset)
	})

	t.Run("ConfirmMismatch", func(t *testing.T) {
		err := policy.Validate("s3cret!pass", "s3cret!other")
		assert.ErrorIs(t, err, ErrPasswordMismatch)
	})

	t.Run("WhitespaceCheckedBeforeLength", func(t *testing.T) {
		// " a" fails both checks; whitespace must win.
		err := policy.Validate(" a", " a")
		assert.ErrorIs(t, err, ErrPasswordWhitespace)
	})

	t.Run("LengthCheckedBeforeMismatch", func(t *testing.T) {
		err := policy.Validate("ab1", "ab2")
		assert.ErrorIs(t, err, ErrPasswordLength)
	})
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("s3cret!pass", 4)
	assert.NoError(t, err)
	assert.NotEqual(t, "s3cret!pass", hash)

	assert.True(t, CheckPassword("s3cret!pass", hash))
	assert.False(t, CheckPassword("wrongpass", hash))
}

func TestCheckPassword_MalformedHash(t *testing.T) {
	assert.False(t, CheckPassword("s3cret!pass", "not-a-bcrypt-hash"))
	assert.False(t, CheckPassword("s3cret!pass", ""))
}
