package password

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptPasswordService(t *testing.T) {
	svc := NewBcryptPasswordService(bcrypt.MinCost)

	hash, err := svc.HashPassword("s3cret-pass")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", hash)

	ok, err := svc.VerifyPassword("s3cret-pass", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.VerifyPassword("wrong-pass", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBcryptPasswordServiceRejectsEmpty(t *testing.T) {
	svc := NewBcryptPasswordService(0)

	_, err := svc.HashPassword("")
	assert.ErrorIs(t, err, ErrEmptyPassword)

	_, err = svc.VerifyPassword("", "hash")
	assert.ErrorIs(t, err, ErrEmptyPassword)
}

func TestVerifyPasswordMalformedHash(t *testing.T) {
	svc := NewBcryptPasswordService(bcrypt.MinCost)

	_, err := svc.VerifyPassword("pass", "not-a-bcrypt-hash")
	assert.Error(t, err)
}
