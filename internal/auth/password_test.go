package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marsesrobotics/dashboard/internal/config"
)

func TestArgon2idHashAndVerify(t *testing.T) {
	p := NewPasswordHasher(config.PasswordHashArgon2id)

	hash, err := p.Hash("Password1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=65536,t=3,p=4$"))

	assert.True(t, p.Verify(hash, "Password1"))
	assert.False(t, p.Verify(hash, "password1"))

	again, err := p.Hash("Password1")
	require.NoError(t, err)
	assert.NotEqual(t, hash, again, "salt must differ per hash")
}

func TestBcryptHashAndVerify(t *testing.T) {
	p := NewPasswordHasher(config.PasswordHashBcrypt)

	hash, err := p.Hash("Password1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$2a$12$"))

	assert.True(t, p.Verify(hash, "Password1"))
	assert.False(t, p.Verify(hash, "Password2"))
}

func TestVerifyAcceptsEitherFormat(t *testing.T) {
	bcryptHash, err := NewPasswordHasher(config.PasswordHashBcrypt).Hash("Password1")
	require.NoError(t, err)

	argon := NewPasswordHasher(config.PasswordHashArgon2id)
	assert.True(t, argon.Verify(bcryptHash, "Password1"))
}

func TestVerifyRejectsUnknownOrBrokenHashes(t *testing.T) {
	p := NewPasswordHasher("")

	for _, h := range []string{
		"",
		"Password1",
		"$argon2id$v=19$m=65536,t=3,p=4$onlyfive",
		"$argon2id$v=18$m=65536,t=3,p=4$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=65536,t=3,p=4$!!!$aGFzaA",
		"$5$rounds=5000$salt$hash",
	} {
		assert.False(t, p.Verify(h, "Password1"), "hash %q", h)
	}
}
