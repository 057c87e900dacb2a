package hashing

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArgon2Hasher_HashAndVerify(t *testing.T) {
	h := NewArgon2Hasher()

	encoded, err := h.Hash("Sup3r-secret")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(encoded, "$argon2id$"), "unexpected format: %s", encoded)

	ok, err := h.Verify("Sup3r-secret", encoded)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify("wrong-password", encoded)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestArgon2Hasher_SaltsDiffer(t *testing.T) {
	h := NewArgon2Hasher()

	a, err := h.Hash("same-password")
	require.NoError(t, err)
	b, err := h.Hash("same-password")
	require.NoError(t, err)

	// одинаковый пароль, разные соли -> разные хэши
	assert.NotEqual(t, a, b)
}

func TestArgon2Hasher_MalformedEncoded(t *testing.T) {
	h := NewArgon2Hasher()

	_, err := h.Verify("pw", "not-a-hash")
	assert.Error(t, err)

	_, err = h.Verify("pw", "$bcrypt$v=19$m=1,t=1,p=1$c2FsdA$a2V5")
	assert.Error(t, err)
}

func TestArgon2Hasher_VerifySurvivesParameterChange(t *testing.T) {
	// A hash produced with other parameters must still verify, since the
	// parameters are read back from the encoded form.
	old := &Argon2Hasher{time: 2, memory: 32 * 1024, threads: 2, saltLen: 16, keyLen: 32}
	encoded, err := old.Hash("migrate-me")
	require.NoError(t, err)

	ok, err := NewArgon2Hasher().Verify("migrate-me", encoded)
	require.NoError(t, err)
	assert.True(t, ok)
}
