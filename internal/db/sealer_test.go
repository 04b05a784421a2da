package db

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSealerRoundTrip(t *testing.T) {
	s, err := NewSealer("s3cret")
	require.NoError(t, err)
	assert.True(t, s.Enabled())

	a, err := s.Seal("jwt_token", []byte("value"))
	require.NoError(t, err)
	b, err := s.Seal("jwt_token", []byte("value"))
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	out, err := s.Open("jwt_token", a)
	require.NoError(t, err)
	assert.Equal(t, "value", string(out))
}

func TestSealerRejectsTampering(t *testing.T) {
	s, err := NewSealer("s3cret")
	require.NoError(t, err)
	sealed, err := s.Seal("jwt_token", []byte("value"))
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(sealed, sealedPrefix))
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0x01
	tampered := sealedPrefix + base64.StdEncoding.EncodeToString(raw)
	_, err = s.Open("jwt_token", tampered)
	assert.ErrorIs(t, err, ErrUnseal)

	other, err := NewSealer("different")
	require.NoError(t, err)
	_, err = other.Open("jwt_token", sealed)
	assert.ErrorIs(t, err, ErrUnseal)

	_, err = s.Open("jwt_token", sealedPrefix+"AAAA")
	assert.ErrorIs(t, err, ErrUnseal)
}

func TestSealerPassthrough(t *testing.T) {
	plain, err := NewSealer("  ")
	require.NoError(t, err)
	assert.False(t, plain.Enabled())

	v, err := plain.Seal("k", []byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, "hello", v)

	out, err := plain.Open("k", "hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(out))

	keyed, err := NewSealer("s3cret")
	require.NoError(t, err)
	sealed, err := keyed.Seal("k", []byte("hello"))
	require.NoError(t, err)
	_, err = plain.Open("k", sealed)
	assert.Error(t, err)

	// rows written before a secret was configured stay readable
	out, err = keyed.Open("k", "legacy")
	require.NoError(t, err)
	assert.Equal(t, "legacy", string(out))
}
