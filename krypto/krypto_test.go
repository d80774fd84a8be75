package krypto_test

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hussein-Mazeh/clientvault/internal/common"
	"github.com/Hussein-Mazeh/clientvault/krypto"
)

func TestDeriveKeyIsDeterministic(t *testing.T) {
	for _, pw := range []string{"secret1", "", "ñandú-🔑", "a much longer passphrase with spaces"} {
		k1 := krypto.DeriveKey(pw)
		k2 := krypto.DeriveKey(pw)
		require.Len(t, k1, krypto.KeySize)
		assert.True(t, k1.Equal(k2), "password %q derived different keys", pw)
	}
}

func TestDeriveKeyDistinguishesPasswords(t *testing.T) {
	assert.False(t, krypto.DeriveKey("secret1").Equal(krypto.DeriveKey("secret2")))
	assert.False(t, krypto.DeriveKey("").Equal(krypto.DeriveKey(" ")))
}

func TestSealOpenRoundTrip(t *testing.T) {
	key := krypto.DeriveKey("secret1")
	for _, s := range []string{"Sup3r!", "", "multi\nline\tvalue", "日本語のパスワード", string(make([]byte, 4096))} {
		sealed, err := krypto.Seal(key, s)
		require.NoError(t, err)
		assert.NotEqual(t, s, sealed)

		got, err := krypto.Open(key, sealed)
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
}

func TestSealUsesFreshNonce(t *testing.T) {
	key := krypto.DeriveKey("secret1")
	a, err := krypto.Seal(key, "same")
	require.NoError(t, err)
	b, err := krypto.Seal(key, "same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestOpenWithWrongKeyFails(t *testing.T) {
	sealed, err := krypto.Seal(krypto.DeriveKey("right"), "Sup3r!")
	require.NoError(t, err)

	got, err := krypto.Open(krypto.DeriveKey("wrong"), sealed)
	require.ErrorIs(t, err, common.ErrDecryption)
	assert.Empty(t, got)
}

func TestOpenRejectsMalformedInput(t *testing.T) {
	key := krypto.DeriveKey("k")
	sealed, err := krypto.Seal(key, "value")
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(sealed)
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0xff
	tampered := base64.StdEncoding.EncodeToString(raw)

	cases := map[string]string{
		"not base64": "%%%not-base64%%%",
		"too short":  base64.StdEncoding.EncodeToString([]byte("short")),
		"tampered":   tampered,
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := krypto.Open(key, in)
			assert.ErrorIs(t, err, common.ErrDecryption)
		})
	}
}

func TestOpenRejectsShortKey(t *testing.T) {
	sealed, err := krypto.Seal(krypto.DeriveKey("k"), "value")
	require.NoError(t, err)

	_, err = krypto.Open(krypto.Key([]byte("short")), sealed)
	assert.ErrorIs(t, err, common.ErrDecryption)
}

func TestVerifierRoundTrip(t *testing.T) {
	key := krypto.DeriveKey("secret1")
	encoded := krypto.EncodeVerifier(key)

	parsed, err := krypto.ParseVerifier(encoded)
	require.NoError(t, err)
	assert.True(t, key.Equal(parsed))

	_, err = krypto.ParseVerifier("zz")
	assert.Error(t, err)
	_, err = krypto.ParseVerifier("abcd")
	assert.Error(t, err)
}

func TestKeyCloneAndWipe(t *testing.T) {
	key := krypto.DeriveKey("secret1")
	clone := key.Clone()
	require.True(t, key.Equal(clone))

	clone.Wipe()
	assert.Equal(t, make([]byte, krypto.KeySize), []byte(clone))
	assert.False(t, key.Equal(clone))
	assert.Nil(t, krypto.Key(nil).Clone())
}
