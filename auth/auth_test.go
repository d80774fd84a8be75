package auth_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hussein-Mazeh/clientvault/auth"
	"github.com/Hussein-Mazeh/clientvault/internal/common"
)

const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*()_+~`|}{[]:;?><,./-="

func TestGeneratePasswordLengthAndAlphabet(t *testing.T) {
	for _, n := range []int{1, 16, 64} {
		pw, err := auth.GeneratePassword(n)
		require.NoError(t, err)
		assert.Len(t, pw, n)
		for _, r := range pw {
			assert.True(t, strings.ContainsRune(charset, r), "unexpected %q", r)
		}
	}
}

func TestGeneratePasswordDefaultsTo16(t *testing.T) {
	for _, n := range []int{0, -3} {
		pw, err := auth.GeneratePassword(n)
		require.NoError(t, err)
		assert.Len(t, pw, auth.DefaultGenerateLength)
	}
}

func TestGeneratePasswordVaries(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		pw, err := auth.GeneratePassword(24)
		require.NoError(t, err)
		seen[pw] = true
	}
	assert.Len(t, seen, 20)
}

func TestValidateMasterPassword(t *testing.T) {
	assert.NoError(t, auth.ValidateMasterPassword("secret12", 8))
	assert.ErrorIs(t, auth.ValidateMasterPassword("short", 8), common.ErrInvalidInput)
	assert.ErrorIs(t, auth.ValidateMasterPassword("", 0), common.ErrInvalidInput)
	assert.NoError(t, auth.ValidateMasterPassword("ñandú123", 8), "length counts characters, not bytes")
	assert.Error(t, auth.ValidateMasterPassword("ñandú1", 8))
}

func TestEstimateIsAdvisory(t *testing.T) {
	weak := auth.Estimate("password")
	strong := auth.Estimate("correct-Horse-battery-staple-42!")

	assert.GreaterOrEqual(t, weak.Score, 0)
	assert.LessOrEqual(t, strong.Score, 4)
	assert.Less(t, weak.Score, strong.Score)
	assert.NotEmpty(t, strong.CrackTime)
	assert.Equal(t, "very weak", auth.Strength{Score: 0}.Label())
	assert.Equal(t, "very strong", auth.Strength{Score: 4}.Label())
}
