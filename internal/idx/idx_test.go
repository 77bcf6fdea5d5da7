package idx

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkarpins/docsync/internal/common"
)

func TestGenerate_CanonicalForm(t *testing.T) {
	id := Generate()
	assert.Len(t, id, 36)
	assert.Equal(t, strings.ToLower(id), id)
	assert.True(t, Validate(id))
}

func TestGenerate_Uniqueness(t *testing.T) {
	const n = 10000
	seen := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		id := Generate()
		_, dup := seen[id]
		require.False(t, dup, "duplicate identifier after %d draws: %s", i, id)
		seen[id] = struct{}{}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		candidate string
		want      bool
	}{
		{"valid v4", "9b2f8164-1d6e-4f7a-8c3b-2a9d51f0e6c4", true},
		{"upper case rejected", "9B2F8164-1D6E-4F7A-8C3B-2A9D51F0E6C4", false},
		{"not a uuid", "gas-bill-2024", false},
		{"v1 rejected", "f47ac10b-58cc-11e4-8ed2-0800200c9a66", false},
		{"no hyphens", "9b2f81641d6e4f7a8c3b2a9d51f0e6c4", false},
		{"empty", "", false},
		{"urn form rejected", "urn:uuid:9b2f8164-1d6e-4f7a-8c3b-2a9d51f0e6c4", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Validate(tc.candidate))
		})
	}
}

func TestNormalize(t *testing.T) {
	id, err := Normalize("  9B2F8164-1D6E-4F7A-8C3B-2A9D51F0E6C4 ")
	require.NoError(t, err)
	assert.Equal(t, "9b2f8164-1d6e-4f7a-8c3b-2a9d51f0e6c4", id)

	_, err = Normalize("not-an-identifier")
	assert.ErrorIs(t, err, common.ErrInvalidFormat)
}
