package archive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanKey(t *testing.T) {
	got, err := CleanKey("daily//2026-10-18.json")
	require.NoError(t, err)
	assert.Equal(t, "daily/2026-10-18.json", got)

	for _, bad := range []string{"", "  ", "/abs", "../escape", "a/../../b", ".", "x.meta"} {
		_, err := CleanKey(bad)
		assert.Errorf(t, err, "key %q", bad)
	}
}
