package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuctionsText(t *testing.T) {
	out, err := execute(t, "auctions")
	require.NoError(t, err)
	assert.Contains(t, out, "AUCTION SCHEDULE")
	assert.Contains(t, out, "edge 5")
	assert.Contains(t, out, "e20-end")
	assert.Contains(t, out, "End the session now")
}

func TestAuctionsJSON(t *testing.T) {
	out, err := execute(t, "--format", "json", "auctions")
	require.NoError(t, err)
	assert.Contains(t, out, `"trigger_edge": 5`)
	assert.Contains(t, out, `"e5-push3"`)
	assert.Contains(t, out, `"trigger_edge": 20`)
}
