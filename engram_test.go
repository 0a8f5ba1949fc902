package engram_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/engram-dev/engram"
)

func TestOpen(t *testing.T) {
	ctx := context.Background()
	s, err := engram.Open(ctx, t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	it, err := s.Create(ctx, engram.CreateInput{Title: "embedded create"})
	require.NoError(t, err)
	assert.Equal(t, engram.StatusOpen, it.Status)
}

func TestConstants(t *testing.T) {
	assert.EqualValues(t, "open", engram.StatusOpen)
	assert.EqualValues(t, "in_progress", engram.StatusInProgress)
	assert.EqualValues(t, "blocked", engram.StatusBlocked)
	assert.EqualValues(t, "closed", engram.StatusClosed)

	assert.EqualValues(t, "blocks", engram.EdgeBlocks)
	assert.EqualValues(t, "parent_child", engram.EdgeParentChild)
	assert.EqualValues(t, "related", engram.EdgeRelated)
}
