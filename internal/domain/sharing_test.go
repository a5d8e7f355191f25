package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSharedRecipe_GrantAndRevoke(t *testing.T) {
	s := NewSharedRecipe("recipe-1", "alice")
	require.True(t, s.IsEmpty())

	now := time.Now()
	require.NoError(t, s.Grant("bob", now))
	require.NoError(t, s.Grant("carol", now))
	require.ErrorIs(t, s.Grant("bob", now), ErrAlreadyShared)
	require.ErrorIs(t, s.Grant("alice", now), ErrSelfShare)
	require.Len(t, s.SharedWith, 2)

	require.True(t, s.Revoke("bob"))
	require.False(t, s.Revoke("bob"))
	require.False(t, s.IsSharedWith("bob"))
	require.True(t, s.IsSharedWith("carol"))

	require.True(t, s.Revoke("carol"))
	require.True(t, s.IsEmpty())
}
