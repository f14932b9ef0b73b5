package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestActorFollowings(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutActorFollowing(ctx, s.DB(), "alice", "bob"))
	require.NoError(t, s.PutActorFollowing(ctx, s.DB(), "alice", "bob")) // idempotent
	require.NoError(t, s.PutActorFollowing(ctx, s.DB(), "alice", "carol"))

	following, err := s.GetActorFollowings(ctx, s.DB(), "alice")
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"bob", "carol"}, following)

	require.NoError(t, s.DeleteActorFollowing(ctx, s.DB(), "alice", "bob"))
	following, err = s.GetActorFollowings(ctx, s.DB(), "alice")
	require.NoError(t, err)
	require.Equal(t, []string{"carol"}, following)
}

func TestDeleteActorAllFollowing(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutActorFollowing(ctx, s.DB(), "alice", "bob"))
	require.NoError(t, s.PutActorFollowing(ctx, s.DB(), "alice", "carol"))
	require.NoError(t, s.DeleteActorAllFollowing(ctx, s.DB(), "alice"))

	following, err := s.GetActorFollowings(ctx, s.DB(), "alice")
	require.NoError(t, err)
	require.Empty(t, following)
}

func TestGetActorFollowersPagination(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutActorFollowing(ctx, s.DB(), "bob", "alice"))
	require.NoError(t, s.PutActorFollowing(ctx, s.DB(), "carol", "alice"))
	require.NoError(t, s.PutActorFollowing(ctx, s.DB(), "dave", "alice"))

	page, err := s.GetActorFollowers(ctx, s.DB(), "alice", 2, nil)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	require.Equal(t, []string{"dave", "carol"}, page.Items)

	before := page.LowIdx - 1
	next, err := s.GetActorFollowers(ctx, s.DB(), "alice", 2, &before)
	require.NoError(t, err)
	require.Equal(t, []string{"bob"}, next.Items)
}

func TestGetActorFollowersEmptyReturnsNil(t *testing.T) {
	s := newTestStore(t)
	page, err := s.GetActorFollowers(context.Background(), s.DB(), "nobody", 10, nil)
	require.NoError(t, err)
	require.Nil(t, page)
}

func TestActorAudiences(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutActorAudience(ctx, s.DB(), "alice", "bob/followers"))
	auds, err := s.GetActorAudiences(ctx, s.DB(), "alice")
	require.NoError(t, err)
	require.Equal(t, []string{"bob/followers"}, auds)

	require.NoError(t, s.DeleteActorAudience(ctx, s.DB(), "alice", "bob/followers"))
	auds, err = s.GetActorAudiences(ctx, s.DB(), "alice")
	require.NoError(t, err)
	require.Empty(t, auds)
}
