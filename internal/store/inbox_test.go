package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

// seedMessage records a minimal message row plus one audience join, the
// shape the outbox package builds for every stored message.
func seedMessage(t *testing.T, s *Store, id, actorID, audienceID string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.PutMessageId(ctx, s.DB(), id, actorID))
	require.NoError(t, s.PutMessageAudience(ctx, s.DB(), id, audienceID))
}

func TestInboxVisibleToAudienceMember(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedMessage(t, s, "urn:cid:m1", "alice", "bob/followers")
	require.NoError(t, s.PutActorAudience(ctx, s.DB(), "bob", "bob/followers"))

	page, err := s.GetInboxForActor(ctx, s.DB(), "bob", 10, nil)
	require.NoError(t, err)
	require.Equal(t, []string{"urn:cid:m1"}, page.Items)
}

func TestInboxVisibleBySelfAuthorship(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedMessage(t, s, "urn:cid:m1", "alice", "alice")

	page, err := s.GetInboxForActor(ctx, s.DB(), "alice", 10, nil)
	require.NoError(t, err)
	require.Equal(t, []string{"urn:cid:m1"}, page.Items)
}

func TestInboxNotVisibleWithoutFollowOrAudience(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedMessage(t, s, "urn:cid:m1", "alice", "alice/followers")

	page, err := s.GetInboxForActor(ctx, s.DB(), "bob", 10, nil)
	require.NoError(t, err)
	require.Nil(t, page)
}

func TestInboxVisibleThroughFollowing(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedMessage(t, s, "urn:cid:m1", "alice", "alice/followers")
	require.NoError(t, s.PutActorFollowing(ctx, s.DB(), "bob", "alice"))
	require.NoError(t, s.PutActorAudience(ctx, s.DB(), "bob", "alice/followers"))

	page, err := s.GetInboxForActor(ctx, s.DB(), "bob", 10, nil)
	require.NoError(t, err)
	require.Equal(t, []string{"urn:cid:m1"}, page.Items)
}

func TestGetInboxFromActorNarrowsAuthor(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedMessage(t, s, "urn:cid:m1", "alice", "bob/followers")
	seedMessage(t, s, "urn:cid:m2", "carol", "bob/followers")
	require.NoError(t, s.PutActorAudience(ctx, s.DB(), "bob", "bob/followers"))

	page, err := s.GetInboxFromActor(ctx, s.DB(), "bob", "alice", 10, nil)
	require.NoError(t, err)
	require.Equal(t, []string{"urn:cid:m1"}, page.Items)
}

func TestInboxContainsMessage(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedMessage(t, s, "urn:cid:m1", "alice", "bob/followers")
	require.NoError(t, s.PutActorAudience(ctx, s.DB(), "bob", "bob/followers"))

	seen, err := s.InboxContainsMessage(ctx, s.DB(), "bob", "urn:cid:m1")
	require.NoError(t, err)
	require.True(t, seen)

	seen, err = s.InboxContainsMessage(ctx, s.DB(), "carol", "urn:cid:m1")
	require.NoError(t, err)
	require.False(t, seen)
}
