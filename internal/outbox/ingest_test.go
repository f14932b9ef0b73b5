package outbox

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/klppl/chatternet-go/internal/apperr"
	"github.com/klppl/chatternet-go/internal/model"
	"github.com/klppl/chatternet-go/internal/store"
)

type testActor struct {
	key    *model.Key
	did    string
	actor  string
}

func newTestActor(t *testing.T) testActor {
	t.Helper()
	key, err := model.NewKey()
	require.NoError(t, err)
	did, err := model.DIDFromKey(key)
	require.NoError(t, err)
	actorID, err := model.ActorIdFromDID(did)
	require.NoError(t, err)
	return testActor{key: key, did: did, actor: actorID}
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open("sqlite::memory:")
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { s.Close() })
	return s
}

func buildMessage(t *testing.T, a testActor, activityType model.ActivityType, object []string, opts model.NewMessageOpts) *model.Message {
	t.Helper()
	msg, err := model.NewMessage(a.key, a.did, a.actor, activityType, object, time.Now().UTC().Format(time.RFC3339), opts)
	require.NoError(t, err)
	return msg
}

func TestIngestMessageSelfAddressedCreateIsVisibleToSender(t *testing.T) {
	s := newTestStore(t)
	server := newTestActor(t)
	alice := newTestActor(t)

	note, err := model.NewNoteMd1k("hello", alice.actor, nil)
	require.NoError(t, err)
	require.NoError(t, s.PutDocument(context.Background(), s.DB(), note.ID, `{"id":"`+note.ID+`"}`))

	msg := buildMessage(t, alice, model.Create, []string{note.ID}, model.NewMessageOpts{
		To: []string{alice.actor},
	})

	srv := Server{ActorID: server.actor, Key: server.key, DID: server.did}
	status, err := IngestMessage(context.Background(), s, srv, alice.did, msg)
	require.NoError(t, err)
	require.Equal(t, Stored, status)

	page, err := s.GetInboxForActor(context.Background(), s.DB(), alice.actor, 10, nil)
	require.NoError(t, err)
	require.Equal(t, []string{msg.ID}, page.Items)
}

func TestIngestMessageFollowThenSee(t *testing.T) {
	s := newTestStore(t)
	server := newTestActor(t)
	alice := newTestActor(t)
	bob := newTestActor(t)
	srv := Server{ActorID: server.actor, Key: server.key, DID: server.did}

	follow := buildMessage(t, bob, model.Follow, []string{alice.actor}, model.NewMessageOpts{})
	status, err := IngestMessage(context.Background(), s, srv, bob.did, follow)
	require.NoError(t, err)
	require.Equal(t, Stored, status)

	post := buildMessage(t, alice, model.Create, nil, model.NewMessageOpts{
		To: []string{alice.actor + "/followers"},
	})
	status, err = IngestMessage(context.Background(), s, srv, alice.did, post)
	require.NoError(t, err)
	require.Equal(t, Stored, status)

	page, err := s.GetInboxForActor(context.Background(), s.DB(), bob.actor, 10, nil)
	require.NoError(t, err)
	require.Equal(t, []string{post.ID}, page.Items)
}

func TestIngestMessageAutoViewRelaysToServerFollowers(t *testing.T) {
	s := newTestStore(t)
	server := newTestActor(t)
	alice := newTestActor(t)
	bob := newTestActor(t)
	srv := Server{ActorID: server.actor, Key: server.key, DID: server.did}

	// bob follows the server, so he sees the server's own View relays.
	follow := buildMessage(t, bob, model.Follow, []string{server.actor}, model.NewMessageOpts{})
	_, err := IngestMessage(context.Background(), s, srv, bob.did, follow)
	require.NoError(t, err)

	// the server follows alice, so it sees (and auto-views) her posts.
	require.NoError(t, s.PutActorFollowing(context.Background(), s.DB(), server.actor, alice.actor))
	require.NoError(t, s.PutActorAudience(context.Background(), s.DB(), server.actor, alice.actor+"/followers"))

	post := buildMessage(t, alice, model.Create, nil, model.NewMessageOpts{
		To: []string{alice.actor + "/followers"},
	})
	status, err := IngestMessage(context.Background(), s, srv, alice.did, post)
	require.NoError(t, err)
	require.Equal(t, Stored, status)

	page, err := s.GetInboxForActor(context.Background(), s.DB(), bob.actor, 10, nil)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	require.NotEqual(t, post.ID, page.Items[0]) // the relayed View, not the original
}

func TestIngestMessageDedupReturnsAlreadyKnown(t *testing.T) {
	s := newTestStore(t)
	server := newTestActor(t)
	alice := newTestActor(t)
	srv := Server{ActorID: server.actor, Key: server.key, DID: server.did}

	msg := buildMessage(t, alice, model.Create, nil, model.NewMessageOpts{To: []string{alice.actor}})

	status, err := IngestMessage(context.Background(), s, srv, alice.did, msg)
	require.NoError(t, err)
	require.Equal(t, Stored, status)

	status, err = IngestMessage(context.Background(), s, srv, alice.did, msg)
	require.NoError(t, err)
	require.Equal(t, AlreadyKnown, status)
}

func TestIngestMessageRejectsActorIDMismatch(t *testing.T) {
	s := newTestStore(t)
	server := newTestActor(t)
	alice := newTestActor(t)
	bob := newTestActor(t)
	srv := Server{ActorID: server.actor, Key: server.key, DID: server.did}

	msg := buildMessage(t, alice, model.Create, nil, model.NewMessageOpts{To: []string{alice.actor}})

	_, err := IngestMessage(context.Background(), s, srv, bob.did, msg)
	require.Error(t, err)
	require.True(t, apperr.Is(err, apperr.ActorIdWrong))
}

func TestIngestMessageDeleteCascadesOrphanBody(t *testing.T) {
	s := newTestStore(t)
	server := newTestActor(t)
	alice := newTestActor(t)
	srv := Server{ActorID: server.actor, Key: server.key, DID: server.did}

	note, err := model.NewNoteMd1k("bye", alice.actor, nil)
	require.NoError(t, err)

	create := buildMessage(t, alice, model.Create, []string{note.ID}, model.NewMessageOpts{To: []string{alice.actor}})
	status, err := IngestMessage(context.Background(), s, srv, alice.did, create)
	require.NoError(t, err)
	require.Equal(t, Stored, status)

	referenced, err := s.HasMessageWithBody(context.Background(), s.DB(), note.ID)
	require.NoError(t, err)
	require.True(t, referenced)

	del := buildMessage(t, alice, model.Delete, []string{create.ID}, model.NewMessageOpts{To: []string{alice.actor}})
	status, err = IngestMessage(context.Background(), s, srv, alice.did, del)
	require.NoError(t, err)
	require.Equal(t, Stored, status)

	referenced, err = s.HasMessageWithBody(context.Background(), s.DB(), note.ID)
	require.NoError(t, err)
	require.False(t, referenced)

	_, ok, err := s.GetDocument(context.Background(), s.DB(), note.ID)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestIngestMessageDeleteRejectsCrossActor(t *testing.T) {
	s := newTestStore(t)
	server := newTestActor(t)
	alice := newTestActor(t)
	bob := newTestActor(t)
	srv := Server{ActorID: server.actor, Key: server.key, DID: server.did}

	create := buildMessage(t, alice, model.Create, nil, model.NewMessageOpts{To: []string{alice.actor}})
	_, err := IngestMessage(context.Background(), s, srv, alice.did, create)
	require.NoError(t, err)

	del := buildMessage(t, bob, model.Delete, []string{create.ID}, model.NewMessageOpts{To: []string{bob.actor}})
	_, err = IngestMessage(context.Background(), s, srv, bob.did, del)
	require.Error(t, err)
	require.True(t, apperr.Is(err, apperr.MessageNotValid))
}

func TestIngestMessageDeleteRejectsEmptyObjectList(t *testing.T) {
	s := newTestStore(t)
	server := newTestActor(t)
	alice := newTestActor(t)
	srv := Server{ActorID: server.actor, Key: server.key, DID: server.did}

	del := buildMessage(t, alice, model.Delete, nil, model.NewMessageOpts{To: []string{alice.actor}})
	_, err := IngestMessage(context.Background(), s, srv, alice.did, del)
	require.Error(t, err)
	require.True(t, apperr.Is(err, apperr.MessageNotValid))
}

func TestIngestMessageFollowDeleteUnfollows(t *testing.T) {
	s := newTestStore(t)
	server := newTestActor(t)
	alice := newTestActor(t)
	bob := newTestActor(t)
	srv := Server{ActorID: server.actor, Key: server.key, DID: server.did}

	follow := buildMessage(t, bob, model.Follow, []string{alice.actor}, model.NewMessageOpts{})
	_, err := IngestMessage(context.Background(), s, srv, bob.did, follow)
	require.NoError(t, err)

	following, err := s.GetActorFollowings(context.Background(), s.DB(), bob.actor)
	require.NoError(t, err)
	require.Equal(t, []string{alice.actor}, following)

	unfollow := buildMessage(t, bob, model.Delete, []string{follow.ID}, model.NewMessageOpts{})
	_, err = IngestMessage(context.Background(), s, srv, bob.did, unfollow)
	require.NoError(t, err)

	following, err = s.GetActorFollowings(context.Background(), s.DB(), bob.actor)
	require.NoError(t, err)
	require.Empty(t, following)
}
