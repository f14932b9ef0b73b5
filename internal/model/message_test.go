package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestActor(t *testing.T) (*Key, string, string) {
	t.Helper()
	key, err := NewKey()
	require.NoError(t, err)
	did, err := DIDFromKey(key)
	require.NoError(t, err)
	actorID, err := ActorIdFromDID(did)
	require.NoError(t, err)
	return key, did, actorID
}

func TestNewMessageRoundTrip(t *testing.T) {
	key, did, actorID := newTestActor(t)

	msg, err := NewMessage(key, did, actorID, Create, []string{"urn:cid:bafkqaaa"}, time.Now().UTC().Format(time.RFC3339), NewMessageOpts{
		To: []string{actorID + "/followers"},
	})
	require.NoError(t, err)
	require.NoError(t, msg.Verify())
	require.Contains(t, msg.ID, "urn:cid:")
}

func TestMessageVerifyRejectsUnknownType(t *testing.T) {
	key, did, actorID := newTestActor(t)
	msg, err := NewMessage(key, did, actorID, Create, nil, "2024-01-01T00:00:00Z", NewMessageOpts{})
	require.NoError(t, err)

	msg.Type = ActivityType("Teleport")
	require.Error(t, msg.Verify())
}

func TestMessageVerifyRejectsTamperedID(t *testing.T) {
	key, did, actorID := newTestActor(t)
	msg, err := NewMessage(key, did, actorID, Like, []string{"urn:cid:bafkqaaa"}, "2024-01-01T00:00:00Z", NewMessageOpts{})
	require.NoError(t, err)

	msg.ID = "urn:cid:bafkqbbb"
	require.ErrorIs(t, msg.Verify(), ErrMessageIDMismatch)
}

func TestNewMessageRejectsTooManyObjects(t *testing.T) {
	key, did, actorID := newTestActor(t)

	objects := make([]string, MaxObjects+1)
	for i := range objects {
		objects[i] = "urn:cid:bafkqaaa"
	}

	_, err := NewMessage(key, did, actorID, Create, objects, "2024-01-01T00:00:00Z", NewMessageOpts{})
	require.ErrorIs(t, err, ErrMalformedDocument)
}

func TestNewMessageRejectsTooManyAudience(t *testing.T) {
	key, did, actorID := newTestActor(t)

	audience := make([]string, MaxAudience+1)
	for i := range audience {
		audience[i] = "urn:cid:bafkqaaa"
	}

	_, err := NewMessage(key, did, actorID, Create, nil, "2024-01-01T00:00:00Z", NewMessageOpts{Audience: audience})
	require.ErrorIs(t, err, ErrMalformedDocument)
}
