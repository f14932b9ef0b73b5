package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewActorRoundTrip(t *testing.T) {
	key, err := NewKey()
	require.NoError(t, err)

	name := "alice"
	actor, err := NewActor(key, ActorPerson, &name)
	require.NoError(t, err)
	require.NoError(t, actor.Verify())

	did, err := actor.DID()
	require.NoError(t, err)
	wantDID, err := DIDFromKey(key)
	require.NoError(t, err)
	require.Equal(t, wantDID, did)

	require.Equal(t, actor.ID+"/inbox", actor.Inbox)
	require.Equal(t, actor.ID+"/outbox", actor.Outbox)
	require.Equal(t, actor.ID+"/following", actor.Following)
	require.Equal(t, actor.ID+"/followers", actor.Followers)
}

func TestActorMarshalIncludesContext(t *testing.T) {
	key, err := NewKey()
	require.NoError(t, err)
	actor, err := NewActor(key, ActorService, nil)
	require.NoError(t, err)

	blob, err := json.Marshal(actor)
	require.NoError(t, err)

	var generic map[string]interface{}
	require.NoError(t, json.Unmarshal(blob, &generic))
	require.Contains(t, generic, "@context")
	require.Contains(t, generic, "proof")
}

func TestActorVerifyRejectsTamperedID(t *testing.T) {
	key, err := NewKey()
	require.NoError(t, err)
	actor, err := NewActor(key, ActorPerson, nil)
	require.NoError(t, err)

	otherKey, err := NewKey()
	require.NoError(t, err)
	otherDID, err := DIDFromKey(otherKey)
	require.NoError(t, err)
	otherID, err := ActorIdFromDID(otherDID)
	require.NoError(t, err)

	actor.ID = otherID
	require.Error(t, actor.Verify())
}

func TestActorVerifyRejectsUnknownType(t *testing.T) {
	key, err := NewKey()
	require.NoError(t, err)
	actor, err := NewActor(key, ActorPerson, nil)
	require.NoError(t, err)

	actor.Type = ActorType("Robot")
	require.Error(t, actor.Verify())
}

func TestNewActorRejectsOverlongName(t *testing.T) {
	key, err := NewKey()
	require.NoError(t, err)
	name := "this name has far more than thirty unicode code points in it"
	_, err = NewActor(key, ActorPerson, &name)
	require.Error(t, err)
}
