package model

import (
	"crypto/ed25519"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDIDFromKeyRoundTrip(t *testing.T) {
	key, err := NewKey()
	require.NoError(t, err)

	did, err := DIDFromKey(key)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(did, "did:key:z"))

	pub, err := PublicKeyFromDID(did)
	require.NoError(t, err)
	require.True(t, ed25519.PublicKey(pub).Equal(key.Public))
}

func TestPublicKeyFromDIDRejectsNonDidKey(t *testing.T) {
	_, err := PublicKeyFromDID("did:web:example.com")
	require.ErrorIs(t, err, ErrNoSuchKey)
}

func TestActorIdFromDID(t *testing.T) {
	id, err := ActorIdFromDID("did:key:zAbC")
	require.NoError(t, err)
	require.Equal(t, "did:key:zAbC/actor", id)

	_, err = ActorIdFromDID("not-a-did")
	require.ErrorIs(t, err, ErrDidNotValid)
}

func TestDIDFromActorId(t *testing.T) {
	did, err := DIDFromActorId("did:key:zAbC/actor")
	require.NoError(t, err)
	require.Equal(t, "did:key:zAbC", did)

	cases := []string{
		"did:key:zAbC",        // no path segment
		"did:key:zAbC/",       // empty segment
		"did:key:zAbC/inbox",  // wrong segment
		"not-a-did/actor",     // not a did
	}
	for _, c := range cases {
		_, err := DIDFromActorId(c)
		require.Errorf(t, err, "expected error for %q", c)
	}
}

func TestVerificationMethodID(t *testing.T) {
	did := "did:key:zAbC"
	require.Equal(t, "did:key:zAbC#zAbC", VerificationMethodID(did))
}
