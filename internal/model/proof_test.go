package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSignAndVerifyRoundTrip(t *testing.T) {
	key, err := NewKey()
	require.NoError(t, err)
	did, err := DIDFromKey(key)
	require.NoError(t, err)

	doc := map[string]interface{}{
		"@context": DefaultContext,
		"type":     "Note",
		"content":  "hello",
	}

	proof, err := Sign(doc, key, did)
	require.NoError(t, err)
	require.Equal(t, proofTypeEd25519Signature2020, proof.Type)
	require.Equal(t, VerificationMethodID(did), proof.VerificationMethod)

	require.NoError(t, Verify(doc, proof))
}

func TestVerifyRejectsTamperedDocument(t *testing.T) {
	key, err := NewKey()
	require.NoError(t, err)
	did, err := DIDFromKey(key)
	require.NoError(t, err)

	doc := map[string]interface{}{"@context": DefaultContext, "type": "Note", "content": "hello"}
	proof, err := Sign(doc, key, did)
	require.NoError(t, err)

	tampered := map[string]interface{}{"@context": DefaultContext, "type": "Note", "content": "goodbye"}
	require.Error(t, Verify(tampered, proof))
}

func TestVerifyRejectsWrongSigner(t *testing.T) {
	key1, err := NewKey()
	require.NoError(t, err)
	did1, err := DIDFromKey(key1)
	require.NoError(t, err)

	key2, err := NewKey()
	require.NoError(t, err)

	doc := map[string]interface{}{"@context": DefaultContext, "type": "Note", "content": "hello"}
	proof, err := Sign(doc, key1, did1)
	require.NoError(t, err)

	// Re-sign with a different key but keep the first proof's verificationMethod,
	// simulating an attacker who swaps in their own signature under the original DID.
	forged, err := Sign(doc, key2, did1)
	require.NoError(t, err)
	proof.ProofValue = forged.ProofValue

	require.Error(t, Verify(doc, proof))
}

func TestGetProofDID(t *testing.T) {
	proof := &Proof{VerificationMethod: "did:key:zAbC#zAbC"}
	did, err := GetProofDID(proof)
	require.NoError(t, err)
	require.Equal(t, "did:key:zAbC", did)

	_, err = GetProofDID(&Proof{VerificationMethod: "no-fragment"})
	require.ErrorIs(t, err, ErrNoSuchKey)
}
