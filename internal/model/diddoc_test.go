package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveDIDKeyDocument(t *testing.T) {
	key, err := NewKey()
	require.NoError(t, err)
	did, err := DIDFromKey(key)
	require.NoError(t, err)

	doc, err := ResolveDIDKeyDocument(did)
	require.NoError(t, err)
	require.Equal(t, did, doc.ID)
	require.Len(t, doc.VerificationMethod, 1)
	require.Equal(t, VerificationMethodID(did), doc.VerificationMethod[0].ID)
	require.Equal(t, []string{VerificationMethodID(did)}, doc.AssertionMethod)
}

func TestResolveDIDKeyDocumentRejectsNonDidKey(t *testing.T) {
	_, err := ResolveDIDKeyDocument("did:web:example.com")
	require.Error(t, err)
}
