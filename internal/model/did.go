package model

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"io"
	"strings"

	"github.com/multiformats/go-multibase"
)

// ed25519MulticodecPrefix is the two-byte unsigned-varint encoding of the
// Ed25519 public key multicodec code 0xed (bytes 0xed, 0x01), per the
// did:key method specification.
var ed25519MulticodecPrefix = []byte{0xed, 0x01}

// Key is an Ed25519 key pair, the C2 "Key" type.
type Key struct {
	Public  ed25519.PublicKey
	Private ed25519.PrivateKey
}

// BuildKey generates a new Ed25519 key pair from rng (crypto/rand.Reader in
// production; a deterministic reader in tests).
func BuildKey(rng io.Reader) (*Key, error) {
	pub, priv, err := ed25519.GenerateKey(rng)
	if err != nil {
		return nil, fmt.Errorf("generate ed25519 key: %w", err)
	}
	return &Key{Public: pub, Private: priv}, nil
}

// NewKey generates a key using crypto/rand.
func NewKey() (*Key, error) { return BuildKey(rand.Reader) }

// DIDFromKey encodes the key's public half as did:key:<multibase>.
func DIDFromKey(k *Key) (string, error) {
	return DIDFromPublicKey(k.Public)
}

// DIDFromPublicKey encodes a raw Ed25519 public key as a did:key string.
func DIDFromPublicKey(pub ed25519.PublicKey) (string, error) {
	buf := make([]byte, 0, len(ed25519MulticodecPrefix)+len(pub))
	buf = append(buf, ed25519MulticodecPrefix...)
	buf = append(buf, pub...)
	encoded, err := multibase.Encode(multibase.Base58BTC, buf)
	if err != nil {
		return "", fmt.Errorf("multibase encode: %w", err)
	}
	return "did:key:" + encoded, nil
}

// PublicKeyFromDID decodes the Ed25519 public key embedded in a did:key DID.
func PublicKeyFromDID(did string) (ed25519.PublicKey, error) {
	const prefix = "did:key:"
	if !strings.HasPrefix(did, prefix) {
		return nil, fmt.Errorf("%w: not a did:key DID: %s", ErrNoSuchKey, did)
	}
	_, data, err := multibase.Decode(strings.TrimPrefix(did, prefix))
	if err != nil {
		return nil, fmt.Errorf("%w: multibase decode: %v", ErrNoSuchKey, err)
	}
	if len(data) != len(ed25519MulticodecPrefix)+ed25519.PublicKeySize {
		return nil, fmt.Errorf("%w: unexpected key length", ErrNoSuchKey)
	}
	if data[0] != ed25519MulticodecPrefix[0] || data[1] != ed25519MulticodecPrefix[1] {
		return nil, fmt.Errorf("%w: not an ed25519 did:key", ErrNoSuchKey)
	}
	return ed25519.PublicKey(data[len(ed25519MulticodecPrefix):]), nil
}

// ActorIdFromDID derives the actor id "<did>/actor". Rejects dids not
// beginning with "did:", per chatternet/src/didkey.rs::actor_id_from_did.
func ActorIdFromDID(did string) (string, error) {
	if !strings.HasPrefix(did, "did:") {
		return "", fmt.Errorf("%w: does not start with 'did:': %s", ErrDidNotValid, did)
	}
	return did + "/actor", nil
}

// DIDFromActorId is the inverse of ActorIdFromDID. Rejects actor ids whose
// trailing path segment is not exactly "actor", per
// chatternet/src/didkey.rs::did_from_actor_id's test suite (a missing path
// segment, an empty segment, or any segment other than "actor" all fail).
func DIDFromActorId(actorID string) (string, error) {
	idx := strings.Index(actorID, "/")
	if idx < 0 {
		return "", fmt.Errorf("%w: actor id has no path segment: %s", ErrDidNotValid, actorID)
	}
	did := actorID[:idx]
	path := actorID[idx+1:]
	if path != "actor" {
		return "", fmt.Errorf("%w: actor id path is not 'actor': %s", ErrDidNotValid, actorID)
	}
	if !strings.HasPrefix(did, "did:") {
		return "", fmt.Errorf("%w: does not start with 'did:': %s", ErrDidNotValid, did)
	}
	return did, nil
}

// VerificationMethodID returns the assertion-method verification method id
// for a did:key DID — the did:key convention of repeating the DID's own
// multibase-encoded key as the id's fragment: "<did>#<multibase-key>".
func VerificationMethodID(did string) string {
	const prefix = "did:key:"
	return did + "#" + strings.TrimPrefix(did, prefix)
}
