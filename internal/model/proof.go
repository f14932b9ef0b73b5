package model

import (
	"crypto/ed25519"
	"fmt"
	"strings"
	"time"

	"github.com/multiformats/go-multibase"
)

// Proof is an Ed25519 linked-data proof attached to an Actor or Message,
// implementing C3.
type Proof struct {
	Type               string `json:"type"`
	Created            string `json:"created,omitempty"`
	VerificationMethod string `json:"verificationMethod"`
	ProofPurpose       string `json:"proofPurpose"`
	ProofValue         string `json:"proofValue"`
}

const (
	proofTypeEd25519Signature2020 = "Ed25519Signature2020"
	proofPurposeAssertionMethod   = "assertionMethod"
)

// Sign produces a proof over doc's canonicalized dataset (C1 steps 1-3, not
// hashed) using key, implementing C3's Sign operation.
func Sign(doc interface{}, key *Key, did string) (*Proof, error) {
	nquads, err := NormalizeDataset(doc)
	if err != nil {
		return nil, err
	}
	sig := ed25519.Sign(key.Private, []byte(nquads))
	sigEncoded, err := multibase.Encode(multibase.Base58BTC, sig)
	if err != nil {
		return nil, fmt.Errorf("multibase encode signature: %w", err)
	}
	return &Proof{
		Type:               proofTypeEd25519Signature2020,
		Created:            time.Now().UTC().Format(time.RFC3339),
		VerificationMethod: VerificationMethodID(did),
		ProofPurpose:       proofPurposeAssertionMethod,
		ProofValue:         sigEncoded,
	}, nil
}

// GetProofDID extracts the signer's DID from a proof's verificationMethod,
// per chatternet/src/proof.rs::get_proof_did (split on the first '#').
func GetProofDID(proof *Proof) (string, error) {
	idx := strings.Index(proof.VerificationMethod, "#")
	if idx < 0 {
		return "", fmt.Errorf("%w: verificationMethod has no fragment", ErrNoSuchKey)
	}
	return proof.VerificationMethod[:idx], nil
}

// Verify checks proof against doc's canonicalized dataset, implementing C3's
// Verify operation:
//  1. resolve the DID in proof.VerificationMethod to its assertion-method key
//  2. confirm the referenced verification method is present
//  3. check the signature over the canonicalized dataset
func Verify(doc interface{}, proof *Proof) error {
	did, err := GetProofDID(proof)
	if err != nil {
		return err
	}

	pub, err := PublicKeyFromDID(did)
	if err != nil {
		return err
	}

	expectedVM := VerificationMethodID(did)
	if proof.VerificationMethod != expectedVM {
		return fmt.Errorf("%w: verification method %q not an assertion method of %q", ErrWrongPurpose, proof.VerificationMethod, did)
	}

	if proof.Type != proofTypeEd25519Signature2020 {
		return fmt.Errorf("%w: unsupported proof type %q", ErrWrongPurpose, proof.Type)
	}

	_, sig, err := multibase.Decode(proof.ProofValue)
	if err != nil {
		return fmt.Errorf("%w: decode proofValue: %v", ErrBadSignature, err)
	}

	nquads, err := NormalizeDataset(doc)
	if err != nil {
		return err
	}

	if !ed25519.Verify(pub, []byte(nquads), sig) {
		return ErrBadSignature
	}
	return nil
}
