package model

// DIDDocument is the subset of the W3C DID Document shape this system
// synthesizes for did:key DIDs (field names follow the generic DID Document
// model in other_examples' bryk-io/pkg/did.Document, narrowed to the one
// verification method a did:key DID ever has).
type DIDDocument struct {
	Context            []string            `json:"@context"`
	ID                 string              `json:"id"`
	VerificationMethod []VerificationMethod `json:"verificationMethod"`
	Authentication     []string            `json:"authentication"`
	AssertionMethod    []string            `json:"assertionMethod"`
}

// VerificationMethod is a single public key entry in a DID Document.
type VerificationMethod struct {
	ID                 string `json:"id"`
	Type               string `json:"type"`
	Controller         string `json:"controller"`
	PublicKeyMultibase string `json:"publicKeyMultibase"`
}

// ResolveDIDKeyDocument synthesizes the DID Document for a did:key DID by
// decoding its embedded Ed25519 public key — no network resolution, per
// spec §4.7's "Document get" operation.
func ResolveDIDKeyDocument(did string) (*DIDDocument, error) {
	if _, err := PublicKeyFromDID(did); err != nil {
		return nil, err
	}
	vmID := VerificationMethodID(did)
	vm := VerificationMethod{
		ID:                 vmID,
		Type:               "Ed25519VerificationKey2020",
		Controller:         did,
		PublicKeyMultibase: vmID[len(did)+1:],
	}
	return &DIDDocument{
		Context:            []string{"https://www.w3.org/ns/did/v1", "https://w3id.org/security/suites/ed25519-2020/v1"},
		ID:                 did,
		VerificationMethod: []VerificationMethod{vm},
		Authentication:     []string{vmID},
		AssertionMethod:    []string{vmID},
	}, nil
}
