package model

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
	"github.com/piprate/json-gold/ld"
)

// rawCIDCodec is the multicodec code for "raw binary" (0x55), per C1 step 5.
const rawCIDCodec = 0x55

// localContexts is the fixed, locally-cached context map the canonicalizer
// resolves against. Network fetching of contexts is disabled: any URI not in
// this map fails with UnresolvableContext.
var localContexts = map[string]interface{}{
	ActivityStreamsContext: activityStreamsContextDoc,
	SecurityContext:        securityContextDoc,
}

// activityStreamsContextDoc and securityContextDoc are minimal JSON-LD
// context documents sufficient to expand the closed set of terms this system
// ever emits (Actor/Message/Document fields and the security vocabulary's
// proof/verificationMethod/Ed25519Signature2020 terms).
var activityStreamsContextDoc = map[string]interface{}{
	"@context": map[string]interface{}{
		"as":           "https://www.w3.org/ns/activitystreams#",
		"id":           "@id",
		"type":         "@type",
		"actor":        map[string]interface{}{"@id": "as:actor", "@type": "@id"},
		"object":       map[string]interface{}{"@id": "as:object", "@type": "@id"},
		"to":           map[string]interface{}{"@id": "as:to", "@type": "@id"},
		"cc":           map[string]interface{}{"@id": "as:cc", "@type": "@id"},
		"audience":     map[string]interface{}{"@id": "as:audience", "@type": "@id"},
		"origin":       map[string]interface{}{"@id": "as:origin", "@type": "@id"},
		"published":    map[string]interface{}{"@id": "as:published", "@type": "http://www.w3.org/2001/XMLSchema#dateTime"},
		"content":      "as:content",
		"mediaType":    "as:mediaType",
		"attributedTo": map[string]interface{}{"@id": "as:attributedTo", "@type": "@id"},
		"inReplyTo":    map[string]interface{}{"@id": "as:inReplyTo", "@type": "@id"},
		"name":         "as:name",
		"inbox":        map[string]interface{}{"@id": "as:inbox", "@type": "@id"},
		"outbox":       map[string]interface{}{"@id": "as:outbox", "@type": "@id"},
		"following":    map[string]interface{}{"@id": "as:following", "@type": "@id"},
		"followers":    map[string]interface{}{"@id": "as:followers", "@type": "@id"},
		"items":        map[string]interface{}{"@id": "as:items", "@type": "@id"},
		"partOf":       map[string]interface{}{"@id": "as:partOf", "@type": "@id"},
		"next":         map[string]interface{}{"@id": "as:next", "@type": "@id"},
	},
}

var securityContextDoc = map[string]interface{}{
	"@context": map[string]interface{}{
		"sec":                "https://w3id.org/security#",
		"proof":              map[string]interface{}{"@id": "sec:proof", "@type": "@id", "@container": "@graph"},
		"Ed25519Signature2020": "sec:Ed25519Signature2020",
		"verificationMethod": map[string]interface{}{"@id": "sec:verificationMethod", "@type": "@id"},
		"proofPurpose":       "sec:proofPurpose",
		"proofValue":         "sec:proofValue",
		"created":            map[string]interface{}{"@id": "http://purl.org/dc/terms/created", "@type": "http://www.w3.org/2001/XMLSchema#dateTime"},
	},
}

// localDocumentLoader resolves only the two context URIs above; any other
// IRI is rejected so the canonicalizer never performs network I/O.
type localDocumentLoader struct{}

func (localDocumentLoader) LoadDocument(u string) (*ld.RemoteDocument, error) {
	doc, ok := localContexts[u]
	if !ok {
		return nil, fmt.Errorf("unresolvable context: %s", u)
	}
	return &ld.RemoteDocument{DocumentURL: u, Document: doc}, nil
}

// NormalizeDataset runs C1 steps 1-3: serialize, JSON-LD expand against the
// local context map, and normalize to canonical N-Quads. Exposed for the
// proof engine (C3), which signs this exact byte sequence rather than its
// hash.
func NormalizeDataset(doc interface{}) (string, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("%w: marshal document: %v", ErrMalformedDocument, err)
	}

	var parsed interface{}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}

	proc := ld.NewJsonLdProcessor()
	opts := ld.NewJsonLdOptions("")
	opts.DocumentLoader = localDocumentLoader{}
	opts.Format = "application/n-quads"
	opts.Algorithm = "URDNA2015"

	normalized, err := proc.Normalize(parsed, opts)
	if err != nil {
		if isUnresolvableContextErr(err) {
			return "", fmt.Errorf("%w: %v", ErrUnresolvableContext, err)
		}
		return "", fmt.Errorf("%w: normalize: %v", ErrMalformedDocument, err)
	}

	nquads, ok := normalized.(string)
	if !ok {
		return "", fmt.Errorf("%w: normalize did not return n-quads string", ErrMalformedDocument)
	}
	return nquads, nil
}

// CID computes the content identifier of a JSON-serializable document,
// implementing C1's five-step operation. The document MUST NOT include its
// own "id" field — CID(record-without-id) per spec §3.
func CID(doc interface{}) (string, error) {
	nquads, err := NormalizeDataset(doc)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256([]byte(nquads))
	mh, err := multihash.Encode(sum[:], multihash.SHA2_256)
	if err != nil {
		return "", fmt.Errorf("encode multihash: %w", err)
	}

	c := cid.NewCidV1(rawCIDCodec, mh)
	return c.String(), nil
}

// URIFromCID wraps a CID string as a urn:cid: URI, per the glossary's CID
// entry and chatternet/src/cid.rs::uri_from_cid.
func URIFromCID(cidStr string) string {
	return "urn:cid:" + cidStr
}

// CIDFromURI extracts the CID string from a urn:cid: URI.
func CIDFromURI(uri string) (string, error) {
	const prefix = "urn:cid:"
	if len(uri) <= len(prefix) || uri[:len(prefix)] != prefix {
		return "", fmt.Errorf("%w: not a urn:cid: uri", ErrMalformedDocument)
	}
	return uri[len(prefix):], nil
}

// VerifyCID reports whether id is the CID of doc (record-without-id),
// implementing the CidVerifier mixin as a free function (§9 design note:
// composed by each record's Verify(), not inherited).
func VerifyCID(id string, doc interface{}) bool {
	computed, err := CID(doc)
	if err != nil {
		return false
	}
	return id == URIFromCID(computed)
}

func isUnresolvableContextErr(err error) bool {
	e, ok := err.(*ld.JsonLdError)
	if !ok {
		return false
	}
	return e.Code == ld.LoadingRemoteContextFailed || e.Code == ld.LoadingDocumentFailed
}
