// Package model implements the identity, canonicalization, proof, and
// domain-record layers (C1-C4): keys and DIDs, content-addressed documents,
// linked-data proofs, and the Actor/Message/Document/Collection records.
package model

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// ActivityStreamsContext and SecurityContext are the only two JSON-LD
// context URIs the canonicalizer resolves locally (network fetching is
// disabled per C1's contract).
const (
	ActivityStreamsContext = "https://www.w3.org/ns/activitystreams"
	SecurityContext        = "https://w3id.org/security/v1"
)

// DefaultContext is embedded by every domain record's @context field.
var DefaultContext = []interface{}{ActivityStreamsContext, SecurityContext}

// WithContext wraps a record's canonical JSON form with the default context.
// Retained from the teacher's WithContext helper (internal/ap/types.go) —
// same map-roundtrip idiom, same purpose.
func WithContext(v interface{}, marshal func(interface{}) ([]byte, error), unmarshal func([]byte, interface{}) error) map[string]interface{} {
	data, _ := marshal(v)
	m := make(map[string]interface{})
	_ = unmarshal(data, &m)
	m["@context"] = DefaultContext
	return m
}

// URI is a string identifier. Invariant: contains ':' and is at most 2048
// bytes long (spec §3, §4.4).
type URI string

// Validate checks the URI invariant.
func (u URI) Validate() error {
	s := string(u)
	if !strings.Contains(s, ":") {
		return fmt.Errorf("uri %q: missing ':'", s)
	}
	if len(s) > 2048 {
		return fmt.Errorf("uri %q: exceeds 2048 bytes", s)
	}
	return nil
}

func (u URI) String() string { return string(u) }

// ValidateMaxChars checks that s contains at most n Unicode code points.
func ValidateMaxChars(field string, s string, n int) error {
	if utf8.RuneCountInString(s) > n {
		return fmt.Errorf("%s: exceeds %d code points", field, n)
	}
	return nil
}

// ValidateMaxBytes checks that s's UTF-8 encoding is at most n bytes.
func ValidateMaxBytes(field string, s string, n int) error {
	if len(s) > n {
		return fmt.Errorf("%s: exceeds %d bytes", field, n)
	}
	return nil
}

// ValidateMaxLen checks that a slice has at most n elements (VecMax<T,N>).
func ValidateMaxLen[T any](field string, v []T, n int) error {
	if len(v) > n {
		return fmt.Errorf("%s: exceeds %d elements", field, n)
	}
	return nil
}
