package model

import "errors"

// Sentinel errors for the canonicalizer (C1) and proof engine (C3). Callers
// at the HTTP boundary (internal/server) collapse these into apperr kinds;
// the model package itself stays independent of the error-kind taxonomy.
var (
	ErrUnresolvableContext = errors.New("unresolvable context")
	ErrMalformedDocument   = errors.New("malformed document")
	ErrNoSuchKey           = errors.New("no such verification key")
	ErrBadSignature        = errors.New("bad signature")
	ErrWrongPurpose        = errors.New("verification method wrong purpose")
	ErrDidNotValid         = errors.New("did not valid")
	ErrActorIDMismatch     = errors.New("actor id mismatch")
	ErrMessageIDMismatch   = errors.New("message id is not its CID")
)
