package model

import (
	"encoding/json"
	"fmt"
)

// ActorType is the closed set of actor types, per spec §3.
type ActorType string

const (
	ActorApplication  ActorType = "Application"
	ActorGroup        ActorType = "Group"
	ActorOrganization ActorType = "Organization"
	ActorPerson       ActorType = "Person"
	ActorService      ActorType = "Service"
)

var validActorTypes = map[ActorType]bool{
	ActorApplication:  true,
	ActorGroup:        true,
	ActorOrganization: true,
	ActorPerson:       true,
	ActorService:      true,
}

func (t ActorType) Validate() error {
	if !validActorTypes[t] {
		return fmt.Errorf("%w: unknown actor type %q", ErrMalformedDocument, t)
	}
	return nil
}

// actorFields holds every Actor field the proof is signed over. Actor's id
// is DID-derived, not CID-derived, so unlike Message and Document the id
// field IS part of the signed payload.
type actorFields struct {
	ID         string    `json:"id"`
	Type       ActorType `json:"type"`
	Inbox      string    `json:"inbox"`
	Outbox     string    `json:"outbox"`
	Following  string    `json:"following"`
	Followers  string    `json:"followers"`
	Name       *string   `json:"name,omitempty"`
}

// Actor is the tuple (id, type, inbox, outbox, following, followers, name?,
// proof) from spec §3, implementing C4's Actor record.
type Actor struct {
	actorFields
	Proof *Proof `json:"proof"`
}

// NewActor builds and signs an Actor for key, deriving all four collection
// URIs from the key's did:key DID, per chatternet/src/model/actor.rs's
// ActorFields::new.
func NewActor(key *Key, actorType ActorType, name *string) (*Actor, error) {
	if err := actorType.Validate(); err != nil {
		return nil, err
	}
	if name != nil {
		if err := ValidateMaxChars("name", *name, 30); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
		}
	}

	did, err := DIDFromKey(key)
	if err != nil {
		return nil, err
	}
	id, err := ActorIdFromDID(did)
	if err != nil {
		return nil, err
	}

	fields := actorFields{
		ID:        id,
		Type:      actorType,
		Inbox:     id + "/inbox",
		Outbox:    id + "/outbox",
		Following: id + "/following",
		Followers: id + "/followers",
		Name:      name,
	}

	proof, err := Sign(withActorContext(fields), key, did)
	if err != nil {
		return nil, err
	}

	return &Actor{actorFields: fields, Proof: proof}, nil
}

// MarshalJSON emits the actor with its @context, per the teacher's
// WithContext idiom.
func (a *Actor) MarshalJSON() ([]byte, error) {
	type alias Actor
	return json.Marshal(withActorContext((*alias)(a)))
}

func withActorContext(v interface{}) map[string]interface{} {
	return WithContext(v, json.Marshal, json.Unmarshal)
}

// Verify validates every Actor invariant in §3 and the proof.
func (a *Actor) Verify() error {
	if err := a.Type.Validate(); err != nil {
		return err
	}
	if a.Name != nil {
		if err := ValidateMaxChars("name", *a.Name, 30); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedDocument, err)
		}
	}
	if a.Proof == nil {
		return fmt.Errorf("%w: actor has no proof", ErrBadSignature)
	}

	did, err := DIDFromActorId(a.ID)
	if err != nil {
		return err
	}
	proofDID, err := GetProofDID(a.Proof)
	if err != nil {
		return err
	}
	if proofDID != did {
		return fmt.Errorf("%w: proof signer %q does not match actor DID %q", ErrActorIDMismatch, proofDID, did)
	}

	if a.Inbox != a.ID+"/inbox" {
		return fmt.Errorf("%w: inbox does not match id", ErrActorIDMismatch)
	}
	if a.Outbox != a.ID+"/outbox" {
		return fmt.Errorf("%w: outbox does not match id", ErrActorIDMismatch)
	}
	if a.Following != a.ID+"/following" {
		return fmt.Errorf("%w: following does not match id", ErrActorIDMismatch)
	}
	if a.Followers != a.ID+"/followers" {
		return fmt.Errorf("%w: followers does not match id", ErrActorIDMismatch)
	}

	return Verify(withActorContext(a.actorFields), a.Proof)
}

// DID returns the actor's DID.
func (a *Actor) DID() (string, error) { return DIDFromActorId(a.ID) }
