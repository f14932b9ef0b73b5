package model

import (
	"encoding/json"
	"fmt"
)

// Limits on the variable-length address fields, mirroring the VecMax<Uri,N>
// bounds in chatternet/src/model/message.rs.
const (
	MaxObjects  = 16
	MaxTo       = 16
	MaxCc       = 16
	MaxAudience = 16
)

// messageFields holds every Message field the proof is signed over.
type messageFields struct {
	Type      ActivityType `json:"type"`
	Actor     string       `json:"actor"`
	Object    []string     `json:"object"`
	Published string       `json:"published"`
	To        []string     `json:"to,omitempty"`
	Cc        []string     `json:"cc,omitempty"`
	Audience  []string     `json:"audience,omitempty"`
	Origin    *string      `json:"origin,omitempty"`
}

// messageNoID is messageFields plus its proof — the exact payload the id is
// the CID of (record-without-id).
type messageNoID struct {
	messageFields
	Proof *Proof `json:"proof"`
}

// Message is the tuple (id, type, actor, object[], published, to?, cc?,
// audience?, origin?, proof) from spec §3, implementing C4's Message record.
type Message struct {
	ID string `json:"id"`
	messageNoID
}

// NewMessageOpts carries the optional Message fields.
type NewMessageOpts struct {
	To       []string
	Cc       []string
	Audience []string
	Origin   *string
}

// NewMessage builds and signs a Message, computing its CID-derived id after
// the proof is attached, per chatternet/src/model/message.rs::MessageFields::new.
func NewMessage(key *Key, did string, actorID string, activityType ActivityType, object []string, published string, opts NewMessageOpts) (*Message, error) {
	if err := activityType.Validate(); err != nil {
		return nil, err
	}
	if err := ValidateMaxLen("object", object, MaxObjects); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	if err := ValidateMaxLen("to", opts.To, MaxTo); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	if err := ValidateMaxLen("cc", opts.Cc, MaxCc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	if err := ValidateMaxLen("audience", opts.Audience, MaxAudience); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}

	fields := messageFields{
		Type:      activityType,
		Actor:     actorID,
		Object:    object,
		Published: published,
		To:        opts.To,
		Cc:        opts.Cc,
		Audience:  opts.Audience,
		Origin:    opts.Origin,
	}

	proof, err := Sign(withMessageContext(fields), key, did)
	if err != nil {
		return nil, err
	}

	noID := messageNoID{messageFields: fields, Proof: proof}
	id, err := CID(withMessageContext(noID))
	if err != nil {
		return nil, err
	}

	return &Message{ID: URIFromCID(id), messageNoID: noID}, nil
}

func withMessageContext(v interface{}) map[string]interface{} {
	return WithContext(v, json.Marshal, json.Unmarshal)
}

// MarshalJSON emits the message with its @context.
func (m *Message) MarshalJSON() ([]byte, error) {
	type alias Message
	return json.Marshal(withMessageContext((*alias)(m)))
}

// Verify checks the Message's type, the size limits on object/to/cc/
// audience, that actor is "<did>/actor" for the DID that made the proof,
// the id (CID of record-without-id), and the proof signature over
// record-without-id-and-proof. It does not require object to be non-empty
// and does not check the syntax of the individual URIs.
func (m *Message) Verify() error {
	if err := m.Type.Validate(); err != nil {
		return err
	}
	if err := ValidateMaxLen("object", m.Object, MaxObjects); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	if err := ValidateMaxLen("to", m.To, MaxTo); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	if err := ValidateMaxLen("cc", m.Cc, MaxCc); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	if err := ValidateMaxLen("audience", m.Audience, MaxAudience); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	if m.Proof == nil {
		return fmt.Errorf("%w: message has no proof", ErrBadSignature)
	}

	did, err := DIDFromActorId(m.Actor)
	if err != nil {
		return err
	}
	proofDID, err := GetProofDID(m.Proof)
	if err != nil {
		return err
	}
	if proofDID != did {
		return fmt.Errorf("%w: proof signer %q does not match actor DID %q", ErrActorIDMismatch, proofDID, did)
	}

	if !VerifyCID(m.ID, withMessageContext(m.messageNoID)) {
		return fmt.Errorf("%w: id is not the CID of the message", ErrMessageIDMismatch)
	}

	return Verify(withMessageContext(m.messageFields), m.Proof)
}
