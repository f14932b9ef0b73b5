package model

import (
	"encoding/json"
	"fmt"
)

// Documents (message bodies) carry no proof of their own: their
// authenticity comes entirely from their id being the CID of their content,
// and from the signed Message that references that id as an object.

// noteMd1kFields holds the content fields a NoteMd1k's id is the CID of.
type noteMd1kFields struct {
	Type         string  `json:"type"`
	Content      string  `json:"content"`
	MediaType    string  `json:"mediaType"`
	AttributedTo string  `json:"attributedTo"`
	InReplyTo    *string `json:"inReplyTo,omitempty"`
}

// NoteMd1k is a markdown note body of at most 1024 bytes, per spec §3.
type NoteMd1k struct {
	ID string `json:"id"`
	noteMd1kFields
}

// NewNoteMd1k builds a NoteMd1k, computing its CID-derived id.
func NewNoteMd1k(content string, attributedTo string, inReplyTo *string) (*NoteMd1k, error) {
	if err := ValidateMaxBytes("content", content, 1024); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}

	fields := noteMd1kFields{
		Type:         "Note",
		Content:      content,
		MediaType:    "text/markdown",
		AttributedTo: attributedTo,
		InReplyTo:    inReplyTo,
	}

	id, err := CID(withDocumentContext(fields))
	if err != nil {
		return nil, err
	}

	return &NoteMd1k{ID: URIFromCID(id), noteMd1kFields: fields}, nil
}

// MarshalJSON emits the note with its @context.
func (n *NoteMd1k) MarshalJSON() ([]byte, error) {
	type alias NoteMd1k
	return json.Marshal(withDocumentContext((*alias)(n)))
}

// Verify checks the note's size limit and that its id is the CID of its
// content.
func (n *NoteMd1k) Verify() error {
	if n.Type != "Note" {
		return fmt.Errorf("%w: note type must be \"Note\"", ErrMalformedDocument)
	}
	if n.MediaType != "text/markdown" {
		return fmt.Errorf("%w: note mediaType must be \"text/markdown\"", ErrMalformedDocument)
	}
	if err := ValidateMaxBytes("content", n.Content, 1024); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	if !VerifyCID(n.ID, withDocumentContext(n.noteMd1kFields)) {
		return fmt.Errorf("%w: id is not the CID of the note", ErrMessageIDMismatch)
	}
	return nil
}

// tag30Fields holds the content fields a Tag30's id is the CID of.
type tag30Fields struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

// Tag30 is a short tag body of at most 30 Unicode code points, per spec §3.
type Tag30 struct {
	ID string `json:"id"`
	tag30Fields
}

// NewTag30 builds a Tag30, computing its CID-derived id.
func NewTag30(name string) (*Tag30, error) {
	if err := ValidateMaxChars("name", name, 30); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}

	fields := tag30Fields{Type: "Object", Name: name}
	id, err := CID(withDocumentContext(fields))
	if err != nil {
		return nil, err
	}
	return &Tag30{ID: URIFromCID(id), tag30Fields: fields}, nil
}

// MarshalJSON emits the tag with its @context.
func (t *Tag30) MarshalJSON() ([]byte, error) {
	type alias Tag30
	return json.Marshal(withDocumentContext((*alias)(t)))
}

// Verify checks the tag's length limit and that its id is the CID of its
// content.
func (t *Tag30) Verify() error {
	if t.Type != "Object" {
		return fmt.Errorf("%w: tag type must be \"Object\"", ErrMalformedDocument)
	}
	if err := ValidateMaxChars("name", t.Name, 30); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	if !VerifyCID(t.ID, withDocumentContext(t.tag30Fields)) {
		return fmt.Errorf("%w: id is not the CID of the tag", ErrMessageIDMismatch)
	}
	return nil
}

func withDocumentContext(v interface{}) map[string]interface{} {
	return WithContext(v, json.Marshal, json.Unmarshal)
}
