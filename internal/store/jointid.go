package store

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
)

// JointID computes the deterministic primary key for a multi-column join
// relation: base64(SHA256(JSON([keys...]))), per spec §4.5's "Joint id"
// definition. Used for MessagesAudiences, MessagesBodies, and
// ActorsAudiences, none of which carry their own auto-increment idx.
func JointID(keys ...string) string {
	data, _ := json.Marshal(keys)
	sum := sha256.Sum256(data)
	return base64.StdEncoding.EncodeToString(sum[:])
}
