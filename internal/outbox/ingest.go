// Package outbox implements C6: the message ingestion pipeline. A single
// entry point, IngestMessage, verifies, deduplicates, stores, and runs the
// activity-type side effects of spec §4.6 inside one write transaction,
// mirroring chatternet-server-http/src/handlers/outbox.rs's control flow.
package outbox

import (
	"context"
	"encoding/json"

	"github.com/klppl/chatternet-go/internal/apperr"
	"github.com/klppl/chatternet-go/internal/model"
	"github.com/klppl/chatternet-go/internal/store"
)

// Status is the outcome of a successful IngestMessage call.
type Status string

const (
	Stored       Status = "stored"
	AlreadyKnown Status = "alreadyKnown"
)

// Server bundles the server's own identity, needed for the auto-View side
// effect (§4.6.2).
type Server struct {
	ActorID string
	Key     *model.Key
	DID     string
}

// IngestMessage runs spec §4.6's pipeline for a message posted by the
// actor identified by viaActorDID.
func IngestMessage(ctx context.Context, s *store.Store, srv Server, viaActorDID string, message *model.Message) (Status, error) {
	actorID, err := model.ActorIdFromDID(viaActorDID)
	if err != nil {
		return "", apperr.Wrap(apperr.DidNotValid, err)
	}
	if message.Actor != actorID {
		return "", apperr.New(apperr.ActorIdWrong)
	}

	tx, err := s.BeginWrite(ctx)
	if err != nil {
		return "", apperr.Wrap(apperr.DbConnectionFailed, err)
	}
	defer tx.Rollback()

	if err := message.Verify(); err != nil {
		return "", apperr.Wrap(apperr.MessageNotValid, err)
	}

	known, err := s.HasMessage(ctx, tx.Q(), message.ID)
	if err != nil {
		return "", apperr.Wrap(apperr.DbQueryFailed, err)
	}
	if known {
		if err := tx.Commit(); err != nil {
			return "", apperr.Wrap(apperr.DbQueryFailed, err)
		}
		return AlreadyKnown, nil
	}

	if err := storeMessage(ctx, s, tx, message); err != nil {
		return "", err
	}

	if err := applySideEffects(ctx, s, tx, message); err != nil {
		return "", err
	}

	if err := autoView(ctx, s, tx, srv, message); err != nil {
		return "", err
	}

	if err := tx.Commit(); err != nil {
		return "", apperr.Wrap(apperr.DbQueryFailed, err)
	}
	return Stored, nil
}

// storeMessage implements spec §4.6 step 5, the common store path shared
// by top-level ingestion and the recursively-persisted auto-View message.
func storeMessage(ctx context.Context, s *store.Store, tx *store.Tx, message *model.Message) error {
	audiences := dedupUnion(message.To, message.Cc, message.Audience)
	for _, aud := range audiences {
		if err := s.PutMessageAudience(ctx, tx.Q(), message.ID, aud); err != nil {
			return apperr.Wrap(apperr.DbQueryFailed, err)
		}
	}

	createdBy := message.Actor
	for _, body := range message.Object {
		if err := s.PutMessageBody(ctx, tx.Q(), message.ID, body, &createdBy); err != nil {
			return apperr.Wrap(apperr.DbQueryFailed, err)
		}
	}

	blob, err := json.Marshal(message)
	if err != nil {
		return apperr.Wrap(apperr.MessageNotValid, err)
	}
	if err := s.PutDocumentIfNew(ctx, tx.Q(), message.ID, string(blob)); err != nil {
		return apperr.Wrap(apperr.DbQueryFailed, err)
	}

	if err := s.PutMessageId(ctx, tx.Q(), message.ID, message.Actor); err != nil {
		return apperr.Wrap(apperr.DbQueryFailed, err)
	}
	return nil
}

// applySideEffects implements spec §4.6 step 6: exhaustive per-type
// effects, Follow and Delete; every other activity type has none.
func applySideEffects(ctx context.Context, s *store.Store, tx *store.Tx, message *model.Message) error {
	switch message.Type {
	case model.Follow:
		for _, o := range message.Object {
			if err := s.PutActorFollowing(ctx, tx.Q(), message.Actor, o); err != nil {
				return apperr.Wrap(apperr.DbQueryFailed, err)
			}
			if err := s.PutActorAudience(ctx, tx.Q(), message.Actor, o+"/followers"); err != nil {
				return apperr.Wrap(apperr.DbQueryFailed, err)
			}
		}
	case model.Delete:
		return applyDelete(ctx, s, tx, message)
	}
	return nil
}

// applyDelete implements spec §4.6.1.
func applyDelete(ctx context.Context, s *store.Store, tx *store.Tx, message *model.Message) error {
	if len(message.Object) != 1 {
		return apperr.New(apperr.MessageNotValid)
	}
	targetID := message.Object[0]

	blob, ok, err := s.GetDocument(ctx, tx.Q(), targetID)
	if err != nil {
		return apperr.Wrap(apperr.DbQueryFailed, err)
	}
	if !ok {
		return nil // already gone: no-op success
	}

	var target model.Message
	if err := json.Unmarshal([]byte(blob), &target); err != nil {
		return apperr.Wrap(apperr.MessageNotValid, err)
	}
	if target.Actor != message.Actor {
		return apperr.New(apperr.MessageNotValid)
	}

	if target.Type == model.Follow {
		for _, o := range target.Object {
			if err := s.DeleteActorFollowing(ctx, tx.Q(), target.Actor, o); err != nil {
				return apperr.Wrap(apperr.DbQueryFailed, err)
			}
			if err := s.DeleteActorAudience(ctx, tx.Q(), target.Actor, o+"/followers"); err != nil {
				return apperr.Wrap(apperr.DbQueryFailed, err)
			}
		}
	}

	bodies, err := s.GetMessageBodies(ctx, tx.Q(), targetID)
	if err != nil {
		return apperr.Wrap(apperr.DbQueryFailed, err)
	}

	if err := s.DeleteDocument(ctx, tx.Q(), targetID); err != nil {
		return apperr.Wrap(apperr.DbQueryFailed, err)
	}
	if err := s.DeleteMessage(ctx, tx.Q(), targetID); err != nil {
		return apperr.Wrap(apperr.DbQueryFailed, err)
	}
	if err := s.DeleteMessageAudiences(ctx, tx.Q(), targetID); err != nil {
		return apperr.Wrap(apperr.DbQueryFailed, err)
	}
	if err := s.DeleteMessageBody(ctx, tx.Q(), targetID); err != nil {
		return apperr.Wrap(apperr.DbQueryFailed, err)
	}

	for _, body := range bodies {
		stillReferenced, err := s.HasMessageWithBody(ctx, tx.Q(), body)
		if err != nil {
			return apperr.Wrap(apperr.DbQueryFailed, err)
		}
		if !stillReferenced {
			if err := s.DeleteDocument(ctx, tx.Q(), body); err != nil {
				return apperr.Wrap(apperr.DbQueryFailed, err)
			}
		}
	}
	return nil
}

// autoView implements spec §4.6.2: the server relays a message into its
// own followers' inboxes by synthesizing and recursively persisting a
// View activity, skipping self-authored messages and messages the server
// does not itself see.
func autoView(ctx context.Context, s *store.Store, tx *store.Tx, srv Server, message *model.Message) error {
	if message.Type == model.View {
		return nil
	}
	if message.Actor == srv.ActorID {
		return nil
	}

	seen, err := s.InboxContainsMessage(ctx, tx.Q(), srv.ActorID, message.ID)
	if err != nil {
		return apperr.Wrap(apperr.DbQueryFailed, err)
	}
	if !seen {
		return nil
	}

	origin := message.ID
	view, err := model.NewMessage(srv.Key, srv.DID, srv.ActorID, model.View, message.Object, message.Published, model.NewMessageOpts{
		Audience: []string{srv.ActorID + "/followers"},
		Origin:   &origin,
	})
	if err != nil {
		return apperr.Wrap(apperr.ServerMisconfigured, err)
	}

	return storeMessage(ctx, s, tx, view)
}

func dedupUnion(groups ...[]string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, group := range groups {
		for _, v := range group {
			if v == "" || seen[v] {
				continue
			}
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
