// Package query implements C7: the read-side operations layered over the
// store and domain model — actor get/post, following/followers listing,
// inbox pagination, document fetch, and the creator-message lookup —
// following chatternet-server-http/src/handlers/{actor,inbox,documents}.rs.
package query

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/klppl/chatternet-go/internal/apperr"
	"github.com/klppl/chatternet-go/internal/model"
	"github.com/klppl/chatternet-go/internal/store"
)

// DefaultPageSize is the inbox/followers page size used when the caller
// does not specify one, per spec §4.7.
const DefaultPageSize = 32

// GetActor fetches and parses the actor document at id.
func GetActor(ctx context.Context, s *store.Store, id string) (*model.Actor, error) {
	blob, ok, err := s.GetDocument(ctx, s.DB(), id)
	if err != nil {
		return nil, apperr.Wrap(apperr.DbQueryFailed, err)
	}
	if !ok {
		return nil, apperr.New(apperr.ActorNotKnown)
	}
	var actor model.Actor
	if err := json.Unmarshal([]byte(blob), &actor); err != nil {
		return nil, apperr.New(apperr.ActorNotKnown)
	}
	return &actor, nil
}

// PutActor verifies and stores an actor document, requiring its id to
// match the request path.
func PutActor(ctx context.Context, s *store.Store, pathActorID string, actor *model.Actor) error {
	if actor.ID != pathActorID {
		return apperr.New(apperr.ActorIdWrong)
	}
	if err := actor.Verify(); err != nil {
		return apperr.Wrap(apperr.ActorNotValid, err)
	}
	blob, err := json.Marshal(actor)
	if err != nil {
		return apperr.Wrap(apperr.ActorNotValid, err)
	}
	if err := s.PutDocument(ctx, s.DB(), actor.ID, string(blob)); err != nil {
		return apperr.Wrap(apperr.DbQueryFailed, err)
	}
	return nil
}

// FollowingCollection returns the unpaginated set of ids actorID follows.
func FollowingCollection(ctx context.Context, s *store.Store, actorID string) (*model.Collection, error) {
	items, err := s.GetActorFollowings(ctx, s.DB(), actorID)
	if err != nil {
		return nil, apperr.Wrap(apperr.DbQueryFailed, err)
	}
	return model.NewCollection(actorID+"/following", items), nil
}

// FollowersPage returns a paginated CollectionPage of followers.
func FollowersPage(ctx context.Context, s *store.Store, actorID string, pageSize int, startIdx *int64) (*model.CollectionPage, error) {
	page, err := s.GetActorFollowers(ctx, s.DB(), actorID, pageSize, startIdx)
	if err != nil {
		return nil, apperr.Wrap(apperr.DbQueryFailed, err)
	}
	return buildPage(actorID+"/followers", page, pageSize), nil
}

// InboxPage returns a paginated CollectionPage of messages visible to
// actorID, per spec §4.7's Inbox operation.
func InboxPage(ctx context.Context, s *store.Store, actorID string, pageSize int, startIdx *int64) (*model.CollectionPage, error) {
	page, err := s.GetInboxForActor(ctx, s.DB(), actorID, pageSize, startIdx)
	if err != nil {
		return nil, apperr.Wrap(apperr.DbQueryFailed, err)
	}
	return buildPage(actorID+"/inbox", page, pageSize), nil
}

// InboxFromPage returns a paginated CollectionPage of messages from
// fromActorID visible to actorID, per spec §4.7's Inbox-from operation.
func InboxFromPage(ctx context.Context, s *store.Store, actorID, fromActorID string, pageSize int, startIdx *int64) (*model.CollectionPage, error) {
	page, err := s.GetInboxFromActor(ctx, s.DB(), actorID, fromActorID, pageSize, startIdx)
	if err != nil {
		return nil, apperr.Wrap(apperr.DbQueryFailed, err)
	}
	return buildPage(actorID+"/inbox/from/"+fromActorID, page, pageSize), nil
}

func buildPage(partOf string, page *store.PageOut, pageSize int) *model.CollectionPage {
	if page == nil {
		return model.NewCollectionPage(partOf, nil, partOf, nil)
	}
	var next *string
	if page.LowIdx > 0 {
		link := partOf + "?startIdx=" + strconv.FormatInt(page.LowIdx-1, 10) + "&pageSize=" + strconv.Itoa(pageSize)
		next = &link
	}
	return model.NewCollectionPage(partOf, page.Items, partOf, next)
}

// GetDocument resolves a document by id, synthesizing a did:key DID
// Document when id begins with "did:key:" rather than reading the store.
func GetDocument(ctx context.Context, s *store.Store, id string) (interface{}, error) {
	const didKeyPrefix = "did:key:"
	if len(id) >= len(didKeyPrefix) && id[:len(didKeyPrefix)] == didKeyPrefix {
		doc, err := model.ResolveDIDKeyDocument(id)
		if err != nil {
			return nil, apperr.Wrap(apperr.DocumentNotValid, err)
		}
		return doc, nil
	}

	blob, ok, err := s.GetDocument(ctx, s.DB(), id)
	if err != nil {
		return nil, apperr.Wrap(apperr.DbQueryFailed, err)
	}
	if !ok {
		return nil, apperr.New(apperr.DocumentNotKnown)
	}
	var generic json.RawMessage = []byte(blob)
	return generic, nil
}

// PutBody accepts a body post iff: the id matches the path segment, at
// least one known message references it, and it self-verifies (its id is
// the CID of its content). Accepts either a NoteMd1k or Tag30 shaped blob.
func PutBody(ctx context.Context, s *store.Store, pathID string, blob []byte) error {
	var probe struct {
		ID   string `json:"id"`
		Type string `json:"type"`
	}
	if err := json.Unmarshal(blob, &probe); err != nil {
		return apperr.Wrap(apperr.DocumentNotValid, err)
	}
	if probe.ID != pathID {
		return apperr.New(apperr.DocumentIdWrong)
	}

	referenced, err := s.HasMessageWithBody(ctx, s.DB(), pathID)
	if err != nil {
		return apperr.Wrap(apperr.DbQueryFailed, err)
	}
	if !referenced {
		return apperr.New(apperr.DocumentNotKnown)
	}

	if err := verifyBody(probe.Type, blob); err != nil {
		return apperr.Wrap(apperr.DocumentNotValid, err)
	}

	if err := s.PutDocument(ctx, s.DB(), pathID, string(blob)); err != nil {
		return apperr.Wrap(apperr.DbQueryFailed, err)
	}
	return nil
}

func verifyBody(bodyType string, blob []byte) error {
	switch bodyType {
	case "Note":
		var note model.NoteMd1k
		if err := json.Unmarshal(blob, &note); err != nil {
			return err
		}
		return note.Verify()
	case "Object":
		var tag model.Tag30
		if err := json.Unmarshal(blob, &tag); err != nil {
			return err
		}
		return tag.Verify()
	default:
		return fmt.Errorf("unknown body type %q", bodyType)
	}
}

// CreatorMessage returns the last message by actorDID referencing bodyID.
func CreatorMessage(ctx context.Context, s *store.Store, bodyID, actorDID string) (string, error) {
	actorID, err := model.ActorIdFromDID(actorDID)
	if err != nil {
		return "", apperr.Wrap(apperr.DidNotValid, err)
	}
	messageID, ok, err := s.GetCreatorMessage(ctx, s.DB(), bodyID, actorID)
	if err != nil {
		return "", apperr.Wrap(apperr.DbQueryFailed, err)
	}
	if !ok {
		return "", apperr.New(apperr.DocumentNotKnown)
	}
	return messageID, nil
}
