// Package server implements the HTTP surface of a chatternet node: actor
// get/post, following/followers collections, outbox ingestion, inbox
// pagination, generic document get/post, and the creator-message lookup.
// It follows the teacher's chi-based router, middleware, and
// responseWriter idiom, wired to the new domain, store, outbox, and query
// packages instead of klistr's ActivityPub bridge handlers.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/klppl/chatternet-go/internal/apperr"
	"github.com/klppl/chatternet-go/internal/model"
	"github.com/klppl/chatternet-go/internal/outbox"
	"github.com/klppl/chatternet-go/internal/query"
	"github.com/klppl/chatternet-go/internal/store"
)

const version = "0.1.0"

// Server is the HTTP server for a chatternet node.
type Server struct {
	store     *store.Store
	outboxSrv outbox.Server
	prefix    string
	router    *chi.Mux
	startedAt time.Time
}

// New builds a Server whose AP surface is mounted under prefix (may be "").
func New(st *store.Store, outboxSrv outbox.Server, prefix string) *Server {
	s := &Server{store: st, outboxSrv: outboxSrv, prefix: prefix, startedAt: time.Now()}
	s.router = s.buildRouter()
	return s
}

// Start runs the HTTP server on addr until ctx is cancelled.
func (s *Server) Start(ctx context.Context, addr string) {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	slog.Info("starting HTTP server", "addr", addr, "prefix", s.prefix)

	go func() {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "error", err)
	}
}

func (s *Server) buildRouter() *chi.Mux {
	inner := chi.NewRouter()

	inner.Get("/version", func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, version, http.StatusOK)
	})

	inner.Route("/ap", func(r chi.Router) {
		r.Get("/{id}/actor", s.handleActorGet)
		r.Post("/{id}/actor", s.handleActorPost)
		r.Get("/{id}/actor/following", s.handleFollowing)
		r.Get("/{id}/actor/followers", s.handleFollowers)
		r.Post("/{id}/actor/outbox", s.handleOutbox)
		r.Get("/{id}/actor/inbox", s.handleInbox)
		r.Get("/{id}/actor/inbox/from/{id2}/actor", s.handleInboxFrom)
		r.Get("/{id}/createdBy/{id2}/actor", s.handleCreatedBy)
		r.Get("/{id}", s.handleDocumentGet)
		r.Post("/{id}", s.handleBodyPost)
	})

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(loggingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware)

	if s.prefix == "" || s.prefix == "/" {
		r.Mount("/", inner)
	} else {
		r.Mount(s.prefix, inner)
	}
	return r
}

// ─── Actor handlers ───────────────────────────────────────────────────────

func (s *Server) handleActorGet(w http.ResponseWriter, r *http.Request) {
	actorID, err := actorIDFromRequest(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	actor, err := query.GetActor(r.Context(), s.store, actorID)
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, actor, http.StatusOK)
}

func (s *Server) handleActorPost(w http.ResponseWriter, r *http.Request) {
	actorID, err := actorIDFromRequest(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var actor model.Actor
	if err := decodeJSON(r, &actor); err != nil {
		writeError(w, apperr.Wrap(apperr.ActorNotValid, err))
		return
	}
	if err := query.PutActor(r.Context(), s.store, actorID, &actor); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleFollowing(w http.ResponseWriter, r *http.Request) {
	actorID, err := actorIDFromRequest(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	collection, err := query.FollowingCollection(r.Context(), s.store, actorID)
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, collection, http.StatusOK)
}

func (s *Server) handleFollowers(w http.ResponseWriter, r *http.Request) {
	actorID, err := actorIDFromRequest(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	pageSize, startIdx := pagingParams(r)
	page, err := query.FollowersPage(r.Context(), s.store, actorID, pageSize, startIdx)
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, page, http.StatusOK)
}

// ─── Outbox / inbox handlers ──────────────────────────────────────────────

func (s *Server) handleOutbox(w http.ResponseWriter, r *http.Request) {
	did := chi.URLParam(r, "id")
	var message model.Message
	if err := decodeJSON(r, &message); err != nil {
		writeError(w, apperr.Wrap(apperr.MessageNotValid, err))
		return
	}
	status, err := outbox.IngestMessage(r.Context(), s.store, s.outboxSrv, did, &message)
	if err != nil {
		writeError(w, err)
		return
	}
	if status == outbox.AlreadyKnown {
		w.WriteHeader(http.StatusAccepted)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleInbox(w http.ResponseWriter, r *http.Request) {
	actorID, err := actorIDFromRequest(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	pageSize, startIdx := pagingParams(r)
	page, err := query.InboxPage(r.Context(), s.store, actorID, pageSize, startIdx)
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, page, http.StatusOK)
}

func (s *Server) handleInboxFrom(w http.ResponseWriter, r *http.Request) {
	actorID, err := actorIDFromRequest(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	fromActorID, err := actorIDFromRequest(r, "id2")
	if err != nil {
		writeError(w, err)
		return
	}
	pageSize, startIdx := pagingParams(r)
	page, err := query.InboxFromPage(r.Context(), s.store, actorID, fromActorID, pageSize, startIdx)
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, page, http.StatusOK)
}

// ─── Document handlers ────────────────────────────────────────────────────

func (s *Server) handleDocumentGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	doc, err := query.GetDocument(r.Context(), s.store, id)
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, doc, http.StatusOK)
}

func (s *Server) handleBodyPost(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	blob, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeError(w, apperr.Wrap(apperr.DocumentNotValid, err))
		return
	}
	if err := query.PutBody(r.Context(), s.store, id, blob); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleCreatedBy(w http.ResponseWriter, r *http.Request) {
	bodyID := chi.URLParam(r, "id")
	did := chi.URLParam(r, "id2")
	messageID, err := query.CreatorMessage(r.Context(), s.store, bodyID, did)
	if err != nil {
		writeError(w, err)
		return
	}
	doc, err := query.GetDocument(r.Context(), s.store, messageID)
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, doc, http.StatusOK)
}

// ─── Helpers ──────────────────────────────────────────────────────────────

// actorIDFromRequest reads the named DID path param and derives the
// actor id "<did>/actor", per spec §4.2's ActorIdFromDID.
func actorIDFromRequest(r *http.Request, param string) (string, error) {
	did := chi.URLParam(r, param)
	actorID, err := model.ActorIdFromDID(did)
	if err != nil {
		return "", apperr.Wrap(apperr.DidNotValid, err)
	}
	return actorID, nil
}

func pagingParams(r *http.Request) (pageSize int, startIdx *int64) {
	pageSize = query.DefaultPageSize
	q := r.URL.Query()
	if v := q.Get("pageSize"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			pageSize = n
		}
	}
	if v := q.Get("startIdx"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			startIdx = &n
		}
	}
	return pageSize, startIdx
}

func decodeJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(v)
}

func jsonResponse(w http.ResponseWriter, v interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// errorMessage mirrors the original implementation's ErrorMessage shape.
type errorMessage struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, err error) {
	status := apperr.Status(err)
	jsonResponse(w, errorMessage{Code: status, Message: err.Error()}, status)
}

// ─── Middleware ───────────────────────────────────────────────────────────

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		slog.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.status,
			"duration", time.Since(start),
			"remote", r.RemoteAddr,
		)
	})
}

// corsMiddleware allows any origin, per spec §6's CORS policy.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Accept-Language, Content-Language, Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(status int) {
	rw.status = status
	rw.ResponseWriter.WriteHeader(status)
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}
