// chatternet-server runs a single federated-messaging node: it serves the
// actor, outbox, inbox, and document endpoints described in spec §6 over
// HTTP, backed by a SQLite or PostgreSQL store.
//
// Usage:
//
//	chatternet-server --actor actor.json --key key.json --db chatternet.db --port 8080
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/klppl/chatternet-go/internal/apperr"
	"github.com/klppl/chatternet-go/internal/config"
	"github.com/klppl/chatternet-go/internal/model"
	"github.com/klppl/chatternet-go/internal/outbox"
	"github.com/klppl/chatternet-go/internal/server"
	"github.com/klppl/chatternet-go/internal/store"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	cmd := &cli.Command{
		Name:  "chatternet-server",
		Usage: "serve a chatternet actor's inbox, outbox, and document endpoints",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "port", Value: "8080", Usage: "TCP port to listen on"},
			&cli.StringFlag{Name: "prefix", Value: "", Usage: "URL path prefix the API is mounted under"},
			&cli.StringFlag{Name: "actor", Value: "actor.json", Usage: "path to the server's signed actor document"},
			&cli.StringFlag{Name: "key", Value: "key.json", Usage: "path to the server's Ed25519 key file"},
			&cli.StringFlag{Name: "db", Value: "chatternet.db", Usage: "database DSN (bare path, sqlite://..., or postgres://...)"},
			&cli.BoolFlag{Name: "loopback", Value: false, Usage: "bind to 127.0.0.1 instead of 0.0.0.0"},
		},
		Action: run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("chatternet-server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	cfg := config.ServerConfig{
		Port:      cmd.String("port"),
		Prefix:    cmd.String("prefix"),
		ActorPath: cmd.String("actor"),
		KeyPath:   cmd.String("key"),
		DBPath:    cmd.String("db"),
		Loopback:  cmd.Bool("loopback"),
	}

	key, err := model.LoadOrGenerateKey(cfg.KeyPath)
	if err != nil {
		return fmt.Errorf("load server key: %w", err)
	}
	did, err := model.DIDFromKey(key)
	if err != nil {
		return fmt.Errorf("derive server did: %w", err)
	}

	actor, err := loadOrCreateActor(cfg.ActorPath, key, did)
	if err != nil {
		return fmt.Errorf("load server actor: %w", err)
	}
	if err := actor.Verify(); err != nil {
		return fmt.Errorf("server actor failed verification: %w", err)
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer st.Close()

	if err := st.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	outboxSrv := outbox.Server{ActorID: actor.ID, Key: key, DID: did}
	srv := server.New(st, outboxSrv, cfg.Prefix)

	runCtx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	slog.Info("chatternet-server ready", "actor", actor.ID, "addr", cfg.BindAddr())
	srv.Start(runCtx, cfg.BindAddr())
	slog.Info("chatternet-server stopped")
	return nil
}

// loadOrCreateActor reads the actor document at path, or mints and persists
// a fresh Person actor for key if no file exists yet — mirroring
// LoadOrGenerateKey's zero-setup-for-new-installs shape for the actor side.
func loadOrCreateActor(path string, key *model.Key, did string) (*model.Actor, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		name := "chatternet-server"
		actor, err := model.NewActor(key, model.ActorPerson, &name)
		if err != nil {
			return nil, fmt.Errorf("mint default server actor: %w", err)
		}
		data, err := json.Marshal(actor)
		if err != nil {
			return nil, err
		}
		if err := os.WriteFile(path, data, 0600); err != nil {
			return nil, err
		}
		slog.Info("generated default server actor", "path", path, "id", actor.ID)
		return actor, nil
	}

	var actor model.Actor
	if err := json.Unmarshal(blob, &actor); err != nil {
		return nil, apperr.Wrap(apperr.ActorNotValid, err)
	}
	wantDID, err := actor.DID()
	if err != nil {
		return nil, err
	}
	if wantDID != did {
		return nil, fmt.Errorf("actor at %s belongs to a different key than %s", path, did)
	}
	return &actor, nil
}
