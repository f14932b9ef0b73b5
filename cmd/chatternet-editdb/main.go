// chatternet-editdb edits a chatternet node's database directly, for
// operations that don't have an HTTP-level equivalent: making the server
// itself follow an actor, and inspecting follow relationships.
//
// Usage:
//
//	chatternet-editdb --key key.json --db chatternet.db follow <actor-did>
//	chatternet-editdb --key key.json --db chatternet.db list-follows <actor-did>
//	chatternet-editdb --key key.json --db chatternet.db list-server-follows
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/klppl/chatternet-go/internal/config"
	"github.com/klppl/chatternet-go/internal/model"
	"github.com/klppl/chatternet-go/internal/store"
)

func main() {
	cmd := &cli.Command{
		Name:  "chatternet-editdb",
		Usage: "edit and inspect a chatternet node's database",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "key", Value: "key.json", Usage: "path to the server's Ed25519 key file"},
			&cli.StringFlag{Name: "db", Value: "chatternet.db", Usage: "database DSN"},
		},
		Commands: []*cli.Command{
			{
				Name:      "follow",
				Usage:     "make the server's actor follow the given actor DID",
				ArgsUsage: "<actor-did>",
				Action:    followAction,
			},
			{
				Name:      "list-follows",
				Usage:     "list the ids the given actor DID follows",
				ArgsUsage: "<actor-did>",
				Action:    listFollowsAction,
			},
			{
				Name:   "list-server-follows",
				Usage:  "list the ids the server's own actor follows",
				Action: listServerFollowsAction,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "chatternet-editdb:", err)
		os.Exit(1)
	}
}

func openServer(cmd *cli.Command) (*store.Store, string, error) {
	cfg := config.EditDBConfig{KeyPath: cmd.String("key"), DBPath: cmd.String("db")}

	key, err := model.LoadOrGenerateKey(cfg.KeyPath)
	if err != nil {
		return nil, "", fmt.Errorf("load server key: %w", err)
	}
	did, err := model.DIDFromKey(key)
	if err != nil {
		return nil, "", fmt.Errorf("derive server did: %w", err)
	}
	serverActorID, err := model.ActorIdFromDID(did)
	if err != nil {
		return nil, "", fmt.Errorf("derive server actor id: %w", err)
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, "", fmt.Errorf("open database: %w", err)
	}
	if err := st.Migrate(context.Background()); err != nil {
		st.Close()
		return nil, "", fmt.Errorf("migrate database: %w", err)
	}
	return st, serverActorID, nil
}

func followAction(ctx context.Context, cmd *cli.Command) error {
	actorDID := cmd.Args().First()
	if actorDID == "" {
		return fmt.Errorf("follow requires an actor DID argument")
	}
	actorID, err := model.ActorIdFromDID(actorDID)
	if err != nil {
		return fmt.Errorf("invalid actor DID: %w", err)
	}

	st, serverActorID, err := openServer(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.PutActorFollowing(ctx, st.DB(), serverActorID, actorID); err != nil {
		return fmt.Errorf("record following: %w", err)
	}
	if err := st.PutActorAudience(ctx, st.DB(), serverActorID, actorID+"/followers"); err != nil {
		return fmt.Errorf("record audience: %w", err)
	}
	return nil
}

func listFollowsAction(ctx context.Context, cmd *cli.Command) error {
	actorDID := cmd.Args().First()
	if actorDID == "" {
		return fmt.Errorf("list-follows requires an actor DID argument")
	}
	actorID, err := model.ActorIdFromDID(actorDID)
	if err != nil {
		return fmt.Errorf("invalid actor DID: %w", err)
	}

	st, _, err := openServer(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	return printFollowings(ctx, st, actorID)
}

func listServerFollowsAction(ctx context.Context, cmd *cli.Command) error {
	st, serverActorID, err := openServer(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	return printFollowings(ctx, st, serverActorID)
}

func printFollowings(ctx context.Context, st *store.Store, actorID string) error {
	ids, err := st.GetActorFollowings(ctx, st.DB(), actorID)
	if err != nil {
		return fmt.Errorf("list followings: %w", err)
	}
	for _, id := range ids {
		fmt.Println(id)
	}
	return nil
}
