// chatternet-new-actor generates or reuses an Ed25519 key and writes a
// freshly signed Actor document for it, for operators bootstrapping a new
// identity ahead of running chatternet-server.
//
// Usage:
//
//	chatternet-new-actor --key key.json --out actor.json --name "my actor" [--new-key]
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/klppl/chatternet-go/internal/config"
	"github.com/klppl/chatternet-go/internal/model"
)

func main() {
	cmd := &cli.Command{
		Name:  "chatternet-new-actor",
		Usage: "generate a signed actor document for a chatternet identity",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "key", Value: "key.json", Usage: "path to the Ed25519 key file"},
			&cli.StringFlag{Name: "out", Value: "actor.json", Usage: "path to write the signed actor document"},
			&cli.StringFlag{Name: "name", Value: "", Usage: "actor display name"},
			&cli.BoolFlag{Name: "new-key", Value: false, Usage: "refuse to reuse an existing key file; fail if one is already present"},
		},
		Action: run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "chatternet-new-actor:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	cfg := config.NewActorConfig{
		KeyPath: cmd.String("key"),
		OutPath: cmd.String("out"),
		Name:    cmd.String("name"),
		NewKey:  cmd.Bool("new-key"),
	}

	if cfg.NewKey {
		if _, err := os.Stat(cfg.KeyPath); err == nil {
			return fmt.Errorf("refusing to overwrite existing key file at %s", cfg.KeyPath)
		}
	}

	key, err := model.LoadOrGenerateKey(cfg.KeyPath)
	if err != nil {
		return fmt.Errorf("load or generate key: %w", err)
	}

	var name *string
	if cfg.Name != "" {
		name = &cfg.Name
	}

	actor, err := model.NewActor(key, model.ActorService, name)
	if err != nil {
		return fmt.Errorf("build actor: %w", err)
	}

	blob, err := json.MarshalIndent(actor, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal actor: %w", err)
	}
	if err := os.WriteFile(cfg.OutPath, blob, 0644); err != nil {
		return fmt.Errorf("write actor file: %w", err)
	}

	fmt.Println(actor.ID)
	return nil
}
