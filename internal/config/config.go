// Package config holds the runtime configuration for the three chatternet
// binaries. Configuration arrives as CLI flags (parsed with urfave/cli/v3
// in each cmd/ main) rather than the teacher's environment variables —
// chatternet-server-http/src/main.rs's clap Args fill the same role in
// the system this was distilled from.
package config

// ServerConfig holds everything chatternet-server needs to start serving.
//
// The original implementation derives the routing prefix by parsing an
// HTTP URL embedded in an optional field on the actor document. Actor, as
// defined here, carries no such field — its id is the DID-derived
// "<did>/actor" URI, not an HTTP address — so the prefix is supplied
// directly rather than reverse-engineered from the actor document.
type ServerConfig struct {
	Port      string
	Prefix    string
	ActorPath string
	KeyPath   string
	DBPath    string
	Loopback  bool
}

// BindAddr returns the host:port to listen on. Loopback restricts the
// server to the local interface.
func (c *ServerConfig) BindAddr() string {
	host := "0.0.0.0"
	if c.Loopback {
		host = "127.0.0.1"
	}
	return host + ":" + c.Port
}

// EditDBConfig holds everything chatternet-editdb needs.
type EditDBConfig struct {
	KeyPath string
	DBPath  string
}

// NewActorConfig holds everything chatternet-new-actor needs.
type NewActorConfig struct {
	KeyPath string
	OutPath string
	Name    string
	NewKey  bool
}
