package model

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
)

// keyFile is the on-disk JSON shape of a server/actor key, base64-encoding
// the raw Ed25519 key material (no PEM — there is no X.509 structure to
// carry for a bare Ed25519 key pair).
type keyFile struct {
	PrivateKey string `json:"privateKey"`
	PublicKey  string `json:"publicKey"`
}

// LoadOrGenerateKey loads an Ed25519 key pair from a JSON file, or
// generates and persists a new one if the file does not exist. Mirrors the
// teacher's LoadOrGenerateKeyPair zero-setup-for-new-installs shape.
func LoadOrGenerateKey(path string) (*Key, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read key file: %w", err)
		}
		slog.Info("key file not found, generating new one", "path", path)
		return generateAndSaveKey(path)
	}
	return parseKeyFile(data)
}

func generateAndSaveKey(path string) (*Key, error) {
	key, err := NewKey()
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(keyFile{
		PrivateKey: base64.StdEncoding.EncodeToString(key.Private),
		PublicKey:  base64.StdEncoding.EncodeToString(key.Public),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal key file: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return nil, fmt.Errorf("write key file: %w", err)
	}
	slog.Info("generated ed25519 key", "path", path)
	return key, nil
}

func parseKeyFile(data []byte) (*Key, error) {
	var kf keyFile
	if err := json.Unmarshal(data, &kf); err != nil {
		return nil, fmt.Errorf("parse key file: %w", err)
	}
	priv, err := base64.StdEncoding.DecodeString(kf.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("decode private key: %w", err)
	}
	if len(priv) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("private key has unexpected length %d", len(priv))
	}
	pub, err := base64.StdEncoding.DecodeString(kf.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("decode public key: %w", err)
	}
	if len(pub) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("public key has unexpected length %d", len(pub))
	}
	return &Key{Public: ed25519.PublicKey(pub), Private: ed25519.PrivateKey(priv)}, nil
}
