package cli

import (
	"os"

	"github.com/portside/battleship/internal/protocol"
)

// Config holds client connection settings
type Config struct {
	// Addr is the game server's TCP address
	Addr string
	// AdminURL is the base URL of the server's admin endpoint
	AdminURL string
	// Passphrase derives the packet key when KeyHex is empty
	Passphrase string
	// KeyHex is a hex-encoded 32-byte packet key
	KeyHex string
}

// DefaultConfig builds a Config from the environment
func DefaultConfig() *Config {
	cfg := &Config{
		Addr:       "127.0.0.1:5000",
		AdminURL:   "http://127.0.0.1:5001",
		Passphrase: "battleship-dev",
	}
	if v := os.Getenv("BATTLESHIP_ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("BATTLESHIP_ADMIN_URL"); v != "" {
		cfg.AdminURL = v
	}
	if v := os.Getenv("BATTLESHIP_PASSPHRASE"); v != "" {
		cfg.Passphrase = v
	}
	if v := os.Getenv("BATTLESHIP_KEY"); v != "" {
		cfg.KeyHex = v
	}
	return cfg
}

// Keys resolves the packet key provider; an explicit key wins over the
// passphrase
func (c *Config) Keys() protocol.KeyProvider {
	if c.KeyHex != "" {
		return protocol.StaticKey(c.KeyHex)
	}
	return protocol.PassphraseKey(c.Passphrase)
}
