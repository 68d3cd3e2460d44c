package factory

import (
	"io"
	"log/slog"
	"time"

	"github.com/portside/battleship/internal/dependencies/mocks"
	"github.com/portside/battleship/internal/protocol"
	"github.com/portside/battleship/internal/server"
	"github.com/portside/battleship/internal/storage/memory"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
}

// TestKeyHex is the symmetric key test apps and their clients share
const TestKeyHex = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

// NewTestApp creates an App configured for testing with mocked
// dependencies, listening on an ephemeral port
func NewTestApp() *TestApp {
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()
	store := memory.New(mockClock)
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	cfg := server.DefaultConfig()
	cfg.Addr = "127.0.0.1:0"
	cfg.Keys = protocol.StaticKey(TestKeyHex)

	app := &App{
		Store:  store,
		Clock:  mockClock,
		Random: mockRandom,
		Server: server.New(cfg, store, mockClock, mockRandom, logger),
	}

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
	}
}
