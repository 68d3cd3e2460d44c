package factory

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/portside/battleship/internal/cli"
	"github.com/portside/battleship/internal/model"
	"github.com/portside/battleship/internal/protocol"
)

// testClient wraps the CLI transport with a buffered reader goroutine so
// tests can wait for specific server lines
type testClient struct {
	*cli.Client
	lines chan string
}

func dialTestClient(t *testing.T, addr string) *testClient {
	t.Helper()
	client, err := cli.Dial(addr, protocol.StaticKey(TestKeyHex))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	tc := &testClient{Client: client, lines: make(chan string, 64)}
	go func() {
		defer close(tc.lines)
		for {
			_, text, err := client.Recv()
			if err != nil {
				return
			}
			tc.lines <- text
		}
	}()
	return tc
}

// waitFor reads server lines until one starts with the prefix
func (tc *testClient) waitFor(t *testing.T, prefix string) string {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case line, ok := <-tc.lines:
			if !ok {
				t.Fatalf("connection closed while waiting for %q", prefix)
			}
			if strings.HasPrefix(line, prefix) {
				return line
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %q", prefix)
		}
	}
}

func (tc *testClient) game(t *testing.T, payload string) {
	t.Helper()
	require.NoError(t, tc.Send(model.PacketGame, payload))
}

type IntegrationSuite struct {
	suite.Suite

	app *TestApp
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationSuite))
}

func (s *IntegrationSuite) SetupTest() {
	s.app = NewTestApp()
	s.Require().NoError(s.app.Server.Start())
}

func (s *IntegrationSuite) TearDownTest() {
	s.Require().NoError(s.app.Server.Shutdown(context.Background()))
	_ = s.app.Store.Close()
}

// queueServerFleet primes the mock random so the solo server board gets one
// ship per row starting at column A
func (s *IntegrationSuite) queueServerFleet() {
	for row := range model.Fleet {
		s.app.MockRandom.QueueIntn(0, row, 0)
	}
}

func (s *IntegrationSuite) placeFleet(client *testClient) {
	for i, spec := range model.Fleet {
		client.game(s.T(), fmt.Sprintf("place A%d H %s", i+1, spec.Name))
		client.waitFor(s.T(), "PLACED "+string(spec.Name))
	}
}

func (s *IntegrationSuite) TestSoloGameOverTCP() {
	s.queueServerFleet()

	client := dialTestClient(s.T(), s.app.Server.Addr())
	client.game(s.T(), "join alice solo")
	client.waitFor(s.T(), "WELCOME PLAYER 1")
	client.waitFor(s.T(), "PLACE_SHIPS")

	s.placeFleet(client)
	client.waitFor(s.T(), "READY")

	// the server carrier occupies row 1 from column A
	client.game(s.T(), "fire A1")
	client.waitFor(s.T(), "RESULT HIT")
	client.waitFor(s.T(), "READY")

	client.game(s.T(), "fire J10")
	client.waitFor(s.T(), "RESULT MISS")
}

func (s *IntegrationSuite) TestDuoPairingOverTCP() {
	clientA := dialTestClient(s.T(), s.app.Server.Addr())
	clientA.game(s.T(), "join alice duo")
	clientA.waitFor(s.T(), "WAITING")

	clientB := dialTestClient(s.T(), s.app.Server.Addr())
	clientB.game(s.T(), "join bob duo")

	clientA.waitFor(s.T(), "WELCOME PLAYER 1")
	clientB.waitFor(s.T(), "WELCOME PLAYER 2")
	clientA.waitFor(s.T(), "PLACE_SHIPS")

	// in-game chat crosses the pair once the session exists
	s.Require().NoError(clientA.Send(model.PacketChat, "hello bob"))
	s.Equal("CHAT alice: hello bob", clientB.waitFor(s.T(), "CHAT"))
}

func (s *IntegrationSuite) TestCommandBeforeJoinRejected() {
	client := dialTestClient(s.T(), s.app.Server.Addr())
	client.game(s.T(), "fire A1")
	client.waitFor(s.T(), "INFO: first command must be join")
}

func (s *IntegrationSuite) TestDuplicateUsernameRejected() {
	s.queueServerFleet()

	client := dialTestClient(s.T(), s.app.Server.Addr())
	client.game(s.T(), "join alice solo")
	client.waitFor(s.T(), "WELCOME PLAYER 1")

	intruder := dialTestClient(s.T(), s.app.Server.Addr())
	intruder.game(s.T(), "join alice solo")
	intruder.waitFor(s.T(), "INFO: username")
}

func (s *IntegrationSuite) TestMalformedInputGetsInfo() {
	s.queueServerFleet()

	client := dialTestClient(s.T(), s.app.Server.Addr())
	client.game(s.T(), "join alice solo")
	client.waitFor(s.T(), "PLACE_SHIPS")

	client.game(s.T(), "launch nuke")
	client.waitFor(s.T(), "INFO: unknown command")
}
