package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/portside/battleship/internal/model"
)

func newPlayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "play <username> <solo|duo>",
		Short: "Join a game and play interactively",
		Long: `Connects to the server, joins as the given username, and relays typed
commands. Game commands go through as-is (place, fire, quit); lines
starting with "say " are sent as lobby or in-game chat.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			username := args[0]
			if _, ok := model.ParseMode(args[1]); !ok {
				return fmt.Errorf("mode must be solo or duo, got %q", args[1])
			}
			return runPlay(username, args[1])
		},
	}
}

func runPlay(username, mode string) error {
	client, err := Dial(cfg.Addr, cfg.Keys())
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", cfg.Addr, err)
	}
	defer client.Close()

	if err := client.Send(model.PacketGame, fmt.Sprintf("join %s %s", username, mode)); err != nil {
		return err
	}

	// server messages print as they arrive; a read error means the
	// connection is gone and the input loop should stop
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, text, err := client.Recv()
			if err != nil {
				return
			}
			fmt.Println(text)
		}
	}()

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		select {
		case <-done:
			return nil
		default:
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		pktType := model.PacketGame
		if rest, ok := strings.CutPrefix(line, "say "); ok {
			pktType = model.PacketChat
			line = rest
		}

		if err := client.Send(pktType, line); err != nil {
			break
		}
		if line == "quit" && pktType == model.PacketGame {
			break
		}
	}

	<-done
	return scanner.Err()
}
