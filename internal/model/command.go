package model

import (
	"fmt"
	"strings"
)

// PacketType tags a packet's payload on the wire
type PacketType byte

const (
	PacketGame PacketType = 0
	PacketChat PacketType = 1
)

// Command is a decoded player action. Packets are decoded once at the
// connection boundary into one of these variants; nothing downstream
// inspects raw payload text.
type Command interface {
	isCommand()
}

// JoinCommand binds a username and mode to a connection. It must be the
// first game command on every connection.
type JoinCommand struct {
	Username string
	Mode     Mode
}

// PlaceCommand places one ship during the placement phase
type PlaceCommand struct {
	Ship        string
	Origin      Coordinate
	Orientation Orientation
}

// FireCommand fires at the opponent's board
type FireCommand struct {
	Target Coordinate
}

// ChatCommand relays text to the other bound player(s)
type ChatCommand struct {
	Text string
}

// QuitCommand forfeits the session (or leaves the lobby queue)
type QuitCommand struct{}

func (JoinCommand) isCommand()  {}
func (PlaceCommand) isCommand() {}
func (FireCommand) isCommand()  {}
func (ChatCommand) isCommand()  {}
func (QuitCommand) isCommand()  {}

// ParseCommand turns a decrypted payload into a typed command. Chat packets
// carry their text verbatim; game packets use the space-separated command
// surface (join/place/fire/quit).
func ParseCommand(pktType PacketType, payload string) (Command, error) {
	if pktType == PacketChat {
		return ChatCommand{Text: payload}, nil
	}

	fields := strings.Fields(payload)
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrUnknownCommand)
	}

	switch strings.ToLower(fields[0]) {
	case "join":
		if len(fields) != 3 {
			return nil, fmt.Errorf("%w: join <username> <solo|duo>", ErrUnknownCommand)
		}
		mode, ok := ParseMode(fields[2])
		if !ok {
			return nil, fmt.Errorf("%w: mode must be solo or duo", ErrUnknownCommand)
		}
		return JoinCommand{Username: fields[1], Mode: mode}, nil

	case "place":
		if len(fields) != 4 {
			return nil, fmt.Errorf("%w: place <coord> <H|V> <ship>", ErrUnknownCommand)
		}
		origin, err := ParseCoordinate(fields[1])
		if err != nil {
			return nil, err
		}
		orientation, err := ParseOrientation(fields[2])
		if err != nil {
			return nil, err
		}
		return PlaceCommand{Ship: fields[3], Origin: origin, Orientation: orientation}, nil

	case "fire":
		if len(fields) != 2 {
			return nil, fmt.Errorf("%w: fire <coord>", ErrUnknownCommand)
		}
		target, err := ParseCoordinate(fields[1])
		if err != nil {
			return nil, err
		}
		return FireCommand{Target: target}, nil

	case "chat":
		// chat is also accepted on the game channel for convenience
		return ChatCommand{Text: strings.TrimSpace(strings.TrimPrefix(payload, fields[0]))}, nil

	case "quit":
		return QuitCommand{}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, fields[0])
	}
}

// ServerMessage is one outbound status line (or chat line) for a player
type ServerMessage struct {
	Type PacketType
	Text string
}

// GameMsg builds a game-channel status message
func GameMsg(format string, args ...any) ServerMessage {
	return ServerMessage{Type: PacketGame, Text: fmt.Sprintf(format, args...)}
}

// ChatMsg builds a chat-channel message
func ChatMsg(from, text string) ServerMessage {
	return ServerMessage{Type: PacketChat, Text: fmt.Sprintf("CHAT %s: %s", from, text)}
}

// InfoMsg builds an INFO status line
func InfoMsg(format string, args ...any) ServerMessage {
	return GameMsg("INFO: "+format, args...)
}
