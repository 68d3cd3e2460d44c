package cli

import (
	"net"

	"github.com/portside/battleship/internal/model"
	"github.com/portside/battleship/internal/protocol"
)

// Client is an encrypted connection to the game server
type Client struct {
	sock net.Conn
	enc  *protocol.Codec
	dec  *protocol.Codec
}

// Dial connects to the server and sets up a codec per direction
func Dial(addr string, keys protocol.KeyProvider) (*Client, error) {
	enc, err := protocol.NewCodec(keys)
	if err != nil {
		return nil, err
	}
	dec, err := protocol.NewCodec(keys)
	if err != nil {
		return nil, err
	}

	sock, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}

	return &Client{sock: sock, enc: enc, dec: dec}, nil
}

// Send frames, encrypts and writes one packet
func (c *Client) Send(pktType model.PacketType, text string) error {
	frame, err := c.enc.Encode(pktType, []byte(text))
	if err != nil {
		return err
	}
	_, err = c.sock.Write(frame)
	return err
}

// Recv blocks for the next server packet
func (c *Client) Recv() (model.PacketType, string, error) {
	frame, err := protocol.ReadFrame(c.sock)
	if err != nil {
		return 0, "", err
	}
	pktType, payload, err := c.dec.Decode(frame)
	if err != nil {
		return 0, "", err
	}
	return pktType, string(payload), nil
}

// Close shuts the connection down
func (c *Client) Close() error {
	return c.sock.Close()
}
