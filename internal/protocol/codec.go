// Package protocol implements the wire format every message passes through:
// length-delimited frames carrying an AES-256-CTR encrypted payload with a
// per-connection monotonic sequence number and an integrity checksum.
//
// Frame layout (big-endian):
//
//	seq(4) | type(1) | length(2) | nonce(16) | ciphertext(length) | checksum(4)
//
// The checksum covers every byte before the checksum field and is verified
// before decryption is attempted.
package protocol

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/portside/battleship/internal/model"
)

const (
	headerSize   = 7 // seq(4) + type(1) + length(2)
	nonceSize    = 16
	checksumSize = 4

	// MaxPayloadSize is the largest plaintext a single frame can carry,
	// bounded by the 2-byte length field
	MaxPayloadSize = 1<<16 - 1
)

// Codec frames, encrypts and integrity-checks packets for one connection.
// It tracks the outbound sequence counter and the last accepted inbound
// sequence number; a Codec is not safe for concurrent use and belongs to
// exactly one connection.
type Codec struct {
	block    cipher.Block
	nextSeq  uint32
	lastSeen uint32
}

// NewCodec builds a codec around the connection's symmetric key
func NewCodec(provider KeyProvider) (*Codec, error) {
	key, err := provider.Key()
	if err != nil {
		return nil, err
	}
	if len(key) != KeySize {
		return nil, fmt.Errorf("protocol: key must be %d bytes, got %d", KeySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return &Codec{block: block}, nil
}

// Encode builds a complete frame for the plaintext: fresh nonce, encrypt,
// frame, checksum. Advances the outbound sequence counter.
func (c *Codec) Encode(pktType model.PacketType, plaintext []byte) ([]byte, error) {
	if len(plaintext) > MaxPayloadSize {
		return nil, fmt.Errorf("%w: payload of %d bytes exceeds frame limit", model.ErrMalformedPacket, len(plaintext))
	}

	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}

	ciphertext := make([]byte, len(plaintext))
	cipher.NewCTR(c.block, nonce).XORKeyStream(ciphertext, plaintext)

	c.nextSeq++
	frame := make([]byte, 0, headerSize+nonceSize+len(ciphertext)+checksumSize)
	frame = binary.BigEndian.AppendUint32(frame, c.nextSeq)
	frame = append(frame, byte(pktType))
	frame = binary.BigEndian.AppendUint16(frame, uint16(len(ciphertext)))
	frame = append(frame, nonce...)
	frame = append(frame, ciphertext...)
	frame = binary.BigEndian.AppendUint32(frame, Checksum(frame))

	return frame, nil
}

// Decode verifies and decrypts one frame. The checksum is checked before
// anything else is trusted; a mismatch returns model.ErrIntegrity and
// leaves the sequence state untouched. Structural problems return
// model.ErrMalformedPacket. A sequence number that is not strictly greater
// than the last accepted one returns model.ErrReplay. On success the
// last-seen counter advances.
func (c *Codec) Decode(frame []byte) (model.PacketType, []byte, error) {
	if len(frame) < headerSize+nonceSize+checksumSize {
		return 0, nil, fmt.Errorf("%w: frame too short (%d bytes)", model.ErrMalformedPacket, len(frame))
	}

	body := frame[:len(frame)-checksumSize]
	declared := binary.BigEndian.Uint32(frame[len(frame)-checksumSize:])
	if Checksum(body) != declared {
		return 0, nil, model.ErrIntegrity
	}

	seq := binary.BigEndian.Uint32(frame[0:4])
	pktType := model.PacketType(frame[4])
	length := int(binary.BigEndian.Uint16(frame[5:7]))

	if pktType != model.PacketGame && pktType != model.PacketChat {
		return 0, nil, fmt.Errorf("%w: unknown packet type %d", model.ErrMalformedPacket, pktType)
	}
	if length != len(frame)-headerSize-nonceSize-checksumSize {
		return 0, nil, fmt.Errorf("%w: length field %d does not match frame", model.ErrMalformedPacket, length)
	}

	nonce := frame[headerSize : headerSize+nonceSize]
	ciphertext := frame[headerSize+nonceSize : len(frame)-checksumSize]
	plaintext := make([]byte, len(ciphertext))
	cipher.NewCTR(c.block, nonce).XORKeyStream(plaintext, ciphertext)

	if seq <= c.lastSeen {
		return 0, nil, fmt.Errorf("%w: seq %d after %d", model.ErrReplay, seq, c.lastSeen)
	}
	c.lastSeen = seq

	return pktType, plaintext, nil
}

// ReadFrame reads exactly one frame from the stream: the fixed header
// first, then the remainder sized by the length field
func ReadFrame(r io.Reader) ([]byte, error) {
	header := make([]byte, headerSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}

	length := int(binary.BigEndian.Uint16(header[5:7]))
	rest := make([]byte, nonceSize+length+checksumSize)
	if _, err := io.ReadFull(r, rest); err != nil {
		return nil, err
	}

	return append(header, rest...), nil
}

// Checksum is the byte-sum of data modulo 2^32. It guards against
// accidental corruption and naive tampering, not a cryptographic adversary.
func Checksum(data []byte) uint32 {
	var sum uint32
	for _, b := range data {
		sum += uint32(b)
	}
	return sum
}
