// Package token encodes and decodes x-client-transaction-id values.
//
// Layout before masking:
//
//	key bytes | timestamp (4, little endian) | sha256 prefix (16) | marker (1)
//
// The masked form is one random byte followed by every payload byte
// XORed with it, base64 encoded without padding.
package token

import (
	"bytes"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/kyupark/xctid/internal/codec"
	"github.com/kyupark/xctid/internal/protocol"
	"github.com/kyupark/xctid/internal/txerr"
)

// trailerLen is the payload length beyond the key bytes.
const trailerLen = 4 + protocol.HashPrefixLen + 1

// Payload is a decoded token.
type Payload struct {
	Mask      byte
	KeyBytes  []byte
	Timestamp uint32
	Hash      [protocol.HashPrefixLen]byte
	Marker    byte
}

// Now returns the token timestamp for t: whole seconds since the
// protocol epoch.
func Now(t time.Time) int64 {
	return (t.UnixMilli() - protocol.EpochOffset*1000) / 1000
}

// Mask draws the random XOR byte. A nil reader uses crypto/rand.
func Mask(r io.Reader) (byte, error) {
	if r == nil {
		r = rand.Reader
	}
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, fmt.Errorf("drawing mask byte: %w", err)
	}
	return b[0], nil
}

// Signature is the text whose hash binds a token to a request.
func Signature(method, path string, timestamp int64, animationKey string) string {
	return method + "!" + path + "!" + strconv.FormatInt(timestamp, 10) + protocol.Keyword + animationKey
}

func hashPrefix(method, path string, timestamp int64, animationKey string) [protocol.HashPrefixLen]byte {
	sum := sha256.Sum256([]byte(Signature(method, path, timestamp, animationKey)))
	var out [protocol.HashPrefixLen]byte
	copy(out[:], sum[:])
	return out
}

// Encode builds the token for one request. It is a pure function of its
// arguments; timestamps beyond 32 bits wrap in the byte layout.
func Encode(method, path string, keyBytes []byte, animationKey string, timestamp int64, mask byte) string {
	ts := uint32(timestamp)
	hash := hashPrefix(method, path, timestamp, animationKey)

	plain := make([]byte, 0, len(keyBytes)+trailerLen)
	plain = append(plain, keyBytes...)
	plain = append(plain, byte(ts), byte(ts>>8), byte(ts>>16), byte(ts>>24))
	plain = append(plain, hash[:]...)
	plain = append(plain, protocol.MarkerByte)

	out := make([]byte, 1+len(plain))
	out[0] = mask
	for i, b := range plain {
		out[i+1] = b ^ mask
	}
	return codec.EncodeBase64(out)
}

// Decode unmasks a token and splits it into its fields.
func Decode(tok string) (*Payload, error) {
	raw, err := codec.DecodeBase64(tok)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", txerr.ErrMalformedToken, err)
	}
	if len(raw) < 1+trailerLen {
		return nil, fmt.Errorf("%w: %d bytes", txerr.ErrMalformedToken, len(raw))
	}

	mask := raw[0]
	plain := make([]byte, len(raw)-1)
	for i, b := range raw[1:] {
		plain[i] = b ^ mask
	}

	keyLen := len(plain) - trailerLen
	p := &Payload{
		Mask:     mask,
		KeyBytes: plain[:keyLen],
	}
	t := plain[keyLen : keyLen+4]
	p.Timestamp = uint32(t[0]) | uint32(t[1])<<8 | uint32(t[2])<<16 | uint32(t[3])<<24
	copy(p.Hash[:], plain[keyLen+4:])
	p.Marker = plain[len(plain)-1]
	return p, nil
}

// Plaintext returns the unmasked payload bytes of p.
func (p *Payload) Plaintext() []byte {
	out := make([]byte, 0, len(p.KeyBytes)+trailerLen)
	out = append(out, p.KeyBytes...)
	out = append(out, byte(p.Timestamp), byte(p.Timestamp>>8), byte(p.Timestamp>>16), byte(p.Timestamp>>24))
	out = append(out, p.Hash[:]...)
	return append(out, p.Marker)
}

// Verify reports whether p was issued for method and path under
// animationKey. Timestamps wider than 32 bits cannot be checked.
func (p *Payload) Verify(method, path, animationKey string) bool {
	if p.Marker != protocol.MarkerByte {
		return false
	}
	want := hashPrefix(method, path, int64(p.Timestamp), animationKey)
	return bytes.Equal(want[:], p.Hash[:])
}

// Time returns the wall-clock second p was issued at.
func (p *Payload) Time() time.Time {
	return time.Unix(int64(p.Timestamp)+protocol.EpochOffset, 0)
}
