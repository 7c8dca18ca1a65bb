// Package positionid implements position encoding/decoding for reversi boards.
//
// A board is a row-major sequence of 2-bit cell codes (00 = first color,
// 01 = second color, 10 = empty). Four cells are packed per byte with the
// first cell in the high bits. A position ID prefixes the packed cells with
// the board size and the side to move and renders the result as URL-safe
// base64, so it can travel in query strings and JSON bodies unchanged.
package positionid

import (
	"encoding/base64"
	"errors"
	"fmt"
)

// Cell codes
const (
	CodeFirst  uint8 = 0 // 00
	CodeSecond uint8 = 1 // 01
	CodeEmpty  uint8 = 2 // 10
)

const (
	// MaxSize is the largest board edge a key can hold (MaxSize² cells at 2 bits each)
	MaxSize = 16
	// keyWords is the number of uint32s in a PositionKey
	keyWords = MaxSize * MaxSize / 16
	// headerLen is the size + mover prefix of an encoded position
	headerLen = 2
)

var (
	// ErrInvalidPositionID is returned for IDs that fail to decode
	ErrInvalidPositionID = errors.New("invalid position ID")
	// ErrInvalidCode is returned when a cell holds the reserved code 11
	ErrInvalidCode = errors.New("invalid cell code")
)

var encoding = base64.RawURLEncoding

// Position is the decoded form of a position ID.
type Position struct {
	Size  int     // Board edge length
	Mover uint8   // CodeFirst or CodeSecond
	Cells []uint8 // Size*Size cell codes, row-major
}

// PositionKey is a fixed-size comparable form of a board, used for cache keying.
// Holds 16 cells per uint32.
type PositionKey struct {
	Size uint8
	Data [keyWords]uint32
}

// Pack packs cell codes four to a byte, first cell in the high bits.
// The final byte is padded with empty codes.
func Pack(cells []uint8) []byte {
	out := make([]byte, (len(cells)+3)/4)
	for i := range out {
		out[i] = CodeEmpty<<6 | CodeEmpty<<4 | CodeEmpty<<2 | CodeEmpty
	}
	for i, c := range cells {
		shift := uint(6 - 2*(i%4))
		out[i/4] &^= 0x3 << shift
		out[i/4] |= (c & 0x3) << shift
	}
	return out
}

// Unpack reads count cell codes from packed data.
func Unpack(data []byte, count int) ([]uint8, error) {
	if len(data) < (count+3)/4 {
		return nil, fmt.Errorf("%w: need %d bytes for %d cells, have %d",
			ErrInvalidPositionID, (count+3)/4, count, len(data))
	}
	cells := make([]uint8, count)
	for i := range cells {
		shift := uint(6 - 2*(i%4))
		c := (data[i/4] >> shift) & 0x3
		if c > CodeEmpty {
			return nil, fmt.Errorf("%w at cell %d", ErrInvalidCode, i)
		}
		cells[i] = c
	}
	return cells, nil
}

// PositionID encodes a board and side to move.
func PositionID(p Position) string {
	buf := make([]byte, 0, headerLen+(len(p.Cells)+3)/4)
	buf = append(buf, byte(p.Size), p.Mover)
	buf = append(buf, Pack(p.Cells)...)
	return encoding.EncodeToString(buf)
}

// FromPositionID decodes a position ID. Size limits are checked here; the
// game rules (even size, minimum size) are left to the caller.
func FromPositionID(id string) (Position, error) {
	raw, err := encoding.DecodeString(id)
	if err != nil {
		return Position{}, fmt.Errorf("%w: %v", ErrInvalidPositionID, err)
	}
	if len(raw) < headerLen {
		return Position{}, fmt.Errorf("%w: too short", ErrInvalidPositionID)
	}

	size := int(raw[0])
	if size == 0 || size > MaxSize {
		return Position{}, fmt.Errorf("%w: board size %d", ErrInvalidPositionID, size)
	}
	mover := raw[1]
	if mover != CodeFirst && mover != CodeSecond {
		return Position{}, fmt.Errorf("%w: mover code %d", ErrInvalidPositionID, mover)
	}

	body := raw[headerLen:]
	if len(body) != (size*size+3)/4 {
		return Position{}, fmt.Errorf("%w: %d bytes for a %dx%d board",
			ErrInvalidPositionID, len(body), size, size)
	}
	cells, err := Unpack(body, size*size)
	if err != nil {
		return Position{}, err
	}

	return Position{Size: size, Mover: mover, Cells: cells}, nil
}

// MakePositionKey creates a compact key from row-major cell codes.
// Boards larger than MaxSize are truncated; callers never build them.
func MakePositionKey(size int, cells []uint8) PositionKey {
	key := PositionKey{Size: uint8(size)}
	for i, c := range cells {
		if i >= keyWords*16 {
			break
		}
		key.Data[i/16] |= uint32(c&0x3) << (2 * uint(i%16))
	}
	return key
}
