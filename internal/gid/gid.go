// Package gid decodes and encodes packed global tile ids.
//
// A global tile id is a uint32 whose top three bits are independent flip
// flags; the remaining 29 bits are the tile index. Index 0 means "no tile".
package gid

import (
	"errors"
	"fmt"
	"strings"
)

// Raw bit masks, as stored in layer data.
const (
	maskFlipHorizontal uint32 = 0x80000000 // bit 31
	maskFlipVertical   uint32 = 0x40000000 // bit 30
	maskFlipDiagonal   uint32 = 0x20000000 // bit 29
	maskFlags                 = maskFlipHorizontal | maskFlipVertical | maskFlipDiagonal

	// IndexMask selects the tile index bits.
	IndexMask uint32 = ^maskFlags

	flagShift = 29
)

// MaxIndex is the largest tile index a global id can carry.
const MaxIndex = IndexMask

// Empty is the index reserved for "no tile".
const Empty uint32 = 0

var ErrIndexOverflow = errors.New("tile index exceeds 29 bits")

// Flags is the 3-bit flip set, laid out exactly as raw >> 29.
type Flags uint8

const (
	FlipDiagonal Flags = 1 << iota
	FlipVertical
	FlipHorizontal

	NoFlip Flags = 0
)

func (f Flags) Horizontal() bool { return f&FlipHorizontal != 0 }
func (f Flags) Vertical() bool   { return f&FlipVertical != 0 }
func (f Flags) Diagonal() bool   { return f&FlipDiagonal != 0 }

func (f Flags) String() string {
	if f == NoFlip {
		return "none"
	}
	parts := make([]string, 0, 3)
	if f.Horizontal() {
		parts = append(parts, "h")
	}
	if f.Vertical() {
		parts = append(parts, "v")
	}
	if f.Diagonal() {
		parts = append(parts, "d")
	}
	return strings.Join(parts, "|")
}

// FlagsOf builds a flag set from individual booleans.
func FlagsOf(horizontal, vertical, diagonal bool) Flags {
	var f Flags
	if horizontal {
		f |= FlipHorizontal
	}
	if vertical {
		f |= FlipVertical
	}
	if diagonal {
		f |= FlipDiagonal
	}
	return f
}

// Decode splits a raw global id into its flip flags and tile index.
// Flags are masked off before the index is returned.
func Decode(raw uint32) (Flags, uint32) {
	return Flags(raw >> flagShift), raw & IndexMask
}

// Encode packs flags and index back into a raw global id. It never clamps:
// an index wider than 29 bits is an error.
func Encode(flags Flags, index uint32) (uint32, error) {
	if index > MaxIndex {
		return 0, fmt.Errorf("encode index %d: %w", index, ErrIndexOverflow)
	}
	return uint32(flags&0x7)<<flagShift | index, nil
}

// MustEncode is Encode for fixtures and constants; it panics on overflow.
func MustEncode(flags Flags, index uint32) uint32 {
	raw, err := Encode(flags, index)
	if err != nil {
		panic(err)
	}
	return raw
}

// IsEmpty reports whether raw carries the "no tile" index, whatever its flags.
func IsEmpty(raw uint32) bool {
	return raw&IndexMask == Empty
}
