package gid_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/l1jgo/tilemap/internal/gid"
	"github.com/stretchr/testify/require"
)

type decoded struct {
	H, V, D bool
	Index   uint32
}

func decode(raw uint32) decoded {
	f, idx := gid.Decode(raw)
	return decoded{H: f.Horizontal(), V: f.Vertical(), D: f.Diagonal(), Index: idx}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	indices := []uint32{0, 1, 2, 255, 1 << 16, gid.MaxIndex - 1, gid.MaxIndex}
	for bits := 0; bits < 8; bits++ {
		want := decoded{H: bits&4 != 0, V: bits&2 != 0, D: bits&1 != 0}
		for _, idx := range indices {
			want.Index = idx
			raw, err := gid.Encode(gid.FlagsOf(want.H, want.V, want.D), idx)
			require.NoError(t, err)
			if diff := cmp.Diff(want, decode(raw)); diff != "" {
				t.Errorf("Decode(Encode(%+v)) mismatch (-want+got):\n%v", want, diff)
			}
		}
	}
}

func TestDecodeEncodeIsLossless(t *testing.T) {
	for _, raw := range []uint32{0, 1, 0x80000001, 0x40000005, 0x20000000, 0xE0000000, 0xFFFFFFFF} {
		raw2, err := gid.Encode(gid.Decode(raw))
		require.NoError(t, err)
		require.Equalf(t, raw, raw2, "raw %#x", raw)
	}
}

func TestZeroIndexIgnoresFlags(t *testing.T) {
	for _, raw := range []uint32{0, 0x80000000, 0x40000000, 0x20000000, 0xE0000000} {
		_, idx := gid.Decode(raw)
		require.Zero(t, idx)
		require.True(t, gid.IsEmpty(raw))
	}
	require.False(t, gid.IsEmpty(0x80000001))
}

func TestKnownMasks(t *testing.T) {
	f, idx := gid.Decode(0x80000000 | 7)
	require.Equal(t, gid.FlipHorizontal, f)
	require.Equal(t, uint32(7), idx)

	f, idx = gid.Decode(0x40000000 | 9)
	require.Equal(t, gid.FlipVertical, f)
	require.Equal(t, uint32(9), idx)

	f, _ = gid.Decode(0x20000000 | 1)
	require.Equal(t, gid.FlipDiagonal, f)
	require.Equal(t, "d", f.String())
	require.Equal(t, "h|v|d", gid.Flags(7).String())
	require.Equal(t, "none", gid.NoFlip.String())
}

func TestEncodeOverflow(t *testing.T) {
	_, err := gid.Encode(gid.NoFlip, gid.MaxIndex+1)
	require.Truef(t, errors.Is(err, gid.ErrIndexOverflow), "%v", err)
	require.Panics(t, func() { gid.MustEncode(gid.FlipVertical, 1<<29) })
}
