package marshal

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"frame-transform/internal/core"
)

type countingBuffer struct {
	pixels   []uint32
	releases int
}

func (b *countingBuffer) Pixels() []uint32 { return b.pixels }
func (b *countingBuffer) Release()         { b.releases++ }

func TestWrapAliasesHostMemory(t *testing.T) {
	buf := SliceBuffer{0xFF332211, 0xFF665544}
	view := Wrap(buf, 2, 1)
	defer view.Release()

	img := view.Image
	assert.Equal(t, 2, img.Width)
	assert.Equal(t, 1, img.Height)
	assert.Equal(t, 4, img.Channels)
	require.Len(t, img.Pix, 8)
	assert.Equal(t, []byte{0x11, 0x22, 0x33, 0xFF}, img.Pix[0:4])

	buf[0] = 0xFF000000
	assert.Equal(t, byte(0), img.Pix[0], "wrap must not copy")
}

func TestWrapEmpty(t *testing.T) {
	assert.Nil(t, Wrap(SliceBuffer(nil), 4, 4).Image.Pix)
	assert.True(t, Wrap(SliceBuffer{1, 2}, 0, 2).Image.Empty())
	assert.True(t, Wrap(SliceBuffer{1, 2}, 2, -1).Image.Empty())
}

func TestWrapNilBuffer(t *testing.T) {
	view := Wrap(nil, 4, 4)
	assert.True(t, view.Image.Empty())
	assert.Nil(t, view.Image.Pix)
	assert.NotPanics(t, view.Release)
	assert.True(t, view.Released())
}

func TestReleaseRunsOnce(t *testing.T) {
	buf := &countingBuffer{pixels: make([]uint32, 4)}
	view := Wrap(buf, 2, 2)

	assert.False(t, view.Released())
	view.Release()
	view.Release()
	assert.True(t, view.Released())
	assert.Equal(t, 1, buf.releases)
	assert.Nil(t, view.Image.Pix)
}

func TestUnwrapCopies(t *testing.T) {
	img := core.Image{
		Width:    2,
		Height:   1,
		Channels: 4,
		Pix:      []byte{0x11, 0x22, 0x33, 0xFF, 0x44, 0x55, 0x66, 0x80},
	}

	out, err := Unwrap(img)
	require.NoError(t, err)
	assert.Equal(t, []uint32{0xFF332211, 0x80665544}, out)

	img.Pix[0] = 0
	assert.Equal(t, uint32(0xFF332211), out[0])
}

func TestRoundTrip(t *testing.T) {
	buf := SliceBuffer{1, 2, 3, 4, 5, 6}
	view := Wrap(buf, 3, 2)
	out, err := Unwrap(view.Image)
	view.Release()

	require.NoError(t, err)
	assert.Equal(t, []uint32(buf), out)
}

func TestUnwrapFailures(t *testing.T) {
	tests := []struct {
		name string
		img  core.Image
	}{
		{"empty", core.Image{Channels: 4}},
		{"three channels", core.NewImage(2, 2, 3)},
		{"single channel", core.NewImage(2, 2, 1)},
		{"short buffer", core.Image{Width: 2, Height: 2, Channels: 4, Pix: make([]byte, 15)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Unwrap(tt.img)
			assert.Nil(t, out)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrAllocation))
		})
	}
}
