package preview

import (
	"context"
	"image"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"frame-transform/internal/core"
	"frame-transform/internal/engine"
	"frame-transform/internal/session"
)

// fakeSource replays a fixed frame a number of times, then closes.
type fakeSource struct {
	frame     gocv.Mat
	remaining int
}

func (s *fakeSource) Read(m *gocv.Mat) bool {
	if s.remaining == 0 {
		return false
	}
	s.remaining--
	if err := s.frame.CopyTo(m); err != nil {
		return false
	}
	return true
}

func newBGRFrame(t *testing.T) gocv.Mat {
	t.Helper()
	mat := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(30, 60, 90, 0), 12, 16, gocv.MatTypeCV8UC3)
	t.Cleanup(func() { mat.Close() })
	return mat
}

func TestLoopRunsUntilSourceCloses(t *testing.T) {
	logger, _ := test.NewNullLogger()
	registry := session.NewRegistry(logger)
	defer registry.Close()
	handle := registry.CreateSession(engine.WithMode(core.ModePassthrough))

	source := &fakeSource{frame: newBGRFrame(t), remaining: 3}
	loop := NewLoop(registry, handle, source, logger, 0)

	var frames []image.Image
	var last session.Stats
	err := loop.Run(context.Background(), func(img image.Image, stats session.Stats) {
		frames = append(frames, img)
		last = stats
	})

	assert.ErrorIs(t, err, ErrSourceClosed)
	require.Len(t, frames, 3)
	assert.Equal(t, uint64(3), last.FramesProcessed)
	assert.Equal(t, 16, frames[0].Bounds().Dx())
	assert.Equal(t, 12, frames[0].Bounds().Dy())

	r, g, b, _ := frames[0].At(0, 0).RGBA()
	assert.Equal(t, []uint32{90, 60, 30}, []uint32{r >> 8, g >> 8, b >> 8})
}

func TestLoopStopsOnCancel(t *testing.T) {
	logger, _ := test.NewNullLogger()
	registry := session.NewRegistry(logger)
	defer registry.Close()
	handle := registry.CreateSession()

	source := &fakeSource{frame: newBGRFrame(t), remaining: -1}
	loop := NewLoop(registry, handle, source, logger, 0)

	ctx, cancel := context.WithCancel(context.Background())
	count := 0
	err := loop.Run(ctx, func(image.Image, session.Stats) {
		count++
		if count == 2 {
			cancel()
		}
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, count)
}

func TestLoopStopsWhenSessionDestroyed(t *testing.T) {
	logger, _ := test.NewNullLogger()
	registry := session.NewRegistry(logger)
	handle := registry.CreateSession()
	registry.DestroySession(handle)

	source := &fakeSource{frame: newBGRFrame(t), remaining: 5}
	loop := NewLoop(registry, handle, source, logger, 0)

	err := loop.Run(context.Background(), func(image.Image, session.Stats) {
		t.Fatal("no frame expected")
	})
	assert.ErrorIs(t, err, session.ErrNullHandle)
}

func TestStepGrayscale(t *testing.T) {
	logger, _ := test.NewNullLogger()
	registry := session.NewRegistry(logger)
	defer registry.Close()
	handle := registry.CreateSession()

	loop := NewLoop(registry, handle, nil, logger, 0)
	img, err := loop.Step(newBGRFrame(t))
	require.NoError(t, err)

	r, g, b, _ := img.At(3, 3).RGBA()
	assert.Equal(t, r, g)
	assert.Equal(t, r, b)
}
