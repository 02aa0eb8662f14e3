package session

import (
	"github.com/sirupsen/logrus"

	"frame-transform/internal/engine"
	"frame-transform/internal/marshal"
)

// Process-wide table used by the package-level functions, mirroring a C API
// that hands out handles from a single global instance map.
var defaultRegistry = NewRegistry(logrus.StandardLogger())

func CreateSession(opts ...engine.Option) Handle {
	return defaultRegistry.CreateSession(opts...)
}

func DestroySession(h Handle) {
	defaultRegistry.DestroySession(h)
}

func SetMode(h Handle, value int) error {
	return defaultRegistry.SetMode(h, value)
}

func ProcessFrame(h Handle, pixels []uint32, width, height int) ([]uint32, error) {
	return defaultRegistry.ProcessFrame(h, pixels, width, height)
}

func ProcessBuffer(h Handle, buf marshal.HostBuffer, width, height int) ([]uint32, error) {
	return defaultRegistry.ProcessBuffer(h, buf, width, height)
}

func GetStats(h Handle) (Stats, error) {
	return defaultRegistry.Stats(h)
}
