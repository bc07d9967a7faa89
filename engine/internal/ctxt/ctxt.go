// Package ctxt provides the GPU driver used in the engine.
package ctxt

import (
	"errors"
	"strings"

	"github.com/pnkrengine/core/rhi"
)

var (
	drv    rhi.Driver
	gpu    rhi.GPU
	limits rhi.Limits
)

var errNoDriver = errors.New("ctxt: driver not found")

// Open loads a driver whose name contains the provided name string.
// It is case-sensitive. If name is the empty string, all registered
// drivers are considered and the first one that opens successfully
// is used.
//
// Unlike the teacher's build-tagged auto-init, this package never
// links a concrete backend: callers (cmd/enginectl, tests, or an
// embedding application) must register a rhi.Driver via rhi.Register
// before calling Open.
func Open(name string) error {
	return loadDriver(name)
}

// loadDriver attempts to load any driver whose name contains
// the provided name string. It is case-sensitive.
// If name is the empty string, all drivers are considered.
// It assumes that the drv and gpu vars hold invalid values
// and replaces both on success. It also updates limits with
// a call to gpu.Limits().
func loadDriver(name string) error {
	drivers := rhi.Drivers()
	err := errNoDriver
	for i := range drivers {
		if !strings.Contains(drivers[i].Name(), name) {
			continue
		}
		var u rhi.GPU
		if u, err = drivers[i].Open(); err != nil {
			continue
		}
		drv = drivers[i]
		gpu = u
		limits = gpu.Limits()
		return nil
	}
	return err
}

// Driver returns the rhi.Driver set by the last successful Open call.
func Driver() rhi.Driver { return drv }

// GPU returns the rhi.GPU set by the last successful Open call.
func GPU() rhi.GPU { return gpu }

// Limits returns the rhi.Limits of the context's GPU.
// This value is retrieved only once, at Open time. It must not be
// changed by the caller.
func Limits() *rhi.Limits { return &limits }
