package glimm

import (
	"errors"
	"fmt"

	"github.com/gogpu/glimm/internal/gpu"
	"github.com/gogpu/glimm/internal/halgpu"
)

// ErrorCode is the sticky error reported by GetError.
type ErrorCode uint32

// Error codes.
const (
	NoError          ErrorCode = 0
	InvalidEnum      ErrorCode = 0x0500
	InvalidValue     ErrorCode = 0x0501
	InvalidOperation ErrorCode = 0x0502
	StackOverflow    ErrorCode = 0x0503
	StackUnderflow   ErrorCode = 0x0504
	OutOfMemory      ErrorCode = 0x0505
)

func (e ErrorCode) String() string {
	switch e {
	case NoError:
		return "no error"
	case InvalidEnum:
		return "invalid enum"
	case InvalidValue:
		return "invalid value"
	case InvalidOperation:
		return "invalid operation"
	case StackOverflow:
		return "stack overflow"
	case StackUnderflow:
		return "stack underflow"
	case OutOfMemory:
		return "out of memory"
	}
	return fmt.Sprintf("ErrorCode(%#x)", uint32(e))
}

var (
	// ErrClosed is returned by calls on a closed Context.
	ErrClosed = errors.New("glimm: context closed")

	// ErrConflictingDevices is returned by New when more than one device
	// source is configured.
	ErrConflictingDevices = errors.New("glimm: WithDevice and WithDeviceProvider are exclusive")
)

// Errors from the device layer that New and SwapBuffers wrap. Match them
// with errors.Is.
var (
	ErrInit          = gpu.ErrInit
	ErrInvalidConfig = gpu.ErrInvalidConfig
	ErrBackendFailed = gpu.ErrBackendFailed
	ErrNoAdapter     = halgpu.ErrNoAdapter
	ErrNotHAL        = halgpu.ErrNotHAL
)
