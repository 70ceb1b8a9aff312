//go:build darwin || linux

// Package mpv loads libmpv dynamically at runtime via purego, so the binding
// builds with CGO_ENABLED=0 and picks up whatever libmpv the host provides.

package mpv

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
)

var (
	libmpvOnce    sync.Once
	libmpvHandle  uintptr
	libmpvInitErr error
	libmpvLoaded  bool
)

// libmpv function pointers. Loaded once by loadLibMPV; tests substitute fakes.
var (
	mpvClientAPIVersion  func() uint64
	mpvErrorString       func(code int32) uintptr
	mpvClientName        func(ctx uintptr) uintptr
	mpvCreate            func() uintptr
	mpvSetOptionString   func(ctx uintptr, name, value uintptr) int32
	mpvInitialize        func(ctx uintptr) int32
	mpvWaitEvent         func(ctx uintptr, timeout float64) uintptr
	mpvSetWakeupCallback func(ctx uintptr, callback, userdata uintptr)
	mpvTerminateDestroy  func(ctx uintptr)
)

// loadLibMPV loads the libmpv shared library.
func loadLibMPV() error {
	libmpvOnce.Do(func() {
		libmpvInitErr = loadLibMPVLib()
		if libmpvInitErr == nil {
			libmpvLoaded = true
		}
	})
	return libmpvInitErr
}

func loadLibMPVLib() error {
	paths := getLibMPVPaths()

	var lastErr error
	for _, path := range paths {
		handle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
		if err == nil {
			libmpvHandle = handle
			loadLibMPVSymbols()
			return nil
		}
		lastErr = err
	}

	if lastErr != nil {
		return fmt.Errorf("failed to load libmpv: %w", lastErr)
	}
	return errors.New("libmpv not found in any standard location")
}

func getLibMPVPaths() []string {
	var paths []string

	libName := "libmpv.so"
	if runtime.GOOS == "darwin" {
		libName = "libmpv.dylib"
	}

	// Environment variable overrides
	if envPath := os.Getenv("MPV_LIB_PATH"); envPath != "" {
		paths = append(paths, envPath)
	}
	if envPath := os.Getenv("PLAYBIND_LIB_PATH"); envPath != "" {
		paths = append(paths, filepath.Join(envPath, libName))
	}

	// Try to find based on executable location
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, libName),
			filepath.Join(exeDir, "..", "lib", libName),
		)
	}

	// Try module root
	if root := findModuleRoot(); root != "" {
		paths = append(paths, filepath.Join(root, "build", libName))
	}

	// System paths
	switch runtime.GOOS {
	case "darwin":
		paths = append(paths,
			"libmpv.dylib",
			"/usr/local/lib/libmpv.dylib",
			"/opt/homebrew/lib/libmpv.dylib",
			"/opt/local/lib/libmpv.dylib",
		)
	case "linux":
		paths = append(paths,
			"libmpv.so",
			"libmpv.so.2",
			"/usr/lib/libmpv.so",
			"/usr/local/lib/libmpv.so",
			"/usr/lib/x86_64-linux-gnu/libmpv.so.2",
			"/usr/lib/aarch64-linux-gnu/libmpv.so.2",
		)
	}

	return paths
}

func loadLibMPVSymbols() {
	purego.RegisterLibFunc(&mpvClientAPIVersion, libmpvHandle, "mpv_client_api_version")
	purego.RegisterLibFunc(&mpvErrorString, libmpvHandle, "mpv_error_string")
	purego.RegisterLibFunc(&mpvClientName, libmpvHandle, "mpv_client_name")
	purego.RegisterLibFunc(&mpvCreate, libmpvHandle, "mpv_create")
	purego.RegisterLibFunc(&mpvSetOptionString, libmpvHandle, "mpv_set_option_string")
	purego.RegisterLibFunc(&mpvInitialize, libmpvHandle, "mpv_initialize")
	purego.RegisterLibFunc(&mpvWaitEvent, libmpvHandle, "mpv_wait_event")
	purego.RegisterLibFunc(&mpvSetWakeupCallback, libmpvHandle, "mpv_set_wakeup_callback")
	purego.RegisterLibFunc(&mpvTerminateDestroy, libmpvHandle, "mpv_terminate_destroy")
}

// IsLibMPVAvailable checks if libmpv can be loaded.
func IsLibMPVAvailable() bool {
	if err := loadLibMPV(); err != nil {
		return false
	}
	return libmpvLoaded
}

// LibMPVVersion returns the client API version of the loaded libmpv,
// formatted as "major.minor". Returns "" if libmpv is unavailable.
func LibMPVVersion() string {
	if !IsLibMPVAvailable() {
		return ""
	}
	v := mpvClientAPIVersion()
	return fmt.Sprintf("%d.%d", v>>16, v&0xffff)
}

// ClientName returns the engine-assigned name of a handle, for diagnostics.
func ClientName(h Handle) string {
	if h == 0 || !IsLibMPVAvailable() {
		return ""
	}
	return goStringFromPtr(mpvClientName(uintptr(h)))
}

// waitNextEvent pulls one event from a context's queue. ok is false when the
// queue is empty (the engine returned the empty-queue sentinel). Package-level
// so tests can substitute event delivery with plain Event values instead of
// native event memory.
var waitNextEvent = defaultWaitNextEvent

func defaultWaitNextEvent(ctx uintptr, timeout float64) (ev Event, ok bool) {
	p := mpvWaitEvent(ctx, timeout)
	if p == 0 {
		return Event{}, false
	}
	ev = decodeEvent(unsafe.Pointer(p))
	if ev.ID == EventNone {
		return Event{}, false
	}
	return ev, true
}

// errorMessage translates a native status code to the engine's message text.
func errorMessage(code int32) string {
	if !libmpvLoaded || mpvErrorString == nil {
		return ""
	}
	return goStringFromPtr(mpvErrorString(code))
}
