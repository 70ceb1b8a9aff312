//go:build darwin || linux

package mpv

import (
	"os"
	"runtime"
	"strconv"
	"sync"

	"go.uber.org/zap"
)

// CallbackInstallationRestricted reports whether the runtime environment
// forbids installing native-callable wake-up trampolines. Creating a
// trampoline requires writable-then-executable memory, which hardened
// runtimes deny; in that case event delivery falls back to a polling thread.
//
// The PLAYBIND_NO_CALLBACK environment variable overrides the detection
// ("1" forces the fallback, "0" forces native callbacks). Replaceable for
// testing.
var CallbackInstallationRestricted = defaultCallbackRestricted

func defaultCallbackRestricted() bool {
	if v := os.Getenv("PLAYBIND_NO_CALLBACK"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return runtime.GOOS == "ios"
}

// fallbackPollTimeout bounds each blocking wait in the poll loop, so a
// dispose request is observed promptly even while the queue is idle.
const fallbackPollTimeout = 0.1 // seconds

// fallbackDelivery delivers events without installing any native callback.
// Each handle gets a dedicated OS thread that blocks in the engine's wait
// call and dispatches events inline, which preserves ordering and keeps the
// engine-owned event memory valid across the consumer call. It keeps its own
// session table; these handles never appear in the wake-up handle registry.
type fallbackDelivery struct {
	mu       sync.Mutex
	sessions map[Handle]*pollSession
}

type pollSession struct {
	handle   Handle
	consumer Consumer
	quit     chan struct{}
	done     chan struct{}
}

func newFallbackDelivery() *fallbackDelivery {
	return &fallbackDelivery{sessions: make(map[Handle]*pollSession)}
}

func (d *fallbackDelivery) create(consumer Consumer, options Options) (Handle, error) {
	h, err := newEngineContext(options)
	if err != nil {
		return 0, err
	}

	s := &pollSession{
		handle:   h,
		consumer: consumer,
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}

	d.mu.Lock()
	d.sessions[h] = s
	d.mu.Unlock()

	Logger().Debug("fallback delivery active", zap.Uint64("handle", uint64(h)))
	go d.pollLoop(s)
	return h, nil
}

func (d *fallbackDelivery) dispose(h Handle) {
	d.mu.Lock()
	s := d.sessions[h]
	if s != nil {
		delete(d.sessions, h)
	}
	d.mu.Unlock()
	if s == nil {
		return
	}

	close(s.quit)
	<-s.done

	mpvTerminateDestroy(uintptr(h))
}

// pollLoop is the out-of-thread equivalent of the wake-up driven drain: one
// loop per handle, pulling and dispatching events in order. The goroutine is
// pinned to an OS thread since it spends its life blocked in native waits.
func (d *fallbackDelivery) pollLoop(s *pollSession) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(s.done)

	for {
		select {
		case <-s.quit:
			return
		default:
		}
		ev, ok := waitNextEvent(uintptr(s.handle), fallbackPollTimeout)
		if !ok {
			continue
		}
		s.consumer(&ev)
	}
}
