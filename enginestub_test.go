//go:build darwin || linux

package mpv

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

// fakeEngine stands in for libmpv. It keeps a per-handle event queue and
// records every call in sequence, so tests can assert call ordering as well
// as delivery behavior. It stubs the decoded waitNextEvent seam rather than
// mpv_wait_event itself, so no fabricated native event memory is ever passed
// through a uintptr.
type fakeEngine struct {
	mu sync.Mutex

	nextCtx uintptr
	queues  map[uintptr][]Event

	calls          []string
	created        []uintptr
	destroyed      []uintptr
	wakeupCBs      map[uintptr][2]uintptr // ctx -> {callback, userdata}
	clearedWakeups int

	createFails bool
	initResult  int32
	optResult   int32
}

// installFakeEngine swaps the engine function pointers for fakes and marks
// the library as loaded, restoring everything when the test ends.
func installFakeEngine(t *testing.T) *fakeEngine {
	t.Helper()

	f := &fakeEngine{
		nextCtx:   0x1000,
		queues:    make(map[uintptr][]Event),
		wakeupCBs: make(map[uintptr][2]uintptr),
	}

	// Consume the load guard so loadLibMPV never dlopens under test.
	libmpvOnce.Do(func() {})
	prevLoaded, prevErr := libmpvLoaded, libmpvInitErr
	libmpvLoaded, libmpvInitErr = true, nil

	prevVersion := mpvClientAPIVersion
	prevErrStr := mpvErrorString
	prevName := mpvClientName
	prevCreate := mpvCreate
	prevSetOpt := mpvSetOptionString
	prevInit := mpvInitialize
	prevWaitNext := waitNextEvent
	prevWakeup := mpvSetWakeupCallback
	prevDestroy := mpvTerminateDestroy

	mpvClientAPIVersion = func() uint64 { return 2<<16 | 5 }
	mpvErrorString = func(code int32) uintptr { return 0 }
	mpvClientName = func(ctx uintptr) uintptr { return 0 }
	mpvCreate = f.create
	mpvSetOptionString = f.setOptionString
	mpvInitialize = f.initialize
	waitNextEvent = f.waitNextEvent
	mpvSetWakeupCallback = f.setWakeupCallback
	mpvTerminateDestroy = f.terminateDestroy

	t.Cleanup(func() {
		libmpvLoaded, libmpvInitErr = prevLoaded, prevErr
		mpvClientAPIVersion = prevVersion
		mpvErrorString = prevErrStr
		mpvClientName = prevName
		mpvCreate = prevCreate
		mpvSetOptionString = prevSetOpt
		mpvInitialize = prevInit
		waitNextEvent = prevWaitNext
		mpvSetWakeupCallback = prevWakeup
		mpvTerminateDestroy = prevDestroy
	})

	return f
}

func (f *fakeEngine) create() uintptr {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createFails {
		return 0
	}
	f.nextCtx++
	ctx := f.nextCtx
	f.created = append(f.created, ctx)
	f.calls = append(f.calls, "create")
	return ctx
}

func (f *fakeEngine) setOptionString(ctx uintptr, name, value uintptr) int32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fmt.Sprintf("option:%s=%s", goStringFromPtr(name), goStringFromPtr(value)))
	return f.optResult
}

func (f *fakeEngine) initialize(ctx uintptr) int32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "initialize")
	return f.initResult
}

func (f *fakeEngine) waitNextEvent(ctx uintptr, timeout float64) (Event, bool) {
	f.mu.Lock()
	q := f.queues[ctx]
	if len(q) == 0 {
		f.mu.Unlock()
		if timeout > 0 {
			// Stand in for the engine's blocking wait.
			time.Sleep(2 * time.Millisecond)
		}
		return Event{}, false
	}
	ev := q[0]
	f.queues[ctx] = q[1:]
	f.mu.Unlock()
	return ev, true
}

func (f *fakeEngine) setWakeupCallback(ctx, callback, userdata uintptr) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "set-wakeup-callback")
	if callback == 0 {
		f.clearedWakeups++
		delete(f.wakeupCBs, ctx)
		return
	}
	f.wakeupCBs[ctx] = [2]uintptr{callback, userdata}
}

func (f *fakeEngine) terminateDestroy(ctx uintptr) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.destroyed = append(f.destroyed, ctx)
}

// enqueue appends events to a handle's queue without waking anything; tests
// fire the wake-up themselves to control timing.
func (f *fakeEngine) enqueue(h Handle, evs ...Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queues[uintptr(h)] = append(f.queues[uintptr(h)], evs...)
}

func (f *fakeEngine) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeEngine) destroyCount(h Handle) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, ctx := range f.destroyed {
		if ctx == uintptr(h) {
			n++
		}
	}
	return n
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("condition not met within %v", timeout)
}

// eventSink collects delivered events for assertions.
type eventSink struct {
	mu  sync.Mutex
	ids []EventID
	uds []uint64
}

func (s *eventSink) consume(ev *Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids = append(s.ids, ev.ID)
	s.uds = append(s.uds, ev.ReplyUserdata)
}

func (s *eventSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ids)
}

func (s *eventSink) userdata() []uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]uint64(nil), s.uds...)
}
