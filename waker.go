//go:build darwin || linux

package mpv

import (
	"sync"

	"github.com/ebitengine/purego"
	"go.uber.org/zap"
)

// nativeDelivery delivers events by installing the engine's wake-up callback.
// The engine invokes the callback from arbitrary native threads whenever new
// events are queued for a handle; the callback only routes a wake-up token to
// that handle's drain goroutine, which pulls and dispatches the events.
type nativeDelivery struct {
	reg *handleRegistry

	cbOnce sync.Once
	cbPtr  uintptr
}

func newNativeDelivery() *nativeDelivery {
	return &nativeDelivery{reg: newHandleRegistry()}
}

func (d *nativeDelivery) create(consumer Consumer, options Options) (Handle, error) {
	h, err := newEngineContext(options)
	if err != nil {
		return 0, err
	}

	e := newRegistryEntry(h, consumer)
	d.reg.insert(e)
	go d.drainLoop(e)

	// The handle itself is the opaque user-data token the engine hands back
	// to the wake-up callback.
	mpvSetWakeupCallback(uintptr(h), d.wakeupCallback(), uintptr(h))
	return h, nil
}

func (d *nativeDelivery) dispose(h Handle) {
	e := d.reg.remove(h)
	if e == nil {
		return
	}

	// Clear the engine's wake-up callback first: a wake-up firing between
	// the removal above and this call finds no entry and is a no-op.
	mpvSetWakeupCallback(uintptr(h), 0, 0)

	// Wait for the drain goroutine to finish its current event delivery
	// before the handle is destroyed; the handle is invalid the instant
	// mpv_terminate_destroy returns.
	close(e.quit)
	<-e.done

	mpvTerminateDestroy(uintptr(h))
}

// wakeupCallback returns the shared native-callable trampoline, creating it
// on first use. One callback serves every handle; purego trampolines are a
// finite process-wide resource and cannot be released individually.
func (d *nativeDelivery) wakeupCallback() uintptr {
	d.cbOnce.Do(func() {
		d.cbPtr = purego.NewCallback(func(userdata uintptr) {
			d.wakeup(Handle(userdata))
		})
	})
	return d.cbPtr
}

// wakeup is the trampoline body. It runs on the engine's native threads,
// possibly concurrently and repeatedly for the same handle, so it must not
// block and must not touch engine state: it looks up the handle and posts a
// wake-up token. A wake-up for an unregistered handle (disposed, or never
// ours) is silently ignored.
func (d *nativeDelivery) wakeup(h Handle) {
	e := d.reg.lookup(h)
	if e == nil {
		return
	}
	select {
	case e.wake <- struct{}{}:
	default:
		// A token is already pending; the queue will be re-checked.
	}
}

// drainLoop serializes event draining for one handle. Each wake-up token
// triggers a drain: events are pulled non-blocking until the engine reports
// an empty queue, and the consumer is invoked synchronously per event, so
// delivery is in-order with at most one call in flight.
func (d *nativeDelivery) drainLoop(e *registryEntry) {
	defer close(e.done)
	log := Logger()
	for {
		select {
		case <-e.quit:
			return
		case <-e.wake:
		}
		for {
			select {
			case <-e.quit:
				return
			default:
			}
			ev, ok := waitNextEvent(uintptr(e.handle), 0)
			if !ok {
				break
			}
			log.Debug("event drained",
				zap.Uint64("handle", uint64(e.handle)),
				zap.Stringer("id", ev.ID))
			e.consumer(&ev)
		}
	}
}
