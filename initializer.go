//go:build darwin || linux

package mpv

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"unsafe"

	"go.uber.org/zap"
)

// eventDelivery is one strategy for getting engine events to a Consumer.
// The strategy for a handle is chosen once, at create time, and reused for
// its dispose; it is never re-derived in between.
type eventDelivery interface {
	create(consumer Consumer, options Options) (Handle, error)
	dispose(h Handle)
}

// Initializer creates and destroys engine handles and routes each one to the
// delivery strategy chosen for it. A process normally uses the shared
// instance behind Create/Dispose; tests construct their own for isolation.
type Initializer struct {
	native   *nativeDelivery
	fallback *fallbackDelivery

	// restricted reports whether installing native-callable wake-up
	// trampolines is forbidden in this runtime environment.
	restricted func() bool

	mu         sync.Mutex
	deliveries map[Handle]eventDelivery
}

// NewInitializer returns a fresh Initializer with its own handle bookkeeping.
func NewInitializer() *Initializer {
	return &Initializer{
		native:     newNativeDelivery(),
		fallback:   newFallbackDelivery(),
		restricted: func() bool { return CallbackInstallationRestricted() },
		deliveries: make(map[Handle]eventDelivery),
	}
}

var (
	defaultInitOnce sync.Once
	defaultInit     *Initializer
)

// Default returns the process-wide Initializer, constructing it on first use.
func Default() *Initializer {
	defaultInitOnce.Do(func() {
		defaultInit = NewInitializer()
	})
	return defaultInit
}

// Create makes a new engine handle, applies options in order, initializes
// the engine, and arranges for every event the engine queues for the handle
// to be delivered to consumer, in order. It returns an *InitError if the
// engine cannot be created or initialized; in that case nothing is
// registered and nothing leaks.
func Create(consumer Consumer, options Options) (Handle, error) {
	return Default().Create(consumer, options)
}

// Dispose tears down the handle created by Create. It is idempotent:
// disposing an unknown or already-disposed handle is a no-op. Dispose waits
// for an in-flight event delivery on the handle to finish before the engine
// context is destroyed, so it must not be called from inside the handle's
// own Consumer.
func Dispose(h Handle) {
	Default().Dispose(h)
}

// Create implements the package-level Create on this instance.
func (i *Initializer) Create(consumer Consumer, options Options) (Handle, error) {
	if consumer == nil {
		return 0, errors.New("mpv: nil consumer")
	}

	var d eventDelivery = i.native
	if i.restricted() {
		d = i.fallback
	}

	h, err := d.create(consumer, options)
	if err != nil {
		return 0, err
	}

	i.mu.Lock()
	i.deliveries[h] = d
	i.mu.Unlock()
	return h, nil
}

// Dispose implements the package-level Dispose on this instance.
func (i *Initializer) Dispose(h Handle) {
	i.mu.Lock()
	d, ok := i.deliveries[h]
	if ok {
		delete(i.deliveries, h)
	}
	i.mu.Unlock()
	if !ok {
		return
	}
	d.dispose(h)
}

// newEngineContext creates and initializes one engine context, applying the
// options first. On any failure the context is destroyed before returning,
// so a failed create leaves no native state behind.
func newEngineContext(options Options) (Handle, error) {
	if err := loadLibMPV(); err != nil {
		return 0, fmt.Errorf("mpv: engine unavailable: %w", err)
	}

	ctx := mpvCreate()
	if ctx == 0 {
		return 0, &InitError{Op: "create", Code: statusNoMem, Message: errorMessage(statusNoMem)}
	}

	applyOptions(ctx, options)

	if rc := mpvInitialize(ctx); rc != statusSuccess {
		mpvTerminateDestroy(ctx)
		return 0, &InitError{Op: "initialize", Code: int(rc), Message: errorMessage(rc)}
	}

	return Handle(ctx), nil
}

// applyOptions applies each option independently. The engine rejects options
// it does not know; that is not fatal here, the remaining options are still
// applied and initialization proceeds.
func applyOptions(ctx uintptr, options Options) {
	for _, o := range options {
		name := cString(o.Key)
		value := cString(o.Value)
		rc := mpvSetOptionString(ctx, uintptr(unsafe.Pointer(&name[0])), uintptr(unsafe.Pointer(&value[0])))
		runtime.KeepAlive(name)
		runtime.KeepAlive(value)
		if rc != statusSuccess {
			Logger().Warn("set option failed",
				zap.String("key", o.Key),
				zap.String("value", o.Value),
				zap.Int("code", int(rc)))
		}
	}
}
