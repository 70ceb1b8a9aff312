// Package mpv bridges libmpv's wake-up driven event queue into ordered
// per-handle event delivery for Go consumers.
//
// Key pieces include:
//   - Create/Dispose for engine handle lifecycle, with ordered option
//     application before initialization
//   - A wake-up trampoline installed as the engine's callback, safe to fire
//     concurrently and repeatedly from the engine's native threads
//   - A per-handle drain loop delivering events to a Consumer in order, with
//     at most one delivery in flight per handle
//   - A polling fallback used where the runtime forbids installing
//     native-callable trampolines
//
// # Architecture
//
//	Create -> engine context + registry entry -> engine fires wake-up ->
//	drain loop pulls events until empty -> Consumer per event -> Dispose
//
// The engine signals "something is queued", not "one event arrived": wake-ups
// are level-triggered and may fire many times while a drain is in progress.
// The drain loop coalesces them and guarantees the queue is re-checked after
// every wake-up, so events are never lost, duplicated, or reordered.
//
// # Native Library
//
// The binding loads libmpv dynamically via purego (CGO_ENABLED=0). Set
// MPV_LIB_PATH to the library file, or PLAYBIND_LIB_PATH to the directory
// containing it; otherwise standard system locations are searched.
//
// # Fallback Delivery
//
// Installing a native-callable trampoline requires executable memory, which
// some hardened runtimes deny. When CallbackInstallationRestricted reports
// true, Create transparently switches to a per-handle polling thread with
// the same delivery contract; PLAYBIND_NO_CALLBACK overrides the detection.
package mpv
