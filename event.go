package mpv

import "unsafe"

// EventID identifies the kind of an engine event. The values mirror the
// libmpv event IDs.
type EventID int

const (
	// EventNone is the empty-queue sentinel: the engine returns it when no
	// further events are queued, terminating a drain.
	EventNone             EventID = 0
	EventShutdown         EventID = 1
	EventLogMessage       EventID = 2
	EventGetPropertyReply EventID = 3
	EventSetPropertyReply EventID = 4
	EventCommandReply     EventID = 5
	EventStartFile        EventID = 6
	EventEndFile          EventID = 7
	EventFileLoaded       EventID = 8
	EventClientMessage    EventID = 16
	EventVideoReconfig    EventID = 17
	EventAudioReconfig    EventID = 18
	EventSeek             EventID = 20
	EventPlaybackRestart  EventID = 21
	EventPropertyChange   EventID = 22
	EventQueueOverflow    EventID = 24
	EventHook             EventID = 25
)

func (id EventID) String() string {
	switch id {
	case EventNone:
		return "none"
	case EventShutdown:
		return "shutdown"
	case EventLogMessage:
		return "log-message"
	case EventGetPropertyReply:
		return "get-property-reply"
	case EventSetPropertyReply:
		return "set-property-reply"
	case EventCommandReply:
		return "command-reply"
	case EventStartFile:
		return "start-file"
	case EventEndFile:
		return "end-file"
	case EventFileLoaded:
		return "file-loaded"
	case EventClientMessage:
		return "client-message"
	case EventVideoReconfig:
		return "video-reconfig"
	case EventAudioReconfig:
		return "audio-reconfig"
	case EventSeek:
		return "seek"
	case EventPlaybackRestart:
		return "playback-restart"
	case EventPropertyChange:
		return "property-change"
	case EventQueueOverflow:
		return "queue-overflow"
	case EventHook:
		return "hook"
	default:
		return "unknown"
	}
}

// Event is one record drained from the engine's event queue. The payload
// behind Data is owned by the engine and is only valid for the duration of
// the Consumer call that receives the event; Events must not be retained.
type Event struct {
	ID            EventID // Event discriminant
	Err           int     // Native status code (0 = success)
	ReplyUserdata uint64  // Token of the request this event replies to
	Data          uintptr // Event-specific payload pointer, may be 0
}

// Consumer receives each drained event, in queue order. For a given handle
// at most one Consumer call is in flight at a time; the next event is not
// pulled until the call returns. A slow Consumer therefore backpressures
// that handle's queue without affecting other handles.
type Consumer func(*Event)

// nativeEvent matches the layout of the engine's mpv_event struct.
type nativeEvent struct {
	id            int32
	err           int32
	replyUserdata uint64
	data          uintptr
}

// decodeEvent reads the engine-owned event struct at p. The result borrows
// the engine's memory through Data; see Event.
func decodeEvent(p unsafe.Pointer) Event {
	ne := (*nativeEvent)(p)
	return Event{
		ID:            EventID(ne.id),
		Err:           int(ne.err),
		ReplyUserdata: ne.replyUserdata,
		Data:          ne.data,
	}
}
