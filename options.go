package mpv

// Option is a single engine option, applied as a string key/value pair.
type Option struct {
	Key   string
	Value string
}

// Options is an ordered list of engine options. Options are applied one by
// one, in order, before the engine is initialized; they are not retained
// afterwards. Duplicate keys are allowed and applied in sequence.
type Options []Option

// Set appends an option, preserving insertion order.
//
//	opts := mpv.Options{}.Set("video", "no").Set("idle", "yes")
func (o Options) Set(key, value string) Options {
	return append(o, Option{Key: key, Value: value})
}
