package core

// Broadcaster delivers named events with a payload to all subscribers of a
// channel (a session or group ID). Delivery is at-most-once and best-effort:
// callers must treat a failed publish as non-fatal.
type Broadcaster interface {
	Publish(channel, event string, payload interface{})
}
