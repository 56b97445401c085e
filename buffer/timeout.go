package buffer

import "time"

// Timeout is the cancellation handle every Source and Sink carries. The
// core never enforces a Timeout itself (see the design's non-goals);
// concrete transport adapters (a *os.File wrapper, a net.Conn wrapper) are
// expected to consult it before and during a blocking call.
type Timeout struct {
	duration time.Duration
	hasDur   bool

	deadline time.Time
	hasDead  bool
}

// NoTimeout is the shared no-op Timeout returned by adapters that have
// nothing to enforce (in-memory Buffers, for instance).
var NoTimeout = Timeout{} //nolint:gochecknoglobals

// WithTimeout returns a copy of t with a relative timeout applied to every
// blocking call.
func (t Timeout) WithTimeout(d time.Duration) Timeout {
	t.duration = d
	t.hasDur = true

	return t
}

// WithDeadline returns a copy of t with an absolute wall-clock deadline.
func (t Timeout) WithDeadline(at time.Time) Timeout {
	t.deadline = at
	t.hasDead = true

	return t
}

// ClearTimeout returns a copy of t with the relative timeout removed.
func (t Timeout) ClearTimeout() Timeout {
	t.hasDur = false

	return t
}

// ClearDeadline returns a copy of t with the absolute deadline removed.
func (t Timeout) ClearDeadline() Timeout {
	t.hasDead = false

	return t
}

// Duration reports the configured relative timeout, if any.
func (t Timeout) Duration() (time.Duration, bool) {
	return t.duration, t.hasDur
}

// Deadline reports the configured absolute deadline, if any. The return
// shape matches context.Context.Deadline so a transport can feed it
// straight to context.WithDeadline or net.Conn.SetDeadline.
func (t Timeout) Deadline() (time.Time, bool) {
	return t.deadline, t.hasDead
}

// Expired reports whether t's absolute deadline, if set, has passed.
func (t Timeout) Expired() bool {
	return t.hasDead && time.Now().After(t.deadline)
}
