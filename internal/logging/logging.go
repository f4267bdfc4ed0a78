// Package logging provides the engine's ambient structured logger:
// a github.com/sirupsen/logrus.Logger configured the way the rest of the
// engine expects (internal/odb.WithLogger already takes a *logrus.Logger
// directly), plus a small step-timing Tracker for verbose/debug traces.
//
// Grounded on modules/trace/error.go: the same logrus-backed error
// helper that stamps the caller's function name and line, and the same
// debug-gated step timer, rewritten against mediagit's own operations
// rather than zeta's.
package logging

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
)

// New returns a logrus.Logger writing to stderr at level, using logrus's
// text formatter with full timestamps. (internal/odb falls back to
// logrus.StandardLogger(), which keeps logrus's own defaults, when no
// logger is supplied.)
func New(level logrus.Level) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(level)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return l
}

// location reports the caller skip frames up, matching trace.Location's
// shape for annotating error messages with where they were raised.
func location(skip int) (string, int) {
	pc, _, line, ok := runtime.Caller(skip)
	if !ok {
		return "?", line
	}
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return "?", line
	}
	return fn.Name(), line
}

// Errorf formats an error, logs it at Error level with its call site, and
// returns it so the caller can still propagate it per the specification's
// "nothing is silently dropped" policy.
func Errorf(log *logrus.Logger, format string, a ...any) error {
	fn, line := location(2)
	msg := fmt.Sprintf(format, a...)
	log.Errorf("%s:%d %s", fn, line, msg)
	return fmt.Errorf("%s", msg)
}

// Tracker times successive steps of a long-running operation (pack
// writes, fsck passes) and logs each step's duration, but only while
// debug is enabled — matching trace.Tracker's always-measure,
// only-print-if-debug shape.
type Tracker struct {
	log   *logrus.Logger
	debug bool
	last  time.Time
}

// NewTracker returns a Tracker that reports through log when debug is true.
func NewTracker(log *logrus.Logger, debug bool) *Tracker {
	return &Tracker{log: log, debug: debug, last: time.Now()}
}

// Step records that a named step just completed, logging its duration
// since the previous Step (or since NewTracker) when debug is enabled.
func (t *Tracker) Step(format string, a ...any) {
	now := time.Now()
	if t.debug {
		t.log.Debugf("%s took %v", fmt.Sprintf(format, a...), now.Sub(t.last))
	}
	t.last = now
}
