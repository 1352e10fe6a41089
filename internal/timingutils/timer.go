// Package timingutils provides an opt-in debug timer for the client's
// network-bound operations (per-server key fetch). Disabled by
// default since every call allocates a closure even when it's a no-op.
package timingutils

import (
	"time"

	log "github.com/sirupsen/logrus"
)

// ShowTimingLogs gates GetDeferrableTimingLogger. Off by default; set by
// callers that want per-request latency breakdowns at debug log level.
var ShowTimingLogs = false

// GetDeferrableTimingLogger starts a timer and returns a func that, when
// deferred, logs the elapsed time at debug level under the given message.
func GetDeferrableTimingLogger(message string) func() {
	if !ShowTimingLogs {
		return func() {}
	}

	start := time.Now()
	return func() {
		log.Debugf("%s: %v", message, time.Since(start))
	}
}
