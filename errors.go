// errors.go - Error taxonomy for the playback engine

package replay

import (
	"errors"
	"fmt"
	"log"
)

// Fatal errors: a playback session refuses to start on these.
var (
	ErrConfiguration = errors.New("replay: invalid configuration")
	ErrNilSong       = errors.New("replay: nil song model")
)

// Recoverable content errors. These never halt playback; the affected
// voice degrades to silence while the rest of the mix continues. They
// exist as sentinels so tests and diagnostics can classify warnings.
var (
	ErrMalformedReference   = errors.New("replay: out-of-range reference")
	ErrEmptyOrCorruptSample = errors.New("replay: empty or corrupt sample")
	ErrUnknownEffect        = errors.New("replay: unknown effect command")
)

// LogFunc receives recoverable-content warnings. Defaults to log.Printf.
type LogFunc func(format string, args ...any)

// warnSink deduplicates recoverable warnings so a malformed reference
// hit on every row logs once, not once per tick.
type warnSink struct {
	logf LogFunc
	seen map[string]bool
}

func newWarnSink(logf LogFunc) *warnSink {
	if logf == nil {
		logf = log.Printf
	}
	return &warnSink{logf: logf, seen: make(map[string]bool)}
}

// warnOnce logs the formatted message the first time its key is seen
func (w *warnSink) warnOnce(key string, err error, format string, args ...any) {
	if w.seen[key] {
		return
	}
	w.seen[key] = true
	w.logf("%v: %s", err, fmt.Sprintf(format, args...))
}
