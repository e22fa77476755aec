package bridge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

// Buffer sizing bounds for a bridged read session. The chunk buffer
// starts small, doubles while the engine keeps saturating it, and shrinks
// toward the observed average when chunks come in far under capacity.
const (
	initialChunkSize = 8 * 1024
	minChunkSize     = 1 * 1024
	maxChunkSize     = 512 * 1024

	// growStreak is how many consecutive full chunks signal saturation.
	growStreak = 3
	// minSamples gates resize decisions: at least this many chunks must
	// be observed since the last adjustment, so the buffer does not
	// oscillate on a couple of outliers.
	minSamples = 4
	// shrinkDivisor: shrink only when the moving average falls below
	// capacity/shrinkDivisor.
	shrinkDivisor = 4
)

// ErrSessionBusy is returned when Run is invoked on a session that is
// already attached; a Session is exclusively owned by one bridged read.
var ErrSessionBusy = errors.New("bridge session already attached")

type sessionState int

const (
	stateIdle sessionState = iota
	stateAttached
	stateReading
	stateDetached
)

// Session shuttles extracted text out of the foreign engine in bounded,
// adaptively sized chunks. One Session serves one bridged read at a time
// and owns its buffer exclusively, so the sizing statistics are free of
// races by construction.
type Session struct {
	buf       []byte
	ema       float64
	chunks    int
	sinceSize int
	fullRun   int
	highWater int
	state     sessionState
	logger    *zap.Logger
}

func NewSession(logger *zap.Logger) *Session {
	return &Session{
		buf:    make([]byte, initialChunkSize),
		logger: logger,
	}
}

// ChunkSize exposes the current buffer capacity for observability.
func (s *Session) ChunkSize() int { return len(s.buf) }

// HighWater is the largest single chunk seen in the last run.
func (s *Session) HighWater() int { return s.highWater }

// Run attaches to handle, drains it into a string bounded by maxLen, and
// detaches. The handle is released on every exit path: completion, early
// truncation once maxLen is reached, cancellation, and read errors.
// truncated reports that reading stopped before EndOfStream.
func (s *Session) Run(ctx context.Context, handle StreamHandle, maxLen int) (text string, truncated bool, err error) {
	if s.state != stateIdle && s.state != stateDetached {
		return "", false, ErrSessionBusy
	}
	s.state = stateAttached
	s.chunks = 0
	s.sinceSize = 0
	s.fullRun = 0
	s.highWater = 0
	s.ema = 0

	defer func() {
		cerr := handle.Close()
		s.state = stateDetached
		if cerr != nil && err == nil {
			err = fmt.Errorf("detach: %w", cerr)
		}
	}()

	var acc strings.Builder
	s.state = stateReading

	for {
		// Cancellation is honored between chunk requests, never
		// mid-chunk.
		if cerr := ctx.Err(); cerr != nil {
			return "", false, cerr
		}
		if maxLen > 0 && acc.Len() >= maxLen {
			// Bound reached: stop requesting chunks without waiting
			// for EndOfStream. The last chunk may have overshot, so
			// trim back to the bound without splitting a rune.
			return boundText(acc.String(), maxLen), true, nil
		}

		n, rerr := handle.Read(s.buf)
		if n > 0 {
			s.observe(n)
			acc.Write(s.buf[:n])
		}
		if rerr == io.EOF {
			return acc.String(), false, nil
		}
		if rerr != nil {
			return "", false, rerr
		}
	}
}

// boundText cuts s to at most max bytes on a UTF-8 rune boundary.
func boundText(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// observe folds one chunk into the sizing statistics and applies the
// grow/shrink policy once enough samples have accumulated.
func (s *Session) observe(n int) {
	s.chunks++
	s.sinceSize++
	if n > s.highWater {
		s.highWater = n
	}
	if s.ema == 0 {
		s.ema = float64(n)
	} else {
		s.ema += (float64(n) - s.ema) / 4
	}
	if n == len(s.buf) {
		s.fullRun++
	} else {
		s.fullRun = 0
	}

	if s.sinceSize < minSamples {
		return
	}

	switch {
	case s.fullRun >= growStreak && len(s.buf) < maxChunkSize:
		next := len(s.buf) * 2
		if next > maxChunkSize {
			next = maxChunkSize
		}
		s.resize(next)
	case s.ema < float64(len(s.buf)/shrinkDivisor) && len(s.buf) > minChunkSize:
		next := int(s.ema * 2)
		if next < minChunkSize {
			next = minChunkSize
		}
		s.resize(next)
	}
}

func (s *Session) resize(next int) {
	if s.logger != nil {
		s.logger.Debug("bridge buffer resized",
			zap.Int("from", len(s.buf)),
			zap.Int("to", next),
			zap.Float64("ema", s.ema),
			zap.Int("chunks", s.chunks))
	}
	s.buf = make([]byte, next)
	s.sinceSize = 0
	s.fullRun = 0
}
