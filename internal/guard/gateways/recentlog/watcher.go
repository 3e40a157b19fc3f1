// Package recentlog tails a desktop recently-used log and publishes one
// event per newly recorded web link. It polls by byte offset, survives log
// truncation, and keeps a bounded digest window so rewritten files do not
// replay links that were already reported.
package recentlog

import (
	"bufio"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/linkfence/linkfence/internal/guard/common/clock"
	"github.com/linkfence/linkfence/internal/guard/common/log"
	"github.com/linkfence/linkfence/internal/guard/domain"
)

// DefaultPollInterval is used when Options.PollInterval is unset.
const DefaultPollInterval = time.Second

// seenWindowSize bounds how many record digests the replay guard remembers.
// Desktop recent logs hold a few hundred entries, so this comfortably covers
// a full rewrite of the file.
const seenWindowSize = 1024

// Publisher receives link events discovered by the watcher.
type Publisher interface {
	Publish(event domain.LinkOpenEvent) error
}

// recordDigest identifies a bookmark record by its content.
type recordDigest [sha256.Size]byte

// seenWindow remembers digests of recently consumed records so a rescan
// after truncation does not replay them. Oldest digests fall out first.
type seenWindow struct {
	order []recordDigest
	index map[recordDigest]struct{}
	max   int
}

func newSeenWindow(max int) *seenWindow {
	return &seenWindow{
		index: make(map[recordDigest]struct{}, max),
		max:   max,
	}
}

func (s *seenWindow) contains(d recordDigest) bool {
	_, ok := s.index[d]
	return ok
}

func (s *seenWindow) remember(d recordDigest) {
	if s.contains(d) {
		return
	}
	if len(s.order) >= s.max {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.index, oldest)
	}
	s.order = append(s.order, d)
	s.index[d] = struct{}{}
}

func (s *seenWindow) size() int {
	return len(s.order)
}

// Options configures a Watcher. Path and Publisher are required.
type Options struct {
	// Path is the recently-used log file to tail.
	Path string

	// PollInterval is how often the log is rescanned for new records.
	// Zero or negative values fall back to DefaultPollInterval.
	PollInterval time.Duration

	// Publisher receives one event per newly observed web link.
	Publisher Publisher

	// Clock stamps events whose records carry no usable timestamp.
	// Defaults to the system clock.
	Clock clock.Clock

	// Logger defaults to the package-global logger.
	Logger log.Logger
}

// Watcher tails the recent log by byte offset and publishes link events.
// A Watcher runs at most once: after Stop it cannot be restarted.
type Watcher struct {
	path     string
	interval time.Duration
	pub      Publisher
	clk      clock.Clock
	logger   log.Logger

	// Synchronization for graceful shutdown and status snapshots
	mu      sync.RWMutex
	running bool
	stopped bool
	stopCh  chan struct{}
	wg      sync.WaitGroup

	state     State
	offset    int64
	seen      *seenWindow
	errStreak int
	emitted   uint64
	malformed uint64
}

// Status is a point-in-time snapshot of the watcher, suitable for
// diagnostic dumps.
type Status struct {
	State     string `json:"state"`
	Offset    int64  `json:"offset"`
	Seen      int    `json:"seen_records"`
	Emitted   uint64 `json:"emitted_events"`
	Malformed uint64 `json:"malformed_records"`
}

// New creates a Watcher from the given options.
func New(opts Options) (*Watcher, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("recent log watcher requires a path")
	}
	if opts.Publisher == nil {
		return nil, fmt.Errorf("recent log watcher requires a publisher")
	}

	interval := opts.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.RealClock{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.GetLogger()
	}

	return &Watcher{
		path:     opts.Path,
		interval: interval,
		pub:      opts.Publisher,
		clk:      clk,
		logger:   logger,
		stopCh:   make(chan struct{}),
		seen:     newSeenWindow(seenWindowSize),
	}, nil
}

// Start performs a synchronous seed pass over the existing log and then
// begins polling for new records. Records present before Start are indexed
// but never published, so only links opened afterwards produce events.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("recent log watcher already running")
	}
	if w.stopped {
		w.mu.Unlock()
		return fmt.Errorf("recent log watcher already stopped")
	}
	w.running = true
	w.mu.Unlock()

	w.tick(false)

	w.logger.Info(map[string]any{
		"path":     w.path,
		"interval": w.interval.String(),
		"offset":   w.Offset(),
	}, "recent log watcher started")

	w.wg.Add(1)
	go w.loop(ctx)

	return nil
}

// Stop halts polling and waits for the scan loop to exit. It is safe to
// call more than once; the watcher stays stopped.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.stopped = true
	close(w.stopCh)
	w.mu.Unlock()

	w.wg.Wait()

	w.mu.Lock()
	w.state = StateStopped
	offset := w.offset
	emitted := w.emitted
	w.mu.Unlock()

	w.logger.Info(map[string]any{
		"path":    w.path,
		"offset":  offset,
		"emitted": emitted,
	}, "recent log watcher stopped")
}

// State returns the watcher's current lifecycle state.
func (w *Watcher) State() State {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.state
}

// Offset returns the byte offset of the next unread record.
func (w *Watcher) Offset() int64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.offset
}

// Status returns a snapshot of the watcher's counters and state.
func (w *Watcher) Status() Status {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return Status{
		State:     w.state.String(),
		Offset:    w.offset,
		Seen:      w.seen.size(),
		Emitted:   w.emitted,
		Malformed: w.malformed,
	}
}

func (w *Watcher) loop(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Debug(nil, "recent log watcher stopping due to context cancellation")
			w.setState(StateStopped)
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.tick(true)
		}
	}
}

// tick runs one scan pass and settles the state machine afterwards.
func (w *Watcher) tick(emit bool) {
	w.setState(StateScanning)

	if err := w.scan(emit); err != nil {
		w.setState(StateErrored)
		w.noteScanError(err)
		return
	}

	w.mu.Lock()
	w.errStreak = 0
	w.mu.Unlock()
	w.setState(StateIdle)
}

// scan reads complete lines from the current offset to the end of the log.
// A shrunken file means truncation; scanning restarts from the beginning
// and the digest window keeps already-seen records from replaying.
func (w *Watcher) scan(emit bool) error {
	info, err := os.Stat(w.path)
	if err != nil {
		return fmt.Errorf("stat recent log: %w", err)
	}

	w.mu.Lock()
	if info.Size() < w.offset {
		w.logger.Info(map[string]any{
			"path":   w.path,
			"offset": w.offset,
			"size":   info.Size(),
		}, "recent log truncated, rescanning from start")
		w.offset = 0
	}
	offset := w.offset
	w.mu.Unlock()

	if info.Size() == offset {
		return nil
	}

	f, err := os.Open(w.path)
	if err != nil {
		return fmt.Errorf("open recent log: %w", err)
	}
	defer f.Close()

	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return fmt.Errorf("seek recent log: %w", err)
	}

	reader := bufio.NewReader(f)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				// A trailing line without a newline is likely
				// mid-write. Leave it unconsumed; the next scan
				// picks it up whole.
				return nil
			}
			return fmt.Errorf("read recent log: %w", err)
		}
		w.consumeLine(line, emit)
	}
}

// consumeLine handles one complete line and then advances the offset past
// it, so the offset always points at the first unprocessed record.
func (w *Watcher) consumeLine(line string, emit bool) {
	w.mu.RLock()
	recordOffset := w.offset
	w.mu.RUnlock()

	trimmed := strings.TrimRight(line, "\r\n")
	if isBookmarkLine(trimmed) {
		w.consumeRecord(trimmed, recordOffset, emit)
	}

	w.mu.Lock()
	w.offset += int64(len(line))
	w.mu.Unlock()
}

// consumeRecord parses one bookmark record and publishes it if it is a new
// web link. Every record is remembered in the digest window, including
// malformed and non-web ones, so rescans stay quiet about them.
func (w *Watcher) consumeRecord(line string, recordOffset int64, emit bool) {
	digest := recordDigest(sha256.Sum256([]byte(line)))

	w.mu.RLock()
	dup := w.seen.contains(digest)
	w.mu.RUnlock()
	if dup {
		return
	}
	defer func() {
		w.mu.Lock()
		w.seen.remember(digest)
		w.mu.Unlock()
	}()

	rec, err := parseBookmark(line)
	if err != nil {
		w.noteMalformed(recordOffset, err)
		return
	}
	if !isHTTPLink(rec.HRef) {
		w.logger.Debug(map[string]any{
			"href": rec.HRef,
		}, "skipping non-web link")
		return
	}
	if !emit {
		return
	}

	event, err := domain.NewLinkOpenEvent(rec.HRef, rec.observedAt(w.clk), recordOffset)
	if err != nil {
		w.noteMalformed(recordOffset, err)
		return
	}

	if err := w.pub.Publish(event); err != nil {
		w.logger.Debug(map[string]any{
			"url":   event.URL,
			"error": err.Error(),
		}, "publish rejected, dropping event")
		return
	}

	w.mu.Lock()
	w.emitted++
	w.mu.Unlock()

	w.logger.Debug(map[string]any{
		"url":    event.URL,
		"offset": recordOffset,
	}, "link event published")
}

func (w *Watcher) noteMalformed(recordOffset int64, err error) {
	w.mu.Lock()
	w.malformed++
	w.mu.Unlock()

	w.logger.Warn(map[string]any{
		"path":   w.path,
		"offset": recordOffset,
		"error":  err.Error(),
	}, "skipping malformed bookmark record")
}

// noteScanError logs the first failure of a streak at warn level and the
// rest at debug, so a missing file does not flood the log while we retry.
func (w *Watcher) noteScanError(err error) {
	w.mu.Lock()
	w.errStreak++
	streak := w.errStreak
	w.mu.Unlock()

	fields := map[string]any{
		"path":   w.path,
		"error":  err.Error(),
		"streak": streak,
	}
	if streak == 1 {
		w.logger.Warn(fields, "recent log unreadable, will retry")
		return
	}
	w.logger.Debug(fields, "recent log still unreadable")
}

func (w *Watcher) setState(s State) {
	w.mu.Lock()
	w.state = s
	w.mu.Unlock()
}
