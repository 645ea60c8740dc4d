package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"github.com/jackzampolin/lessonkit/internal/request"
)

const (
	DoneDirName   = "done"
	FailedDirName = "failed"

	defaultSettle    = 500 * time.Millisecond
	defaultQueueSize = 100
)

var ErrQueueFull = errors.New("inbox queue is full")

// Inbox watches Dir for request files. A single worker goroutine drains the
// queue, so requests never run concurrently.
type Inbox struct {
	Dir     string
	Handler Handler
	Logger  *slog.Logger
	// Settle is how long a file sits in the queue before it is read, so a
	// request still being written is not picked up half-finished.
	Settle time.Duration

	queue  chan string
	mu     sync.Mutex
	queued map[string]bool
}

// NewInbox creates an inbox over dir.
func NewInbox(dir string, handler Handler, logger *slog.Logger) *Inbox {
	if logger == nil {
		logger = slog.Default()
	}
	return &Inbox{
		Dir:     filepath.Clean(dir),
		Handler: handler,
		Logger:  logger.With("inbox", dir),
		Settle:  defaultSettle,
		queue:   make(chan string, defaultQueueSize),
		queued:  make(map[string]bool),
	}
}

// DoneDir holds completed requests and their result records.
func (in *Inbox) DoneDir() string { return filepath.Join(in.Dir, DoneDirName) }

// FailedDir holds failed requests and their result records.
func (in *Inbox) FailedDir() string { return filepath.Join(in.Dir, FailedDirName) }

// Run watches the inbox until ctx is cancelled. Request files already in the
// directory are queued first.
func (in *Inbox) Run(ctx context.Context) error {
	for _, dir := range []string{in.Dir, in.DoneDir(), in.FailedDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(in.Dir); err != nil {
		return fmt.Errorf("watch %s: %w", in.Dir, err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		in.work(ctx)
	}()
	defer wg.Wait()

	in.scan()
	in.Logger.Info("watching for requests")

	for {
		select {
		case <-ctx.Done():
			in.Logger.Info("inbox stopped")
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write) {
				if err := in.Submit(ev.Name); err != nil {
					in.Logger.Warn("request dropped", "path", ev.Name, "error", err)
				}
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			// Events may have been lost; pick up anything left behind.
			in.Logger.Warn("watcher error", "error", err)
			in.scan()
		}
	}
}

// Submit queues a request file. Files that are not requests, files outside
// the inbox and files already queued are ignored.
func (in *Inbox) Submit(path string) error {
	if !request.IsRequestFile(path) || filepath.Dir(path) != in.Dir {
		return nil
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.queued[path] {
		return nil
	}
	select {
	case in.queue <- path:
		in.queued[path] = true
		return nil
	default:
		return ErrQueueFull
	}
}

// Pending returns the request files currently in the inbox, sorted by name.
func (in *Inbox) Pending() ([]string, error) {
	entries, err := os.ReadDir(in.Dir)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, e := range entries {
		if e.Type().IsRegular() && request.IsRequestFile(e.Name()) {
			paths = append(paths, filepath.Join(in.Dir, e.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

func (in *Inbox) scan() {
	paths, err := in.Pending()
	if err != nil {
		in.Logger.Warn("scan failed", "error", err)
		return
	}
	for _, p := range paths {
		if err := in.Submit(p); err != nil {
			in.Logger.Warn("request dropped", "path", p, "error", err)
		}
	}
}

func (in *Inbox) work(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case path := <-in.queue:
			select {
			case <-ctx.Done():
				return
			case <-time.After(in.Settle):
			}
			in.mu.Lock()
			delete(in.queued, path)
			in.mu.Unlock()

			if _, err := os.Stat(path); err != nil {
				// Filed by an earlier event for the same file.
				continue
			}
			if _, err := in.Process(ctx, path); err != nil {
				in.Logger.Error("filing request failed", "path", path, "error", err)
			}
		}
	}
}

// Process runs one request through the handler, moves it to done/ or
// failed/ and writes its result record there. The returned error covers
// filing only; handler failures are reported in the record.
func (in *Inbox) Process(ctx context.Context, path string) (*Record, error) {
	name := filepath.Base(path)
	rec := &Record{
		ID:        uuid.New().String(),
		Request:   name,
		Status:    StatusRunning,
		StartedAt: time.Now().UTC(),
	}
	logger := in.Logger.With("request", name, "job_id", rec.ID)
	logger.Info("request started")

	outputs, err := in.Handler(ctx, path)
	completed := time.Now().UTC()
	rec.CompletedAt = &completed
	rec.Outputs = outputs
	duration := completed.Sub(rec.StartedAt).Round(time.Millisecond)

	dest := in.DoneDir()
	if err != nil {
		rec.Status = StatusFailed
		rec.Error = err.Error()
		dest = in.FailedDir()
		logger.Error("request failed", "error", err, "duration", duration)
	} else {
		rec.Status = StatusCompleted
		logger.Info("request completed", "duration", duration)
	}

	if err := os.MkdirAll(dest, 0o755); err != nil {
		return rec, err
	}
	if err := os.Rename(path, filepath.Join(dest, name)); err != nil {
		return rec, fmt.Errorf("file request: %w", err)
	}
	if err := rec.write(ResultPath(dest, name)); err != nil {
		return rec, err
	}
	return rec, nil
}
