package storage

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Janitor periodically removes entries older than a cutoff from the workspace
// directories. It only catches files left behind by crashes or aborted requests.
type Janitor struct {
	dirs       []string
	staleAfter time.Duration
	interval   time.Duration
	now        func() time.Time
	logger     *zap.Logger
	stopOnce   sync.Once
	done       chan struct{}
}

// JanitorOption configures a Janitor.
type JanitorOption func(*Janitor)

// WithJanitorLogger sets a logger for sweep results.
func WithJanitorLogger(l *zap.Logger) JanitorOption {
	return func(j *Janitor) { j.logger = l }
}

// WithClock overrides the time source used to age entries.
func WithClock(now func() time.Time) JanitorOption {
	return func(j *Janitor) { j.now = now }
}

// NewJanitor returns a janitor for the workspace's directories.
func NewJanitor(w *Workspace, staleAfter, interval time.Duration, opts ...JanitorOption) *Janitor {
	j := &Janitor{
		dirs:       []string{w.uploadDir, w.outputDir},
		staleAfter: staleAfter,
		interval:   interval,
		now:        time.Now,
		logger:     zap.NewNop(),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Sweep removes top-level entries of each directory whose modification time is
// older than staleAfter. It returns the number of entries removed.
func (j *Janitor) Sweep() int {
	cutoff := j.now().Add(-j.staleAfter)
	removed := 0
	for _, dir := range j.dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if !os.IsNotExist(err) {
				j.logger.Warn("sweep read dir", zap.String("dir", dir), zap.Error(err))
			}
			continue
		}
		for _, e := range entries {
			info, err := e.Info()
			if err != nil {
				continue
			}
			if !info.ModTime().Before(cutoff) {
				continue
			}
			p := filepath.Join(dir, e.Name())
			if err := os.RemoveAll(p); err != nil {
				j.logger.Warn("sweep remove", zap.String("path", p), zap.Error(err))
				continue
			}
			removed++
		}
	}
	if removed > 0 {
		j.logger.Info("stale files removed", zap.Int("count", removed))
	}
	return removed
}

// Run sweeps once immediately and then every interval until ctx is cancelled or Stop is called.
func (j *Janitor) Run(ctx context.Context) {
	if j.interval <= 0 || j.staleAfter <= 0 {
		return
	}
	j.Sweep()
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-j.done:
			return
		case <-ticker.C:
			j.Sweep()
		}
	}
}

// Stop ends Run. It is safe to call more than once.
func (j *Janitor) Stop() {
	j.stopOnce.Do(func() { close(j.done) })
}
