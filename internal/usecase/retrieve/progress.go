package retrieve

import (
	"fmt"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"
)

// NopProgress discards progress events.
type NopProgress struct{}

// Start implements Progress.
func (NopProgress) Start(int) {}

// Advance implements Progress.
func (NopProgress) Advance(string, int) {}

// Finish implements Progress.
func (NopProgress) Finish() {}

// WriterProgress renders a single-line progress counter to a writer (typically os.Stderr).
type WriterProgress struct {
	mu      sync.Mutex
	w       io.Writer
	label   string
	total   int
	current int
	rows    int
	start   time.Time
}

// NewWriterProgress creates a progress line prefixed with label.
func NewWriterProgress(w io.Writer, label string) *WriterProgress {
	return &WriterProgress{w: w, label: label}
}

// Start implements Progress.
func (p *WriterProgress) Start(total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.total = total
	p.current = 0
	p.rows = 0
	p.start = time.Now()
	p.report()
}

// Advance implements Progress.
func (p *WriterProgress) Advance(_ string, rows int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.current++
	p.rows += rows
	p.report()
}

// Finish implements Progress.
func (p *WriterProgress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintln(p.w)
}

// report writes the current line. Must be called with lock held.
func (p *WriterProgress) report() {
	percentage := 100.0
	if p.total > 0 {
		percentage = float64(p.current) / float64(p.total) * 100.0
	}
	rate := 0.0
	if elapsed := time.Since(p.start).Seconds(); elapsed > 0 {
		rate = float64(p.current) / elapsed
	}
	fmt.Fprintf(p.w, "\r%s: %d/%d queries (%.1f%%), %d rows - %.2f queries/s",
		p.label, p.current, p.total, percentage, p.rows, rate)
}

// LogProgress reports each finished query group as an info log line.
type LogProgress struct {
	mu     sync.Mutex
	logger *zap.Logger
	total  int
	done   int
}

// NewLogProgress creates a logging progress observer.
func NewLogProgress(logger *zap.Logger) *LogProgress {
	return &LogProgress{logger: logger}
}

// Start implements Progress.
func (p *LogProgress) Start(total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.total = total
	p.done = 0
	p.logger.Info("Retrieval started", zap.Int("queries", total))
}

// Advance implements Progress.
func (p *LogProgress) Advance(qid string, rows int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done++
	p.logger.Info("Query retrieved",
		zap.String("qid", qid),
		zap.Int("rows", rows),
		zap.Int("done", p.done),
		zap.Int("total", p.total),
	)
}

// Finish implements Progress.
func (p *LogProgress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.logger.Info("Retrieval finished", zap.Int("queries", p.done))
}
