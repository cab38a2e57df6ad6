package output

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// ProgressBar draws iteration progress on a terminal line.
type ProgressBar struct {
	w       io.Writer
	title   string
	total   uint64
	current uint64
	width   int
	mu      sync.Mutex
}

// NewProgressBar creates a progress bar for total steps. A zero total
// prints a bare counter.
func NewProgressBar(w io.Writer, title string, total uint64) *ProgressBar {
	return &ProgressBar{
		w:     w,
		title: title,
		total: total,
		width: 40,
	}
}

// Set moves the bar to current.
func (p *ProgressBar) Set(current uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = current
	p.render()
}

// Finish draws the final state and ends the line.
func (p *ProgressBar) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.render()
	fmt.Fprintln(p.w)
}

func (p *ProgressBar) render() {
	if p.total == 0 {
		fmt.Fprintf(p.w, "\r%s %d", p.title, p.current)
		return
	}
	frac := float64(p.current) / float64(p.total)
	if frac > 1 {
		frac = 1
	}
	filled := int(float64(p.width) * frac)
	bar := strings.Repeat("█", filled) + strings.Repeat("░", p.width-filled)
	fmt.Fprintf(p.w, "\r%s [%s] %3.0f%% (%d/%d)", p.title, bar, frac*100, p.current, p.total)
}
