package progress

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"kubegems.io/modelsrv/pkg/units"
)

type Bar struct {
	Name      string
	Total     int64  // total bytes, <= 0 for indeterminate
	Completed int64  // completed bytes
	Width     int    // width of the bar
	Status    string // status text
	Done      bool   // if the bar is done
	mp        *MultiBar
	mu        sync.Mutex
}

func (b *Bar) Write(w io.Writer) {
	b.mu.Lock()
	defer b.mu.Unlock()

	width := b.Width
	if width == 0 {
		width = 40
	}
	var completed int
	var status string

	switch {
	case b.Done:
		completed = width
		status = b.Status
	case b.Total <= 0:
		status = b.Status
		if b.Completed > 0 {
			status = b.Status + " " + units.HumanSize(float64(b.Completed))
		}
	default:
		completed = int(float64(width) * float64(b.Completed) / float64(b.Total))
		if completed > width {
			completed = width
		}
		status = units.HumanSize(float64(b.Completed)) + "/" + units.HumanSize(float64(b.Total))
	}

	fmt.Fprintf(w, "%s [%s%s] %s\n",
		b.Name,
		strings.Repeat("+", completed),
		strings.Repeat("-", width-completed),
		status,
	)
}

func (b *Bar) SetStatus(status string) {
	if b == nil {
		return
	}
	b.mu.Lock()
	b.Status = status
	b.mu.Unlock()
	b.notify()
}

// SetTotal resets the bar for a new transfer attempt.
func (b *Bar) SetTotal(total int64) {
	if b == nil {
		return
	}
	b.mu.Lock()
	b.Total, b.Completed, b.Done = total, 0, false
	b.mu.Unlock()
	b.notify()
}

func (b *Bar) Increment(n int64) {
	if b == nil {
		return
	}
	b.mu.Lock()
	b.Completed += n
	b.mu.Unlock()
	b.notify()
}

// Finish marks the bar done with a final status.
func (b *Bar) Finish(status string) {
	if b == nil {
		return
	}
	b.mu.Lock()
	b.Status, b.Done = status, true
	b.mu.Unlock()
	b.notify()
}

func (b *Bar) notify() {
	if b.mp != nil {
		b.mp.notify()
	}
}

// WrapWriter counts bytes written through w into the bar.
func (b *Bar) WrapWriter(w io.Writer) io.Writer {
	if b == nil {
		return w
	}
	return &bario{w: w, b: b}
}

type bario struct {
	w io.Writer
	b *Bar
}

func (r *bario) Write(p []byte) (int, error) {
	n, err := r.w.Write(p)
	r.b.Increment(int64(n))
	return n, err
}
