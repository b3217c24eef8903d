// Package progress renders one line per artifact transfer on a terminal.
package progress

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"
)

type MultiBar struct {
	w               io.Writer // writer to destination
	width           int
	lastWrittenRows int
	bars            []*Bar
	barslock        sync.Mutex

	haschange atomic.Bool
}

func NewMultiBar(dest io.Writer, width int) *MultiBar {
	return &MultiBar{w: dest, width: width}
}

func (m *MultiBar) print() {
	m.barslock.Lock()
	defer m.barslock.Unlock()

	buf := &bytes.Buffer{}

	// clear previous rows
	if m.lastWrittenRows > 0 {
		fmt.Fprintf(buf, "\033[%dA\033[J", m.lastWrittenRows)
	}

	for _, b := range m.bars {
		b.Write(buf)
	}

	// write once
	_, _ = m.w.Write(buf.Bytes())
	m.lastWrittenRows = len(m.bars)
}

// Run redraws changed bars until ctx is done, then draws a final frame.
func (m *MultiBar) Run(ctx context.Context) {
	t := time.NewTicker(100 * time.Millisecond)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			m.print()
			return
		case <-t.C:
			if m.haschange.CompareAndSwap(true, false) {
				m.print()
			}
		}
	}
}

// Add registers a new bar. A nil MultiBar returns a nil Bar, all Bar methods accept a nil receiver.
func (m *MultiBar) Add(name string, initstatus string) *Bar {
	if m == nil {
		return nil
	}
	bar := &Bar{
		mp:     m,
		Name:   name,
		Status: initstatus,
		Width:  m.width,
	}
	m.barslock.Lock()
	m.bars = append(m.bars, bar)
	m.barslock.Unlock()
	m.haschange.Store(true)
	return bar
}

func (m *MultiBar) notify() {
	m.haschange.Store(true)
}
