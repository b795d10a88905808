package driver

import (
	"fmt"
	"io"
	"time"
)

// progress prints "index/total(percent) : ETA" every freq records.
// Interactive output redraws one line with a carriage return; batch
// output prints one line per update.
type progress struct {
	w     io.Writer
	total int64
	freq  int64
	batch bool
	now   func() time.Time
	start time.Time
}

func newProgress(w io.Writer, total, freq int64, batch bool, now func() time.Time) *progress {
	return &progress{w: w, total: total, freq: freq, batch: batch, now: now, start: now()}
}

func (p *progress) enabled() bool {
	return p.w != nil && p.freq > 0 && p.total > 0
}

// update is called before record index is processed.
func (p *progress) update(index int64) {
	if !p.enabled() || index%p.freq != 0 {
		return
	}
	p.draw(index)
}

// done closes the progress line after the loop, reporting processed
// records out of the planned total.
func (p *progress) done(processed int64) {
	if !p.enabled() {
		return
	}
	p.draw(processed)
	if !p.batch {
		fmt.Fprintln(p.w)
	}
}

func (p *progress) draw(current int64) {
	elapsed := p.now().Sub(p.start).Seconds()
	var eta float64
	if current > 0 && elapsed > 0 {
		rate := float64(current) / elapsed
		eta = float64(p.total-current) / rate
	}
	h := int64(eta) / 3600
	m := (int64(eta) % 3600) / 60
	s := eta - float64(h*3600+m*60)

	pct := float64(current) / float64(p.total) * 100
	line := fmt.Sprintf("%9d/%9d(%6.2f%%) : ETA %02d:%02d:%04.1f", current, p.total, pct, h, m, s)
	if p.batch {
		fmt.Fprintln(p.w, line)
	} else {
		fmt.Fprint(p.w, "\r"+line)
	}
}
