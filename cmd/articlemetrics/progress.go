package main

import (
	"fmt"
	"sync"

	"github.com/gosuri/uiprogress"
)

// progressBars renders one bar per pipeline step.
type progressBars struct {
	mu      sync.Mutex
	started bool
	bars    map[string]*uiprogress.Bar
}

func newProgressBars() *progressBars {
	return &progressBars{bars: make(map[string]*uiprogress.Bar)}
}

// Update satisfies pipeline.ProgressFunc.
func (p *progressBars) Update(step string, done, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		uiprogress.Start()
		p.started = true
	}

	bar, ok := p.bars[step]
	if !ok {
		bar = uiprogress.AddBar(total)
		bar.AppendCompleted()
		bar.PrependElapsed()
		bar.PrependFunc(func(b *uiprogress.Bar) string {
			return fmt.Sprintf("%-8s %d/%d", step, b.Current(), b.Total)
		})
		p.bars[step] = bar
	}
	bar.Set(done)
}

// Stop ends rendering if any bar was shown.
func (p *progressBars) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		uiprogress.Stop()
		p.started = false
	}
}
