package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/ytrelay/ytrelay/icon"
	"github.com/ytrelay/ytrelay/style"
	"github.com/ytrelay/ytrelay/util"
)

// redrawInterval throttles terminal updates.
const redrawInterval = 100 * time.Millisecond

// progressBar draws an inline bar on stdout for a running download.
type progressBar struct {
	model    progress.Model
	disabled bool
	drawn    int
	last     time.Time
}

func newProgressBar(disabled bool) *progressBar {
	model := progress.New(progress.WithGradient(style.ProgressFrom, style.ProgressTo), progress.WithoutPercentage())
	model.Width = 40
	if width, _, err := util.TerminalSize(); err == nil && width < 80 {
		model.Width = width / 3
	}
	return &progressBar{model: model, disabled: disabled}
}

// update matches client.Progress.
func (p *progressBar) update(received, total int64) {
	if p.disabled {
		return
	}

	now := time.Now()
	complete := total > 0 && received >= total
	if !complete && now.Sub(p.last) < redrawInterval {
		return
	}
	p.last = now

	line := p.render(received, total)
	pad := ""
	if n := lipgloss.Width(line); n < p.drawn {
		pad = strings.Repeat(" ", p.drawn-n)
	}
	fmt.Fprintf(os.Stdout, "\r%s%s", line, pad)
	p.drawn = lipgloss.Width(line)
}

func (p *progressBar) render(received, total int64) string {
	if total <= 0 {
		return fmt.Sprintf("%s %s", icon.Get(icon.Download), humanize.Bytes(uint64(received)))
	}

	percent := float64(received) / float64(total)
	return fmt.Sprintf(
		"%s %s %s / %s",
		icon.Get(icon.Download),
		p.model.ViewAs(percent),
		humanize.Bytes(uint64(received)),
		humanize.Bytes(uint64(total)),
	)
}

// clear erases the bar so regular output can follow.
func (p *progressBar) clear() {
	if p.disabled || p.drawn == 0 {
		return
	}
	fmt.Fprintf(os.Stdout, "\r%s\r", strings.Repeat(" ", p.drawn))
	p.drawn = 0
}
