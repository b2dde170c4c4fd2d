package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/ShayCichocki/relay/internal/orchestrator"
)

// progressSink renders orchestrator events to the terminal.
type progressSink struct {
	out     io.Writer
	verbose bool

	phaseColor *color.Color
	okColor    *color.Color
	failColor  *color.Color
	skipColor  *color.Color
}

func newProgressSink(out io.Writer, verbose bool) *progressSink {
	return &progressSink{
		out:        out,
		verbose:    verbose,
		phaseColor: color.New(color.FgCyan),
		okColor:    color.New(color.FgGreen),
		failColor:  color.New(color.FgRed),
		skipColor:  color.New(color.FgYellow),
	}
}

// run consumes events until the channel closes.
func (p *progressSink) run(events <-chan orchestrator.Event) {
	for ev := range events {
		p.render(ev)
	}
}

func (p *progressSink) render(ev orchestrator.Event) {
	if !p.verbose {
		return
	}

	switch ev.Type {
	case orchestrator.EventPhaseChanged:
		p.phaseColor.Fprintf(p.out, "[%s]\n", ev.Phase)
	case orchestrator.EventPlanReady:
		fmt.Fprintf(p.out, "plan: %s\n", ev.Message)
	case orchestrator.EventSubtaskStarted:
		fmt.Fprintf(p.out, "  #%d %s: %s\n", ev.Seq, ev.Agent, ev.Message)
	case orchestrator.EventSubtaskCompleted:
		p.okColor.Fprintf(p.out, "  #%d done\n", ev.Seq)
	case orchestrator.EventSubtaskFailed:
		p.failColor.Fprintf(p.out, "  #%d failed: %s\n", ev.Seq, ev.Message)
	case orchestrator.EventSubtaskSkipped:
		p.skipColor.Fprintf(p.out, "  #%d skipped\n", ev.Seq)
	}
}
