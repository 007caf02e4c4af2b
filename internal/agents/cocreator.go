package agents

import (
	"fmt"

	"github.com/zulandar/hearth/internal/bus"
	"github.com/zulandar/hearth/internal/supervisor"
)

// CoCreator shepherds the daily ambition. On a morning event it proposes
// an ambition when none is set; on a day rollover it clears its
// commitments and starts fresh. Proposals surface as Spark feedback;
// the supervisor stays the only writer of ambition state.
type CoCreator struct {
	day         string
	ambition    string
	fallback    string
	commitments []string
	proposed    bool
	envDone     bool
}

// CoCreatorOpts holds CoCreator construction parameters.
type CoCreatorOpts struct {
	// FallbackAmbition is proposed when the host has no ambition for the
	// day. Default keeps the runtime moving rather than idle.
	FallbackAmbition string
}

// NewCoCreator creates a CoCreator.
func NewCoCreator(opts CoCreatorOpts) *CoCreator {
	fallback := opts.FallbackAmbition
	if fallback == "" {
		fallback = "tend the system and note what wants improving"
	}
	return &CoCreator{fallback: fallback}
}

func (c *CoCreator) Name() string { return "co-creator" }

func (c *CoCreator) Awaken() bool { return true }

// OnEnvironmentSetup lays out the workspace: the CoCreator's only setup
// duty is recording its initial commitments.
func (c *CoCreator) OnEnvironmentSetup(ctx *supervisor.Context) bool {
	if !c.envDone {
		c.commitments = append(c.commitments, "greet the day with a concrete ambition")
		c.envDone = true
	}
	return true
}

func (c *CoCreator) Handle(ctx *supervisor.Context, m bus.Message) {
	if m.Kind != bus.KindSystemEvent {
		return
	}
	switch m.Event {
	case bus.EventHeartbeat:
		c.ambition = m.Content
		c.proposed = false
	case bus.EventMorningAmbition:
		if c.ambition == "" && !c.proposed {
			c.proposed = true
			ctx.Feedback(bus.FeedbackSpark, "ambition proposal: "+c.fallback)
		}
	case bus.EventDayRollover:
		c.day = m.Content
		c.commitments = c.commitments[:0]
		c.proposed = false
	case bus.EventEveningReport:
		if len(c.commitments) > 0 {
			ctx.Feedback(bus.FeedbackConnection,
				fmt.Sprintf("held %d commitments through %s", len(c.commitments), c.day))
		}
	}
}

func (c *CoCreator) Tick(ctx *supervisor.Context) {
	// Track the shared ambition as a commitment once per value.
	if ctx.Ambition != "" && ctx.Ambition != c.ambition {
		c.ambition = ctx.Ambition
	}
	if c.ambition != "" && len(c.commitments) < 8 && !c.committed(c.ambition) {
		c.commitments = append(c.commitments, c.ambition)
	}
}

func (c *CoCreator) committed(text string) bool {
	for _, s := range c.commitments {
		if s == text {
			return true
		}
	}
	return false
}

// JournalEntry reflects on the day's ambition.
func (c *CoCreator) JournalEntry(tick uint64) (string, bool) {
	if c.ambition == "" {
		return "", false
	}
	return fmt.Sprintf("Still circling %q; %d commitments on the board.",
		c.ambition, len(c.commitments)), true
}

// Commitments returns a copy of the current commitment list.
func (c *CoCreator) Commitments() []string {
	return append([]string(nil), c.commitments...)
}
