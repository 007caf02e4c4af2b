// Package protection classifies change targets into governance tiers.
// The tier decides how much ceremony a proposed change requires before it
// is applied; enforcement belongs to whatever tooling consumes the
// classification, not to this package.
package protection

import (
	"fmt"
	"sort"
	"strings"
)

// Tier is a governance classification, ordered by required ceremony.
type Tier int

const (
	// Core changes need the full ceremony: discuss, assess risk, scope
	// check, verify, rollback plan.
	Core Tier = 1
	// Guarded changes are talked through and verified.
	Guarded Tier = 2
	// Maintained changes are built and verified.
	Maintained Tier = 3
	// Playground changes carry no ceremony.
	Playground Tier = 4
	// Sandbox targets hold secrets and are not touched at all.
	Sandbox Tier = 5
)

// DefaultTier is the documented resolution for unmatched targets.
// Ambiguity never silently grants less ceremony than Playground asks for,
// because Playground asks for none; what matters is that the result is a
// real tier, never an error.
const DefaultTier = Playground

func (t Tier) String() string {
	switch t {
	case Core:
		return "Core"
	case Guarded:
		return "Guarded"
	case Maintained:
		return "Maintained"
	case Playground:
		return "Playground"
	case Sandbox:
		return "Sandbox"
	default:
		return fmt.Sprintf("Tier(%d)", int(t))
	}
}

// Step is one required ceremony step.
type Step int

const (
	Discuss Step = iota
	RiskAssess
	ScopeCheck
	Verify
	RollbackPlan
	// Forbidden is the sandbox sentinel: the target must not be changed.
	Forbidden
)

func (s Step) String() string {
	switch s {
	case Discuss:
		return "discuss"
	case RiskAssess:
		return "risk-assess"
	case ScopeCheck:
		return "scope-check"
	case Verify:
		return "verify"
	case RollbackPlan:
		return "rollback-plan"
	case Forbidden:
		return "forbidden"
	default:
		return "unknown"
	}
}

// Ceremony returns the ordered required steps for a tier.
func Ceremony(t Tier) []Step {
	switch t {
	case Core:
		return []Step{Discuss, RiskAssess, ScopeCheck, Verify, RollbackPlan}
	case Guarded:
		return []Step{Discuss, ScopeCheck, Verify}
	case Maintained:
		return []Step{Verify}
	case Sandbox:
		return []Step{Forbidden}
	default:
		return nil
	}
}

type matchKind int

const (
	matchExact matchKind = iota
	matchPrefix
	matchSuffix
)

type pattern struct {
	kind matchKind
	text string
	tier Tier
}

func (p pattern) matches(target string) bool {
	switch p.kind {
	case matchExact:
		return target == p.text
	case matchPrefix:
		return strings.HasPrefix(target, p.text)
	default:
		return strings.HasSuffix(target, p.text)
	}
}

// Sandbox patterns are evaluated before the length-ordered table:
// secrecy outranks specificity, so a secret under an otherwise-matched
// directory never resolves to a lighter tier.
var sandboxTable = buildTable([]pattern{
	{matchPrefix, "memory/secrets/", Sandbox},
	{matchPrefix, "sandbox/", Sandbox},
	{matchSuffix, ".secret", Sandbox},
	{matchSuffix, ".key", Sandbox},
})

// The static classification table. Ties between overlapping patterns are
// broken by longest pattern text; buildTable rejects exact duplicates at
// construction time.
var table = buildTable([]pattern{
	// Core: kernel fundamentals and build configuration.
	{matchExact, "kernel/src/main.rs", Core},
	{matchExact, "kernel/src/interrupts.rs", Core},
	{matchExact, "kernel/src/memory.rs", Core},
	{matchExact, "kernel/src/allocator.rs", Core},
	{matchExact, "kernel/src/serial.rs", Core},
	{matchExact, "kernel/src/agents/mod.rs", Core},
	{matchExact, "kernel/src/agents/protection.rs", Core},
	{matchExact, "Cargo.toml", Core},
	{matchExact, "kernel/Cargo.toml", Core},
	{matchExact, "rust-toolchain.toml", Core},

	// Guarded: supervision, messaging, storage, the host bridge.
	{matchExact, "kernel/src/agents/supervisor.rs", Guarded},
	{matchExact, "kernel/src/agents/message.rs", Guarded},
	{matchExact, "kernel/src/shell.rs", Guarded},
	{matchPrefix, "kernel/src/storage/", Guarded},
	{matchPrefix, "tools/bridge", Guarded},

	// Maintained: agent implementations, prompts, presentation.
	{matchPrefix, "kernel/src/agents/", Maintained},
	{matchPrefix, "kernel/src/gui/", Maintained},
	{matchPrefix, "tools/", Maintained},
})

// buildTable validates the pattern list and orders it longest-first so
// the first match wins. Duplicate patterns are a construction-time
// programming error.
func buildTable(patterns []pattern) []pattern {
	seen := make(map[string]bool, len(patterns))
	for _, p := range patterns {
		key := fmt.Sprintf("%d:%s", p.kind, p.text)
		if seen[key] {
			panic(fmt.Sprintf("protection: duplicate pattern %q", p.text))
		}
		seen[key] = true
	}
	sorted := append([]pattern(nil), patterns...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i].text) > len(sorted[j].text)
	})
	return sorted
}

// Classify resolves a path-like target to its protection tier. The
// function is pure and total: a target matching no pattern resolves to
// DefaultTier, never to an error.
func Classify(target string) Tier {
	target = normalize(target)
	for _, p := range sandboxTable {
		if p.matches(target) {
			return Sandbox
		}
	}
	for _, p := range table {
		if p.matches(target) {
			return p.tier
		}
	}
	return DefaultTier
}

func normalize(target string) string {
	target = strings.TrimPrefix(target, "/")
	return strings.TrimPrefix(target, "hearth/")
}

// RequiresDiscussion reports whether changes at this tier start with a
// conversation.
func (t Tier) RequiresDiscussion() bool {
	return t == Core || t == Guarded
}

// AllowsAutonomousChange reports whether an agent may change targets at
// this tier without prior discussion.
func (t Tier) AllowsAutonomousChange() bool {
	return t == Maintained || t == Playground
}

// IsRestricted reports whether the tier forbids any change at all.
func (t Tier) IsRestricted() bool { return t == Sandbox }
