// Package flags counts named diagnostic conditions raised while records
// are processed.
//
// A Ledger is created empty for every run. Analysis code reports a
// condition with Evaluate, which bumps the counter of the flag matching
// the outcome and hands the condition back so it can drive the caller's
// branch:
//
//	if run.Flags().Evaluate(hits == 0, "no_hit", "hit_exists") {
//	    return status.Skip()
//	}
//
// Counters only grow. Summary lists them in the order the flags were
// first seen, which is the order the report prints them in.
//
// A Ledger is not safe for concurrent use.
package flags

import (
	"golang.org/x/text/unicode/norm"
)

// Entry is one line of a ledger summary.
type Entry struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// Ledger maps flag names to occurrence counts, preserving first-seen order.
type Ledger struct {
	counts map[string]int64
	order  []string
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{counts: make(map[string]int64)}
}

// Evaluate increments onTrue when cond is true and onFalse otherwise.
// An empty name means "no flag" for that outcome. Both names are
// registered on first sight even if they are not incremented, so the
// summary lists every flag an analysis can raise. Returns cond.
func (l *Ledger) Evaluate(cond bool, onTrue, onFalse string) bool {
	t := l.register(onTrue)
	f := l.register(onFalse)

	if cond {
		if t != "" {
			l.counts[t]++
		}
	} else if f != "" {
		l.counts[f]++
	}
	return cond
}

// Define registers name with a zero count. Already known names keep
// their count and position.
func (l *Ledger) Define(name string) {
	l.register(name)
}

// Has reports whether name has been registered.
func (l *Ledger) Has(name string) bool {
	_, ok := l.counts[norm.NFC.String(name)]
	return ok
}

// Count returns the current count of name; unknown names count 0.
func (l *Ledger) Count(name string) int64 {
	return l.counts[norm.NFC.String(name)]
}

// Len returns the number of registered flags.
func (l *Ledger) Len() int {
	return len(l.order)
}

// Summary returns the counts in first-seen order. The returned slice is
// a copy; it is never nil.
func (l *Ledger) Summary() []Entry {
	out := make([]Entry, 0, len(l.order))
	for _, name := range l.order {
		out = append(out, Entry{Name: name, Count: l.counts[name]})
	}
	return out
}

// register normalises name and appends it to the order on first sight.
func (l *Ledger) register(name string) string {
	if name == "" {
		return ""
	}
	key := norm.NFC.String(name)
	if _, ok := l.counts[key]; !ok {
		l.counts[key] = 0
		l.order = append(l.order, key)
	}
	return key
}
