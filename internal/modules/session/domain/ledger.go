package domain

type ledgerEntry struct {
	durationMs int64
	visits     int
}

// Ledger accumulates dwell per page in first-visit order. Every Add is one
// visit; re-entering a page merges into its existing entry.
type Ledger struct {
	order   []int
	entries map[int]ledgerEntry
}

func NewLedger() Ledger {
	return Ledger{entries: map[int]ledgerEntry{}}
}

func (l *Ledger) Add(page int, durationMs int64) {
	if l.entries == nil {
		l.entries = map[int]ledgerEntry{}
	}
	e, ok := l.entries[page]
	if !ok {
		l.order = append(l.order, page)
	}
	e.durationMs += durationMs
	e.visits++
	l.entries[page] = e
}

func (l Ledger) Clone() Ledger {
	out := Ledger{order: append([]int(nil), l.order...), entries: make(map[int]ledgerEntry, len(l.entries))}
	for k, v := range l.entries {
		out.entries[k] = v
	}
	return out
}

func (l Ledger) Entries() []PageDwell {
	out := make([]PageDwell, 0, len(l.order))
	for _, page := range l.order {
		e := l.entries[page]
		out = append(out, PageDwell{Page: page, DurationMs: e.durationMs, VisitCount: e.visits})
	}
	return out
}

// Since returns what l accumulated on top of base. A page whose only growth
// is the continuation of an already counted visit reports VisitCount 1.
func (l Ledger) Since(base Ledger) []PageDwell {
	out := []PageDwell{}
	for _, page := range l.order {
		e := l.entries[page]
		b := base.entries[page]
		d := e.durationMs - b.durationMs
		v := e.visits - b.visits
		if d <= 0 && v <= 0 {
			continue
		}
		out = append(out, PageDwell{Page: page, DurationMs: max(d, 0), VisitCount: max(v, 1)})
	}
	return out
}

func (l Ledger) TotalMs() int64 {
	var total int64
	for _, e := range l.entries {
		total += e.durationMs
	}
	return total
}

func (l Ledger) Len() int {
	return len(l.order)
}
