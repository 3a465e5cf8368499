package diag

import (
	"fmt"
	"io"
	"sort"

	"amylang/internal/source"
)

type Severity int

const (
	SevWarning Severity = iota
	SevError
	SevFatal
)

func (s Severity) String() string {
	switch s {
	case SevWarning:
		return "warning"
	case SevError:
		return "error"
	case SevFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

type Item struct {
	Filename string
	Line     int
	Col      int
	Sev      Severity
	Msg      string
}

// Bag is an append-only sink of diagnostics, written from every stage.
// A fatal item stops the emitting stage; errors let it finish but gate
// the stage boundary.
type Bag struct {
	Items []Item
	fatal bool
}

func (b *Bag) add(sev Severity, s source.Span, format string, args ...interface{}) {
	fn, line, col := s.LocStart()
	b.Items = append(b.Items, Item{
		Filename: fn,
		Line:     line,
		Col:      col,
		Sev:      sev,
		Msg:      fmt.Sprintf(format, args...),
	})
}

func (b *Bag) Warnf(s source.Span, format string, args ...interface{}) {
	b.add(SevWarning, s, format, args...)
}

func (b *Bag) Errorf(s source.Span, format string, args ...interface{}) {
	b.add(SevError, s, format, args...)
}

func (b *Bag) Fatalf(s source.Span, format string, args ...interface{}) {
	b.add(SevFatal, s, format, args...)
	b.fatal = true
}

// Failed reports whether any error or fatal was recorded. Warnings never halt.
func (b *Bag) Failed() bool {
	if b == nil {
		return false
	}
	if b.fatal {
		return true
	}
	for _, it := range b.Items {
		if it.Sev != SevWarning {
			return true
		}
	}
	return false
}

func (b *Bag) HasFatal() bool { return b != nil && b.fatal }

func (b *Bag) Merge(other *Bag) {
	if other == nil {
		return
	}
	b.Items = append(b.Items, other.Items...)
	if other.fatal {
		b.fatal = true
	}
}

func Print(w io.Writer, b *Bag) {
	if b == nil || len(b.Items) == 0 {
		return
	}
	items := make([]Item, 0, len(b.Items))
	items = append(items, b.Items...)
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Filename != items[j].Filename {
			return items[i].Filename < items[j].Filename
		}
		if items[i].Line != items[j].Line {
			return items[i].Line < items[j].Line
		}
		return items[i].Col < items[j].Col
	})
	for _, it := range items {
		fmt.Fprintf(w, "%s:%d:%d: %s: %s\n", it.Filename, it.Line, it.Col, it.Sev, it.Msg)
	}
}
