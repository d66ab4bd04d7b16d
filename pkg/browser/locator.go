package browser

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Segment is one step of a Locator chain: either a CSS query evaluated against
// every current match, or a positional pick from the current match list.
type Segment struct {
	CSS   string
	Nth   int
	IsNth bool
}

// Locator is an immutable query descriptor. Drivers resolve it against the
// live page on every operation; nothing is cached between calls.
//
// Resolution is strict: a locator whose final match list holds more than one
// element is an error on every driver, as it is for Playwright. Use Nth to
// pick one. The baas driver sends single CSS queries to the service as is, so
// those follow the service's own matching.
type Locator struct {
	segments []Segment
}

// Query starts a Locator matching css against the whole document.
func Query(css string) Locator {
	return Locator{segments: []Segment{{CSS: css}}}
}

// Locator narrows to descendants of the current matches that match css.
func (l Locator) Locator(css string) Locator {
	return l.with(Segment{CSS: css})
}

// Nth picks the i-th (zero-based) element of the current matches.
func (l Locator) Nth(i int) Locator {
	return l.with(Segment{Nth: i, IsNth: true})
}

func (l Locator) with(s Segment) Locator {
	segments := make([]Segment, 0, len(l.segments)+1)
	segments = append(segments, l.segments...)
	return Locator{segments: append(segments, s)}
}

func (l Locator) Segments() []Segment {
	return append([]Segment(nil), l.segments...)
}

func (l Locator) IsZero() bool {
	return len(l.segments) == 0
}

// CSS returns the plain selector when the locator is a single CSS query.
func (l Locator) CSS() (string, bool) {
	if len(l.segments) != 1 || l.segments[0].IsNth {
		return "", false
	}
	return l.segments[0].CSS, true
}

// String renders the locator as a Playwright selector chain, e.g.
// `.chatbot-message.bot >> nth=1 >> strong`.
func (l Locator) String() string {
	parts := make([]string, 0, len(l.segments))
	for _, s := range l.segments {
		if s.IsNth {
			parts = append(parts, fmt.Sprintf("nth=%d", s.Nth))
			continue
		}
		parts = append(parts, s.CSS)
	}
	return strings.Join(parts, " >> ")
}

// JSFunc renders an arrow function that returns the matching element, null
// when nothing matches, and throws when more than one element matches.
func (l Locator) JSFunc() string {
	var b strings.Builder
	b.WriteString("() => { let m = [document]; ")
	for _, s := range l.segments {
		if s.IsNth {
			fmt.Fprintf(&b, "m = m.length > %d ? [m[%d]] : []; ", s.Nth, s.Nth)
			continue
		}
		fmt.Fprintf(&b, "m = [...new Set(m.flatMap((e) => Array.from(e.querySelectorAll(%s))))]; ", jsString(s.CSS))
	}
	fmt.Fprintf(&b, "if (m.length > 1) throw new Error(%s + \" resolved to \" + m.length + \" elements\"); ", jsString(l.String()))
	b.WriteString("return m[0] ?? null; }")
	return b.String()
}

// JSExpr is JSFunc invoked in place, usable where an expression is expected.
func (l Locator) JSExpr() string {
	return "(" + l.JSFunc() + ")()"
}

func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
