package syntax

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
)

// DefaultMatchTimeout bounds a single match attempt.
const DefaultMatchTimeout = 2 * time.Second

// Group is one capture group of a Match. Offsets are byte offsets into the
// searched string; an unmatched optional group has Matched=false.
type Group struct {
	Text    string
	Start   int
	End     int
	Matched bool
}

// Match is a single regex match. Groups[0] is the whole match.
type Match struct {
	Text   string
	Start  int
	End    int
	Groups []Group
}

// Group returns capture i, or an unmatched Group when i is out of range.
func (m *Match) Group(i int) Group {
	if m == nil || i < 0 || i >= len(m.Groups) {
		return Group{}
	}
	return m.Groups[i]
}

// Regexp wraps a backtracking regexp2 pattern and reports matches with byte offsets.
type Regexp struct {
	re   *regexp2.Regexp
	expr string
}

// Compile parses expr with the default match timeout.
func Compile(expr string) (*Regexp, error) {
	re, err := regexp2.Compile(expr, regexp2.None)
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", expr, err)
	}
	re.MatchTimeout = DefaultMatchTimeout
	return &Regexp{re: re, expr: expr}, nil
}

// MustCompile is Compile that panics on error; use only for constant patterns.
func MustCompile(expr string) *Regexp {
	r, err := Compile(expr)
	if err != nil {
		panic(err)
	}
	return r
}

func (r *Regexp) String() string {
	return r.expr
}

// FindAll returns every non-overlapping match in s.
func (r *Regexp) FindAll(s string) ([]Match, error) {
	conv := newOffsets(s)
	var out []Match
	m, err := r.re.FindStringMatch(s)
	for m != nil && err == nil {
		out = append(out, convertMatch(m, conv))
		m, err = r.re.FindNextMatch(m)
	}
	if err != nil {
		return nil, fmt.Errorf("match %q: %w", r.expr, err)
	}
	return out, nil
}

// Find returns the first match in s, or nil.
func (r *Regexp) Find(s string) (*Match, error) {
	m, err := r.re.FindStringMatch(s)
	if err != nil {
		return nil, fmt.Errorf("match %q: %w", r.expr, err)
	}
	if m == nil {
		return nil, nil
	}
	res := convertMatch(m, newOffsets(s))
	return &res, nil
}

// FindLast returns the last match in s, or nil.
func (r *Regexp) FindLast(s string) (*Match, error) {
	all, err := r.FindAll(s)
	if err != nil || len(all) == 0 {
		return nil, err
	}
	last := all[len(all)-1]
	return &last, nil
}

// MatchString reports whether s contains a match.
func (r *Regexp) MatchString(s string) (bool, error) {
	ok, err := r.re.MatchString(s)
	if err != nil {
		return false, fmt.Errorf("match %q: %w", r.expr, err)
	}
	return ok, nil
}

// offsets maps regexp2 rune indices back to byte offsets.
type offsets struct {
	bytes []int // nil for ASCII input
}

func newOffsets(s string) offsets {
	ascii := true
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			ascii = false
			break
		}
	}
	if ascii {
		return offsets{}
	}
	idx := make([]int, 0, utf8.RuneCountInString(s)+1)
	for i := range s {
		idx = append(idx, i)
	}
	idx = append(idx, len(s))
	return offsets{bytes: idx}
}

func (o offsets) at(runeIdx int) int {
	if o.bytes == nil {
		return runeIdx
	}
	if runeIdx < 0 {
		return 0
	}
	if runeIdx >= len(o.bytes) {
		return o.bytes[len(o.bytes)-1]
	}
	return o.bytes[runeIdx]
}

func convertMatch(m *regexp2.Match, conv offsets) Match {
	groups := m.Groups()
	out := Match{
		Text:   m.String(),
		Start:  conv.at(m.Index),
		End:    conv.at(m.Index + m.Length),
		Groups: make([]Group, len(groups)),
	}
	for i := range groups {
		g := &groups[i]
		if len(g.Captures) == 0 {
			continue
		}
		out.Groups[i] = Group{
			Text:    g.String(),
			Start:   conv.at(g.Index),
			End:     conv.at(g.Index + g.Length),
			Matched: true,
		}
	}
	return out
}
