package gallery

import (
	"fmt"
	"strings"
	"time"
)

// SearchMode selects how the two pairs of a TagQuery combine.
type SearchMode int

const (
	// Single takes exactly one pair and matches photos satisfying exactly one
	// of the two predicates; the missing pair never matches.
	Single SearchMode = iota
	// Conjunctive requires both pairs and matches photos satisfying both.
	Conjunctive
	// Disjunctive requires both pairs and matches photos satisfying either.
	Disjunctive
)

var searchModeNames = map[SearchMode]string{
	Single:      "single",
	Conjunctive: "conjunctive",
	Disjunctive: "disjunctive",
}

func (m SearchMode) String() string {
	if s, ok := searchModeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("SearchMode(%d)", int(m))
}

func (m SearchMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *SearchMode) UnmarshalText(text []byte) error {
	mode, err := ParseSearchMode(string(text))
	if err != nil {
		return err
	}
	*m = mode
	return nil
}

// ParseSearchMode accepts the mode names case-insensitively, plus "and" and
// "or" as aliases.
func ParseSearchMode(s string) (SearchMode, error) {
	switch FoldKey(s) {
	case "single", "":
		return Single, nil
	case "conjunctive", "and":
		return Conjunctive, nil
	case "disjunctive", "or":
		return Disjunctive, nil
	}
	return Single, invalidf("unknown search mode %q", s)
}

// TagPair is one (type, value) predicate of a tag search. The zero value is
// the empty pair.
type TagPair struct {
	Type  string `json:"type,omitempty" yaml:"type,omitempty"`
	Value string `json:"value,omitempty" yaml:"value,omitempty"`
}

// Filled reports whether both fields are present.
func (tp TagPair) Filled() bool { return !isBlank(tp.Type) && !isBlank(tp.Value) }

// Empty reports whether both fields are absent.
func (tp TagPair) Empty() bool { return isBlank(tp.Type) && isBlank(tp.Value) }

func (tp TagPair) matches(p *Photo) bool {
	if !tp.Filled() {
		return false
	}
	return p.HasTag(Tag{Type: tp.Type, Value: tp.Value})
}

// TagQuery is a tag search of up to two predicates.
type TagQuery struct {
	Mode   SearchMode `json:"mode" yaml:"mode"`
	First  TagPair    `json:"first" yaml:"first"`
	Second TagPair    `json:"second,omitempty" yaml:"second,omitempty"`
}

// Validate checks that the pairs supplied fit the mode. A pair with only one
// of its two fields is never valid.
func (q TagQuery) Validate() error {
	for i, tp := range []TagPair{q.First, q.Second} {
		if !tp.Filled() && !tp.Empty() {
			return invalidf("tag pair %d needs both a type and a value", i+1)
		}
	}
	switch q.Mode {
	case Single:
		if q.First.Filled() == q.Second.Filled() {
			return invalidf("single search takes exactly one tag pair")
		}
	case Conjunctive, Disjunctive:
		if !q.First.Filled() || !q.Second.Filled() {
			return invalidf("%s search takes two tag pairs", q.Mode)
		}
	default:
		return invalidf("unknown search mode %d", int(q.Mode))
	}
	return nil
}

// Match evaluates the query against one photo. It assumes Validate passed.
func (q TagQuery) Match(p *Photo) bool {
	a, b := q.First.matches(p), q.Second.matches(p)
	switch q.Mode {
	case Single:
		return a != b
	case Conjunctive:
		return a && b
	case Disjunctive:
		return a || b
	}
	return false
}

func (q TagQuery) String() string {
	parts := make([]string, 0, 2)
	for _, tp := range []TagPair{q.First, q.Second} {
		if tp.Filled() {
			parts = append(parts, strings.TrimSpace(tp.Type)+"="+strings.TrimSpace(tp.Value))
		}
	}
	return q.Mode.String() + "(" + strings.Join(parts, ", ") + ")"
}

// SearchByDate returns every photo of the user taken in [start, end], once per
// identity, in album then photo order.
func SearchByDate(u *User, start, end time.Time) ([]*Photo, error) {
	if start.IsZero() || end.IsZero() {
		return nil, invalidf("date range needs both a start and an end")
	}
	if start.After(end) {
		return nil, invalidf("start %s is after end %s", start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	return collect(u, func(p *Photo) bool { return inRange(p.Taken, start, end) }), nil
}

// DayRange widens two calendar days to cover the first through the last
// instant of those days in loc.
func DayRange(startDay, endDay time.Time, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.Local
	}
	sy, sm, sd := startDay.In(loc).Date()
	ey, em, ed := endDay.In(loc).Date()
	start := time.Date(sy, sm, sd, 0, 0, 0, 0, loc)
	end := time.Date(ey, em, ed, 23, 59, 59, int(time.Second-time.Nanosecond), loc)
	return start, end
}

// SearchByTags evaluates q over every photo of the user.
func SearchByTags(u *User, q TagQuery) ([]*Photo, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	return collect(u, q.Match), nil
}

// SearchByCaption returns photos whose caption contains text, ignoring case.
func SearchByCaption(u *User, text string) ([]*Photo, error) {
	if isBlank(text) {
		return nil, invalidf("caption search text cannot be empty")
	}
	needle := strings.ToLower(strings.TrimSpace(text))
	return collect(u, func(p *Photo) bool {
		return strings.Contains(strings.ToLower(p.caption), needle)
	}), nil
}

// collect walks albums in order and keeps the first Photo seen for each
// identity.
func collect(u *User, keep func(*Photo) bool) []*Photo {
	out := []*Photo{}
	for _, album := range u.albums {
		for _, p := range album.photos {
			if !keep(p) || containsPhoto(out, p) {
				continue
			}
			out = append(out, p)
		}
	}
	return out
}

func containsPhoto(photos []*Photo, p *Photo) bool {
	for _, q := range photos {
		if SamePhoto(p, q) {
			return true
		}
	}
	return false
}

// DateLayout is the calendar-day form accepted by ParseDateRange.
const DateLayout = "2006-01-02"

// ParseDateRange reads a search range. Each bound is a calendar day
// (2006-01-02), widened to the whole day in loc, or an RFC 3339 instant.
func ParseDateRange(start, end string, loc *time.Location) (time.Time, time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	from, fromDay, err := parseDateBound(start, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, toDay, err := parseDateBound(end, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if fromDay {
		from, _ = DayRange(from, from, loc)
	}
	if toDay {
		_, to = DayRange(to, to, loc)
	}
	if from.After(to) {
		return time.Time{}, time.Time{}, invalidf("start %s is after end %s", start, end)
	}
	return from, to, nil
}

func parseDateBound(s string, loc *time.Location) (time.Time, bool, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false, invalidf("date range needs both a start and an end")
	}
	if t, err := time.ParseInLocation(DateLayout, s, loc); err == nil {
		return t, true, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, false, invalidf("cannot read %q as %s or RFC 3339", s, DateLayout)
	}
	return t, false, nil
}
