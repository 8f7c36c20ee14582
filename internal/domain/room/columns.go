package room

import (
	"regexp"
	"strings"
)

// Label is a parallel-track column slot.
type Label string

// Column labels
const (
	LabelA Label = "A"
	LabelB Label = "B"
	LabelC Label = "C"
	LabelD Label = "D"
	LabelE Label = "E"
)

// Labels is the fixed column order.
var Labels = []Label{LabelA, LabelB, LabelC, LabelD, LabelE}

var (
	nameLabelPattern       = regexp.MustCompile(`(?i)\broom ([a-e])\b`)
	identifierLabelPattern = regexp.MustCompile(`(?i)\bparallel session 1([a-e])\b`)
)

// Column is one slot of the five-column parallel grid.
// Room is nil for an empty placeholder.
type Column struct {
	Label   Label `json:"label"`
	Ordinal int   `json:"ordinal"`
	Room    *Room `json:"room"`
}

// Empty reports whether no room matched this column.
func (c Column) Empty() bool { return c.Room == nil }

// Conflict records a room that lost its label to an earlier room.
type Conflict struct {
	Label  Label `json:"label"`
	Winner Room  `json:"winner"`
	Loser  Room  `json:"loser"`
}

// MatchNameLabel extracts the label from a display name like "Room B".
func MatchNameLabel(name string) (Label, bool) {
	return matchLabel(nameLabelPattern, name)
}

// MatchIdentifierLabel extracts the label from an identifier like "Parallel Session 1C".
func MatchIdentifierLabel(identifier string) (Label, bool) {
	return matchLabel(identifierLabelPattern, identifier)
}

// DeriveLabel applies the name rule, then the identifier rule.
// PRE: none
// POST: ok is false when neither rule matches
func DeriveLabel(name, identifier string) (Label, bool) {
	if l, ok := MatchNameLabel(name); ok {
		return l, true
	}
	return MatchIdentifierLabel(identifier)
}

// Label derives this room's column label.
func (r Room) Label() (Label, bool) {
	return DeriveLabel(r.Name, r.Identifier)
}

// Columns lays rooms out into exactly five columns, A through E.
// The first room encountered for a label wins; rooms without a label are skipped.
// PRE: none
// POST: len(result) == 5, ordered A..E, Ordinal == index
func Columns(rooms []Room) []Column {
	cols := make([]Column, len(Labels))
	index := make(map[Label]int, len(Labels))
	for i, l := range Labels {
		cols[i] = Column{Label: l, Ordinal: i}
		index[l] = i
	}
	for _, r := range rooms {
		l, ok := r.Label()
		if !ok {
			continue
		}
		col := &cols[index[l]]
		if col.Room != nil {
			continue
		}
		matched := r
		col.Room = &matched
	}
	return cols
}

// Conflicts lists every room that Columns discarded because an earlier room held its label.
// PRE: none
// POST: Returns conflicts in input order
func Conflicts(rooms []Room) []Conflict {
	winners := make(map[Label]Room, len(Labels))
	var out []Conflict
	for _, r := range rooms {
		l, ok := r.Label()
		if !ok {
			continue
		}
		if w, taken := winners[l]; taken {
			out = append(out, Conflict{Label: l, Winner: w, Loser: r})
			continue
		}
		winners[l] = r
	}
	return out
}

func matchLabel(pattern *regexp.Regexp, s string) (Label, bool) {
	m := pattern.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	return Label(strings.ToUpper(m[1])), true
}
