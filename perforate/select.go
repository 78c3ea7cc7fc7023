package perforate

import (
	"github.com/nickng/perforator/loop"
	"github.com/pkg/errors"
)

var ErrBadSelection = errors.New("unknown loop selection")

// Selection decides which loops of a forest are perforated.
type Selection int

const (
	// SelectTopLevel perforates loops without a parent. The member blocks
	// of such a loop include those of its subloops.
	SelectTopLevel Selection = iota

	// SelectLeaves perforates loops without subloops.
	SelectLeaves
)

func (s Selection) String() string {
	switch s {
	case SelectTopLevel:
		return "top-level"
	case SelectLeaves:
		return "leaves"
	}
	return "unknown"
}

// ParseSelection parses the String form of a Selection.
func ParseSelection(s string) (Selection, error) {
	switch s {
	case "", "top-level":
		return SelectTopLevel, nil
	case "leaves":
		return SelectLeaves, nil
	}
	return SelectTopLevel, errors.Wrapf(ErrBadSelection, "%q", s)
}

func (s Selection) candidate(l *loop.Loop) bool {
	if s == SelectLeaves {
		return len(l.Subloops()) == 0
	}
	return l.Parent() == nil
}
