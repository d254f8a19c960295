// Package analysis turns per-block validity timelines into a finest-grained
// partition of the analysis window and evaluates condition expressions over
// it under three-valued logic.
package analysis

// Tristate is a boolean extended with Unknown. The AND/OR/NOT tables follow
// SQL NULL propagation; keep them exactly, they are a contract with the
// condition semantics, not an implementation choice.
type Tristate int8

const (
	Unknown Tristate = iota
	False
	True
)

// FromBool lifts a definite boolean into a Tristate.
func FromBool(b bool) Tristate {
	if b {
		return True
	}
	return False
}

// And returns t AND o: False dominates, True is neutral.
func (t Tristate) And(o Tristate) Tristate {
	switch {
	case t == False || o == False:
		return False
	case t == True && o == True:
		return True
	default:
		return Unknown
	}
}

// Or returns t OR o: True dominates, False is neutral.
func (t Tristate) Or(o Tristate) Tristate {
	switch {
	case t == True || o == True:
		return True
	case t == False && o == False:
		return False
	default:
		return Unknown
	}
}

// Not negates definite values and keeps Unknown.
func (t Tristate) Not() Tristate {
	switch t {
	case True:
		return False
	case False:
		return True
	default:
		return Unknown
	}
}

func (t Tristate) String() string {
	switch t {
	case True:
		return "true"
	case False:
		return "false"
	default:
		return "unknown"
	}
}
