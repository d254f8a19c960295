package conditions

import (
	"errors"
	"time"
)

// Collection gathers the conditions of one analysis run. All conditions
// share the same half-open analysis window and are keyed by their
// site+master_alias identifier, which must be unique. A bad row never
// blocks the rest: parse failures collect into Errors and the offending
// condition is skipped.
type Collection struct {
	Title     string
	TimeFrom  time.Time
	TimeUntil time.Time
	CreatedAt time.Time

	ids        []string
	conditions map[string]*Condition

	// Errors lists non-fatal row errors gathered while building the
	// collection.
	Errors []RowError
}

// NewCollection creates an empty collection for the window [from, until).
// Zero-length and inverted windows are rejected here so that downstream
// percentage math never divides by zero.
func NewCollection(title string, from, until time.Time) (*Collection, error) {
	if !until.After(from) {
		return nil, errors.New("conditions: analysis window must end after it starts")
	}
	return &Collection{
		Title:      title,
		TimeFrom:   from,
		TimeUntil:  until,
		CreatedAt:  time.Now(),
		conditions: make(map[string]*Condition),
	}, nil
}

// Add parses a (site, master_alias, raw_condition) row into a Condition and
// appends it. Failures are recorded in Errors and returned; the collection
// stays usable either way. row ties errors back to the source sheet, 0 if
// not applicable.
func (c *Collection) Add(site, masterAlias, raw string, row int, rules Rules) error {
	cond, err := NewCondition(site, masterAlias, raw, rules)
	if err != nil {
		c.Errors = append(c.Errors, RowError{Row: row, Err: err})
		return err
	}
	if _, exists := c.conditions[cond.ID]; exists {
		err := &DuplicateConditionError{ID: cond.ID}
		c.Errors = append(c.Errors, RowError{Row: row, ConditionID: cond.ID, Err: err})
		return err
	}
	cond.SourceRow = row
	c.conditions[cond.ID] = cond
	c.ids = append(c.ids, cond.ID)
	return nil
}

// Get returns the condition with the given id.
func (c *Collection) Get(id string) (*Condition, bool) {
	cond, ok := c.conditions[id]
	return cond, ok
}

// Conditions returns the conditions in insertion order.
func (c *Collection) Conditions() []*Condition {
	out := make([]*Condition, 0, len(c.ids))
	for _, id := range c.ids {
		out = append(out, c.conditions[id])
	}
	return out
}

// Len reports the number of conditions.
func (c *Collection) Len() int { return len(c.ids) }
