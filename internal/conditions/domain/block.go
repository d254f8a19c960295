package conditions

import (
	"strconv"
	"strings"
)

// Binary operators allowed in a primary block, each surrounded by single
// spaces in the raw text. "between" is not supported.
var binaryOperators = []string{" = ", " <> ", " > ", " < ", " >= ", " <= ", " in "}

// Block is one leaf subcondition of a Condition: either a station sensor
// comparison (primary) or a reference to another condition's output
// timeline (secondary). Blocks are immutable once built; two blocks with
// identical normalized raw text collapse to one instance within their
// condition.
type Block struct {
	// Alias is the block's stable identifier within its condition,
	// {master_alias}_{order}.
	Alias string
	// OrderNr is the block's first-occurrence index within the condition.
	OrderNr int
	// Raw is the normalized leaf text the block was parsed from.
	Raw string
	// Secondary is true for references to another condition.
	Secondary bool

	// Primary block fields.
	Station   string
	StationID int
	Sensor    string
	Operator  string
	Value     string

	// Secondary block fields.
	Site        string
	SourceAlias string
}

// SourceID is the condition identifier a secondary block refers to.
func (b *Block) SourceID() string {
	if !b.Secondary {
		return ""
	}
	return b.Site + "_" + b.SourceAlias
}

func (b *Block) String() string {
	kind := "primary"
	if b.Secondary {
		kind = "secondary"
	}
	return kind + " block " + b.Alias + ": " + b.Raw
}

// parseBlock classifies a leaf token and builds a Block. Exactly zero or one
// "#" separator and zero or one binary operator are allowed; their
// combination decides the block type.
func parseBlock(masterAlias, parentSite string, orderNr int, raw string, rules Rules) (*Block, error) {
	block := &Block{
		Alias:   masterAlias + "_" + strconv.Itoa(orderNr),
		OrderNr: orderNr,
		Raw:     raw,
	}

	nHashes := strings.Count(raw, "#")
	if nHashes > 1 {
		return nil, &BlockError{Raw: raw, Reason: `too many "#"s, only one or zero allowed`}
	}

	nOps := 0
	operator := ""
	for _, op := range binaryOperators {
		if n := strings.Count(raw, op); n > 0 {
			nOps += n
			operator = op
		}
	}
	if nOps > 1 {
		return nil, &BlockError{Raw: raw, Reason: "too many binary operators, only one or zero allowed"}
	}

	switch {
	case nHashes == 0 && nOps == 0:
		// Reference to a condition at the parent site.
		alias, err := NormalizeIdentifier(raw, rules)
		if err != nil {
			return nil, err
		}
		block.Secondary = true
		block.Site = parentSite
		block.SourceAlias = alias

	case nHashes == 1 && nOps == 0:
		// Reference to a condition at an explicit site.
		parts := strings.SplitN(raw, "#", 2)
		site, err := NormalizeIdentifier(parts[0], rules)
		if err != nil {
			return nil, err
		}
		alias, err := NormalizeIdentifier(parts[1], rules)
		if err != nil {
			return nil, err
		}
		block.Secondary = true
		block.Site = site
		block.SourceAlias = alias

	case nHashes == 1 && nOps == 1:
		parts := strings.SplitN(raw, "#", 2)
		rest := strings.SplitN(parts[1], operator, 2)

		station, err := NormalizeIdentifier(parts[0], rules)
		if err != nil {
			return nil, err
		}
		sensor, err := NormalizeIdentifier(rest[0], rules)
		if err != nil {
			return nil, err
		}
		block.Station = station
		block.Sensor = sensor
		block.Operator = strings.TrimSpace(operator)
		block.Value = strings.ToLower(strings.TrimSpace(rest[1]))

		stationID, err := stationIDFromName(station)
		if err != nil {
			return nil, &BlockError{Raw: raw, Reason: "station identifier contains no digits"}
		}
		block.StationID = stationID

		if block.Operator == "in" {
			// Tuple contents stay unvalidated here on purpose; only the
			// enclosing parentheses are required.
			if !strings.HasPrefix(block.Value, "(") || !strings.HasSuffix(block.Value, ")") {
				return nil, &BlockError{
					Raw:    raw,
					Reason: `binary operator "in" must be followed by a tuple enclosed with parentheses "()"`,
				}
			}
		} else if !rules.AllowTextValues {
			if _, err := strconv.ParseFloat(block.Value, 64); err != nil {
				return nil, &BlockError{Raw: raw, Reason: "value " + strconv.Quote(block.Value) + " is not a numeric literal"}
			}
		}

	default:
		return nil, &BlockError{Raw: raw, Reason: `no "#" given, expected [station]#[sensor] [operator] [value]`}
	}

	return block, nil
}

// stationIDFromName extracts the numeric station id as the concatenated
// digits of the station identifier, e.g. "s1122" yields 1122.
func stationIDFromName(station string) (int, error) {
	var digits strings.Builder
	for _, c := range station {
		if c >= '0' && c <= '9' {
			digits.WriteRune(c)
		}
	}
	return strconv.Atoi(digits.String())
}
