package observations

import (
	"fmt"
	"strconv"
	"strings"
)

// Compare applies a block's comparison operator to one sample value. The
// operand is kept as raw text until this point; tuple contents after "in"
// are only parsed here, so a malformed tuple surfaces as a store error at
// fetch time, not at condition parse time.
func Compare(sample float64, operator, operand string) (bool, error) {
	if operator == "in" {
		members, err := parseTuple(operand)
		if err != nil {
			return false, err
		}
		for _, m := range members {
			if sample == m {
				return true, nil
			}
		}
		return false, nil
	}

	threshold, err := strconv.ParseFloat(strings.TrimSpace(operand), 64)
	if err != nil {
		return false, fmt.Errorf("observations: operand %q is not numeric: %w", operand, err)
	}
	switch operator {
	case "=":
		return sample == threshold, nil
	case "<>":
		return sample != threshold, nil
	case ">":
		return sample > threshold, nil
	case "<":
		return sample < threshold, nil
	case ">=":
		return sample >= threshold, nil
	case "<=":
		return sample <= threshold, nil
	default:
		return false, fmt.Errorf("observations: unsupported operator %q", operator)
	}
}

func parseTuple(operand string) ([]float64, error) {
	trimmed := strings.TrimSpace(operand)
	if !strings.HasPrefix(trimmed, "(") || !strings.HasSuffix(trimmed, ")") {
		return nil, fmt.Errorf("observations: tuple %q is not enclosed in parentheses", operand)
	}
	inner := strings.TrimSpace(trimmed[1 : len(trimmed)-1])
	if inner == "" {
		return nil, fmt.Errorf("observations: tuple %q is empty", operand)
	}
	parts := strings.Split(inner, ",")
	members := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("observations: tuple member %q is not numeric: %w", strings.TrimSpace(p), err)
		}
		members = append(members, v)
	}
	return members, nil
}
