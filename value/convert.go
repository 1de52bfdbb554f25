package value

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// FromAny converts decoded YAML/JSON data (maps, slices and scalars) into a
// Value. Map keys are sorted since Go maps carry no order.
func FromAny(v any) (Value, error) {
	switch x := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return x, nil
	case bool:
		return Bool(x), nil
	case string:
		return String(x), nil
	case int:
		return Number(x), nil
	case int64:
		return Number(x), nil
	case uint64:
		return Number(x), nil
	case float64:
		return Number(x), nil
	case float32:
		return Number(x), nil
	case time.Time:
		return String(x.UTC().Format(time.RFC3339Nano)), nil
	case []any:
		out := make(Array, 0, len(x))
		for i, e := range x {
			ev, err := FromAny(e)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out = append(out, ev)
		}
		return out, nil
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		pairs := make([]Pair, 0, len(keys))
		for _, k := range keys {
			ev, err := FromAny(x[k])
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			pairs = append(pairs, Pair{Key: k, Value: ev})
		}
		return ObjectOf(pairs...), nil
	}
	return nil, fmt.Errorf("unsupported value type %T", v)
}

// ParseLiteral interprets text as a JSON scalar when it looks like one and as
// a plain string otherwise. Objects and arrays are parsed as JSON.
func ParseLiteral(text string) Value {
	t := strings.TrimSpace(text)
	switch {
	case t == "null":
		return Null{}
	case t == "true":
		return Bool(true)
	case t == "false":
		return Bool(false)
	case strings.HasPrefix(t, "{") || strings.HasPrefix(t, "["):
		if v, err := ParseJSON([]byte(t)); err == nil {
			return v
		}
	default:
		if f, err := strconv.ParseFloat(t, 64); err == nil {
			return Number(f)
		}
	}
	return String(text)
}
