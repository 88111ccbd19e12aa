package grid

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
)

// MaxQuantity is the largest storable cell or unit quantity. Row totals of
// capped cells cannot overflow int.
const MaxQuantity = math.MaxInt32

// ParseQuantity converts raw edit input into a storable quantity. It reads the
// leading integer of strings ("12.7" -> 12, "40 units" -> 40), truncates floats,
// maps anything non-numeric or negative to 0 and caps the result at MaxQuantity.
func ParseQuantity(raw any) int {
	var n int
	switch v := raw.(type) {
	case nil:
		return 0
	case int:
		n = ClampQuantity(v)
	case int64:
		n = clampInt64(v)
	case float64:
		n = truncFloat(v)
	case json.Number:
		n = leadingInt(v.String())
	case string:
		n = leadingInt(v)
	case json.RawMessage:
		return ParseQuantity(decodeRaw(v))
	default:
		return 0
	}

	if n < 0 {
		return 0
	}
	return n
}

func decodeRaw(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil
	}
	return v
}

func leadingInt(s string) int {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digitsStart := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digitsStart {
		return 0
	}
	n, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) && s[0] != '-' {
			return MaxQuantity
		}
		return 0
	}
	return clampInt64(n)
}

func truncFloat(f float64) int {
	if math.IsNaN(f) || f <= 0 {
		return 0
	}
	if f > MaxQuantity {
		return MaxQuantity
	}
	return int(math.Trunc(f))
}

func clampInt64(v int64) int {
	if v > MaxQuantity {
		return MaxQuantity
	}
	return int(v)
}

// ClampQuantity caps q at MaxQuantity. Negative values pass through.
func ClampQuantity(q int) int {
	if q > MaxQuantity {
		return MaxQuantity
	}
	return q
}
