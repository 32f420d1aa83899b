package heap

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// FormatNumber renders f the way the language prints numbers: integral
// values without a fraction, everything else in shortest form.
func FormatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case f == math.Trunc(f) && math.Abs(f) < 1e15:
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// Format renders the value at r for display.
func (h *Heap) Format(r Ref) string {
	var sb strings.Builder
	h.format(&sb, r, map[Ref]bool{})
	return sb.String()
}

func (h *Heap) format(sb *strings.Builder, r Ref, seen map[Ref]bool) {
	switch v := h.Get(r).(type) {
	case Nil:
		sb.WriteString("nil")
	case *Number:
		sb.WriteString(FormatNumber(v.Value))
	case *String:
		sb.WriteString(v.Value)
	case *Vector:
		if seen[r] {
			sb.WriteString("[...]")
			return
		}
		seen[r] = true
		sb.WriteByte('[')
		for i, c := range v.Elems {
			if i > 0 {
				sb.WriteString(", ")
			}
			h.format(sb, h.Read(c), seen)
		}
		sb.WriteByte(']')
		delete(seen, r)
	case *Hash:
		if seen[r] {
			sb.WriteString("{...}")
			return
		}
		seen[r] = true
		keys := make([]string, 0, len(v.Members))
		for k := range v.Members {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		sb.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(k)
			sb.WriteString(": ")
			h.format(sb, h.Read(v.Members[k]), seen)
		}
		sb.WriteByte('}')
		delete(seen, r)
	case *Function:
		if v.Native != nil {
			sb.WriteString("builtin " + v.Name)
			return
		}
		names := make([]string, len(v.Params))
		for i, p := range v.Params {
			names[i] = p.Name
			if p.Variadic {
				names[i] += "..."
			}
		}
		sb.WriteString("func(" + strings.Join(names, ", ") + ")")
	case *Closure:
		sb.WriteString("closure")
	}
}
