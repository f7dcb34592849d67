package value

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Repr renders v for plans, explain output and previews. Text is quoted so
// that "1" and 1 stay distinguishable.
func Repr(v any) string {
	switch x := v.(type) {
	case nil:
		return "None"
	case string:
		return strconv.Quote(x)
	case []byte:
		return "b" + strconv.Quote(string(x))
	case float64:
		return formatFloat(x)
	case float32:
		return formatFloat(float64(x))
	case bool:
		if x {
			return "True"
		}
		return "False"
	case Tuple:
		return x.String()
	case Set:
		parts := make([]string, len(x))
		for i, m := range x {
			parts[i] = Repr(m)
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case []any:
		parts := make([]string, len(x))
		for i, m := range x {
			parts[i] = Repr(m)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprintf("%v", v)
}

// Format renders v as plain cell text for CSV output and tables: NULL is
// empty and text is unquoted.
func Format(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	}
	return Repr(v)
}

// formatFloat keeps a decimal point on integral floats so 50.0 and 50 do
// not look alike.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if strings.ContainsAny(s, ".eEIN") {
		return s
	}
	return s + ".0"
}

// MarshalJSON renders v as JSON. Tuples and sets become arrays. Maps whose
// keys are all text become objects in insertion order; other maps become
// arrays of [key, value] pairs.
func MarshalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeJSON(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeJSON(buf *bytes.Buffer, v any) error {
	switch x := v.(type) {
	case Tuple:
		return writeJSONArray(buf, x)
	case Set:
		return writeJSONArray(buf, x)
	case []any:
		return writeJSONArray(buf, x)
	case *Map:
		return writeJSONMap(buf, x)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %T: %w", v, err)
	}
	buf.Write(b)
	return nil
}

func writeJSONArray(buf *bytes.Buffer, vals []any) error {
	buf.WriteByte('[')
	for i, v := range vals {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeJSON(buf, v); err != nil {
			return fmt.Errorf("array[%d]: %w", i, err)
		}
	}
	buf.WriteByte(']')
	return nil
}

func writeJSONMap(buf *bytes.Buffer, m *Map) error {
	items := m.Items()
	textKeys := true
	for _, it := range items {
		if _, ok := it.Key.(string); !ok {
			textKeys = false
			break
		}
	}

	if !textKeys {
		buf.WriteByte('[')
		for i, it := range items {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSONArray(buf, []any{it.Key, it.Value}); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	}

	buf.WriteByte('{')
	for i, it := range items {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, _ := json.Marshal(it.Key.(string))
		buf.Write(k)
		buf.WriteByte(':')
		if err := writeJSON(buf, it.Value); err != nil {
			return fmt.Errorf("object[%q]: %w", it.Key, err)
		}
	}
	buf.WriteByte('}')
	return nil
}
