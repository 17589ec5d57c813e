package story

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

// object is a decoded JSON object whose values are checked lazily, field by field,
// so that a missing field and a wrong-typed field produce different errors.
type object struct {
	path   string
	fields map[string]json.RawMessage
}

// decodeObject parses raw as a JSON object. path names the object in error messages
// ("" for the top level).
func decodeObject(raw []byte, path string) (object, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return object{}, &WrongTypeError{Field: displayPath(path), Want: "an object"}
		}
		return object{}, err
	}
	if fields == nil {
		return object{}, &WrongTypeError{Field: displayPath(path), Want: "an object"}
	}
	return object{path: path, fields: fields}, nil
}

func displayPath(path string) string {
	if path == "" {
		return "(root)"
	}
	return path
}

func (o object) fieldPath(key string) string {
	if o.path == "" {
		return key
	}
	return o.path + "." + key
}

// lookup returns the raw value for key. A JSON null is reported as absent.
func (o object) lookup(key string) (json.RawMessage, bool) {
	raw, ok := o.fields[key]
	if !ok || isNull(raw) {
		return nil, false
	}
	return raw, true
}

func (o object) has(key string) bool {
	_, ok := o.fields[key]
	return ok
}

func (o object) keys() []string {
	keys := make([]string, 0, len(o.fields))
	for k := range o.fields {
		keys = append(keys, k)
	}
	return keys
}

func (o object) requireRaw(key string) (json.RawMessage, error) {
	raw, ok := o.fields[key]
	if !ok {
		return nil, &MissingFieldError{Field: o.fieldPath(key)}
	}
	return raw, nil
}

func (o object) requireString(key string) (string, error) {
	raw, err := o.requireRaw(key)
	if err != nil {
		return "", err
	}
	return o.asString(key, raw)
}

func (o object) asString(key string, raw json.RawMessage) (string, error) {
	var s string
	if isNull(raw) || json.Unmarshal(raw, &s) != nil {
		return "", &WrongTypeError{Field: o.fieldPath(key), Want: "a string"}
	}
	return s, nil
}

func (o object) requireBool(key string) (bool, error) {
	raw, err := o.requireRaw(key)
	if err != nil {
		return false, err
	}
	var b bool
	if isNull(raw) || json.Unmarshal(raw, &b) != nil {
		return false, &WrongTypeError{Field: o.fieldPath(key), Want: "a boolean"}
	}
	return b, nil
}

// requireInt accepts JSON integers only; 4.0, "4" and true are all rejected.
func (o object) requireInt(key string) (int, error) {
	raw, err := o.requireRaw(key)
	if err != nil {
		return 0, err
	}
	var n int
	if isNull(raw) || json.Unmarshal(raw, &n) != nil {
		return 0, &WrongTypeError{Field: o.fieldPath(key), Want: "an integer"}
	}
	return n, nil
}

func (o object) requireObject(key string) (object, error) {
	raw, err := o.requireRaw(key)
	if err != nil {
		return object{}, err
	}
	return decodeObject(raw, o.fieldPath(key))
}

// requireStringMap reads an object whose values are all strings.
func (o object) requireStringMap(key string) (map[string]string, error) {
	inner, err := o.requireObject(key)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(inner.fields))
	for name, raw := range inner.fields {
		s, err := inner.asString(name, raw)
		if err != nil {
			return nil, err
		}
		out[name] = s
	}
	return out, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// extractJSON pulls a JSON object out of a model reply. Models sometimes wrap
// their answer in markdown fences or lead with a sentence of prose.
func extractJSON(text string) []byte {
	t := strings.TrimSpace(text)

	if strings.HasPrefix(t, "```") {
		lines := strings.Split(t, "\n")
		start, end := 1, len(lines)
		for i := len(lines) - 1; i > 0; i-- {
			if strings.HasPrefix(strings.TrimSpace(lines[i]), "```") {
				end = i
				break
			}
		}
		if start < end {
			t = strings.TrimSpace(strings.Join(lines[start:end], "\n"))
		}
	}

	if !strings.HasPrefix(t, "{") {
		if i := strings.Index(t, "{"); i >= 0 {
			t = t[i:]
		}
	}
	if !strings.HasSuffix(t, "}") {
		if i := strings.LastIndex(t, "}"); i >= 0 {
			t = t[:i+1]
		}
	}
	return []byte(t)
}
