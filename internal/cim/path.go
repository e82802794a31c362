package cim

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ObjectPath addresses either a class or an instance. Operations that accept
// both (References, Associators) switch on the concrete type.
type ObjectPath interface {
	// ObjectClassName returns the class name the path addresses.
	ObjectClassName() string
	// ObjectNamespace returns the namespace of the path, possibly "".
	ObjectNamespace() string

	isObjectPath()
}

// ClassPath addresses a class.
type ClassPath struct {
	Namespace string `json:"namespace,omitempty"`
	ClassName string `json:"classname"`
}

func (p *ClassPath) ObjectClassName() string { return p.ClassName }
func (p *ClassPath) ObjectNamespace() string { return p.Namespace }
func (p *ClassPath) isObjectPath()           {}

// KeyBinding is one key-property binding of an instance path.
type KeyBinding struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// InstancePath addresses an instance by class name and key bindings.
type InstancePath struct {
	Namespace string       `json:"namespace,omitempty"`
	ClassName string       `json:"classname"`
	Keys      []KeyBinding `json:"keys"`
}

func (p *InstancePath) ObjectClassName() string { return p.ClassName }
func (p *InstancePath) ObjectNamespace() string { return p.Namespace }
func (p *InstancePath) isObjectPath()           {}

// DeepCopy returns an independent copy of the path. Key bindings are the
// mutable part; they are always copied.
func (p *InstancePath) DeepCopy() *InstancePath {
	out := &InstancePath{Namespace: p.Namespace, ClassName: p.ClassName}
	out.Keys = make([]KeyBinding, len(p.Keys))
	for i, kb := range p.Keys {
		out.Keys[i] = KeyBinding{Name: kb.Name, Value: copyValue(kb.Value)}
	}
	return out
}

// KeyValue returns the value bound to the named key.
func (p *InstancePath) KeyValue(name string) (any, bool) {
	for _, kb := range p.Keys {
		if NameEqual(kb.Name, name) {
			return kb.Value, true
		}
	}
	return nil, false
}

// Canonical renders the path in a case-normalized, order-normalized form
// suitable as a map key. The namespace is excluded: instance stores are
// per-namespace containers.
func (p *InstancePath) Canonical() string {
	parts := make([]string, 0, len(p.Keys))
	for _, kb := range p.Keys {
		parts = append(parts, strings.ToLower(kb.Name)+"="+keyValueString(kb.Value))
	}
	sort.Strings(parts)
	return strings.ToLower(p.ClassName) + "." + strings.Join(parts, ",")
}

// Equal compares two instance paths per DSP0004: class names and string key
// values compare case-insensitively, key order is irrelevant, namespaces
// compare only when both paths carry one.
func (p *InstancePath) Equal(other *InstancePath) bool {
	if p == nil || other == nil {
		return p == other
	}
	if p.Namespace != "" && other.Namespace != "" &&
		!strings.EqualFold(normalizeNamespace(p.Namespace), normalizeNamespace(other.Namespace)) {
		return false
	}
	if len(p.Keys) != len(other.Keys) {
		return false
	}
	return p.Canonical() == other.Canonical()
}

// String renders the path in WBEM-URI style:
// [namespace:]ClassName.Key1="value",Key2=42
func (p *InstancePath) String() string {
	var b strings.Builder
	if p.Namespace != "" {
		b.WriteString(p.Namespace)
		b.WriteByte(':')
	}
	b.WriteString(p.ClassName)
	for i, kb := range p.Keys {
		if i == 0 {
			b.WriteByte('.')
		} else {
			b.WriteByte(',')
		}
		b.WriteString(kb.Name)
		b.WriteByte('=')
		b.WriteString(formatKeyValue(kb.Value))
	}
	return b.String()
}

func formatKeyValue(v any) string {
	switch val := v.(type) {
	case string:
		return strconv.Quote(val)
	case bool:
		return strconv.FormatBool(val)
	case *InstancePath:
		return strconv.Quote(val.String())
	default:
		if f, ok := toFloat(v); ok && f == float64(int64(f)) {
			return strconv.FormatInt(int64(f), 10)
		}
		return fmt.Sprintf("%v", v)
	}
}

// normalizeNamespace strips leading and trailing path separators from a
// namespace name.
func normalizeNamespace(ns string) string {
	return strings.Trim(ns, "/")
}

// ParseInstancePath parses a WBEM-URI style instance path as produced by
// InstancePath.String. Key values may be quoted strings, booleans or
// numbers.
func ParseInstancePath(s string) (*InstancePath, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, Errorf(StatusInvalidParameter, "empty instance path")
	}
	path := &InstancePath{}

	// A namespace prefix ends at the first ':' that precedes the first '.'.
	if colon := strings.IndexByte(s, ':'); colon >= 0 {
		if dot := strings.IndexByte(s, '.'); dot < 0 || colon < dot {
			path.Namespace = normalizeNamespace(s[:colon])
			s = s[colon+1:]
		}
	}

	dot := strings.IndexByte(s, '.')
	if dot < 0 {
		return nil, Errorf(StatusInvalidParameter, "instance path %q has no key bindings", s)
	}
	path.ClassName = s[:dot]
	if path.ClassName == "" {
		return nil, Errorf(StatusInvalidParameter, "instance path %q has no class name", s)
	}

	rest := s[dot+1:]
	for rest != "" {
		eq := strings.IndexByte(rest, '=')
		if eq <= 0 {
			return nil, Errorf(StatusInvalidParameter, "malformed key binding in %q", s)
		}
		name := rest[:eq]
		rest = rest[eq+1:]

		var value any
		if strings.HasPrefix(rest, `"`) {
			str, remainder, err := unquotePrefix(rest)
			if err != nil {
				return nil, Errorf(StatusInvalidParameter, "malformed string value for key %q", name)
			}
			value = str
			rest = remainder
		} else {
			end := strings.IndexByte(rest, ',')
			token := rest
			if end >= 0 {
				token = rest[:end]
			}
			var err error
			value, err = parseScalarToken(token)
			if err != nil {
				return nil, Errorf(StatusInvalidParameter, "malformed value %q for key %q", token, name)
			}
			rest = rest[len(token):]
		}
		path.Keys = append(path.Keys, KeyBinding{Name: name, Value: value})

		if rest == "" {
			break
		}
		if rest[0] != ',' {
			return nil, Errorf(StatusInvalidParameter, "malformed key binding list in %q", s)
		}
		rest = rest[1:]
	}
	if len(path.Keys) == 0 {
		return nil, Errorf(StatusInvalidParameter, "instance path %q has no key bindings", s)
	}
	return path, nil
}

// unquotePrefix consumes a leading quoted string and returns it together
// with the unconsumed remainder.
func unquotePrefix(s string) (string, string, error) {
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '"':
			str, err := strconv.Unquote(s[:i+1])
			if err != nil {
				return "", "", err
			}
			return str, s[i+1:], nil
		}
	}
	return "", "", fmt.Errorf("unterminated string")
}

func parseScalarToken(token string) (any, error) {
	switch strings.ToLower(token) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	if i, err := strconv.ParseInt(token, 10, 64); err == nil {
		return i, nil
	}
	if u, err := strconv.ParseUint(token, 10, 64); err == nil {
		return u, nil
	}
	if f, err := strconv.ParseFloat(token, 64); err == nil {
		return f, nil
	}
	return nil, fmt.Errorf("unrecognized scalar %q", token)
}

// NormalizeNamespace strips leading and trailing path separators; it is the
// canonical form used for namespace lookup keys.
func NormalizeNamespace(ns string) string { return normalizeNamespace(ns) }
