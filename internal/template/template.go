package template

import (
	"fmt"
	"strings"
)

// Bindings supplies values for placeholders.
type Bindings interface {
	Lookup(name string) (string, bool)
}

// Map is a Bindings backed by a plain map.
type Map map[string]string

// Lookup implements Bindings.
func (m Map) Lookup(name string) (string, bool) {
	v, ok := m[name]
	return v, ok
}

// UnboundPlaceholderError is returned when a placeholder has no binding.
type UnboundPlaceholderError struct {
	Name string
}

func (e *UnboundPlaceholderError) Error() string {
	return fmt.Sprintf("unbound placeholder {%s}", e.Name)
}

// SyntaxError reports malformed placeholder syntax.
type SyntaxError struct {
	Offset int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("template syntax error at offset %d: %s", e.Offset, e.Msg)
}

type segment struct {
	text        string
	placeholder bool
}

// Template is a parsed template.
type Template struct {
	segments []segment
	names    []string
}

// Parse parses text into a Template.
func Parse(text string) (*Template, error) {
	t := &Template{}
	seen := make(map[string]bool)
	var lit strings.Builder

	flush := func() {
		if lit.Len() > 0 {
			t.segments = append(t.segments, segment{text: lit.String()})
			lit.Reset()
		}
	}

	for i := 0; i < len(text); i++ {
		c := text[i]
		switch c {
		case '{':
			if i+1 < len(text) && text[i+1] == '{' {
				lit.WriteByte('{')
				i++
				continue
			}
			end := strings.IndexByte(text[i+1:], '}')
			if end < 0 {
				return nil, &SyntaxError{Offset: i, Msg: "unterminated placeholder"}
			}
			name := text[i+1 : i+1+end]
			if !validName(name) {
				return nil, &SyntaxError{Offset: i, Msg: fmt.Sprintf("invalid placeholder name %q", name)}
			}
			flush()
			t.segments = append(t.segments, segment{text: name, placeholder: true})
			if !seen[name] {
				seen[name] = true
				t.names = append(t.names, name)
			}
			i += end + 1
		case '}':
			if i+1 < len(text) && text[i+1] == '}' {
				lit.WriteByte('}')
				i++
				continue
			}
			return nil, &SyntaxError{Offset: i, Msg: "unmatched '}' (use '}}' for a literal brace)"}
		default:
			lit.WriteByte(c)
		}
	}
	flush()

	return t, nil
}

// Placeholders returns the distinct placeholder names in order of first use.
func (t *Template) Placeholders() []string {
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}

// Execute substitutes every placeholder from b.
func (t *Template) Execute(b Bindings) (string, error) {
	values := make(map[string]string, len(t.names))
	for _, name := range t.names {
		v, ok := b.Lookup(name)
		if !ok {
			return "", &UnboundPlaceholderError{Name: name}
		}
		values[name] = v
	}

	var out strings.Builder
	for _, seg := range t.segments {
		if seg.placeholder {
			out.WriteString(values[seg.text])
			continue
		}
		out.WriteString(seg.text)
	}
	return out.String(), nil
}

// Render parses and executes text in one call.
func Render(text string, b Bindings) (string, error) {
	t, err := Parse(text)
	if err != nil {
		return "", err
	}
	return t.Execute(b)
}

// Placeholders lists the distinct placeholder names used in text.
func Placeholders(text string) ([]string, error) {
	t, err := Parse(text)
	if err != nil {
		return nil, err
	}
	return t.names, nil
}

// Escape doubles every brace in s so it renders literally.
func Escape(s string) string {
	s = strings.ReplaceAll(s, "{", "{{")
	return strings.ReplaceAll(s, "}", "}}")
}

func validName(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '_', r == '-', r == '.', r == '/':
		default:
			return false
		}
	}
	return true
}
