package procedure

import (
	"strings"

	"github.com/imamik/hoc/internal/vars"
)

// Marker prefixes of output lines.
const (
	OutputPrefix       = "[hoc]:out:"
	SecretOutputPrefix = "[hoc]:secret:"
)

// ParseOutputs extracts the outputs emitted in stdout in first-seen order.
// A later line for the same name replaces the earlier value.
func ParseOutputs(stdout string) []vars.Value {
	var out []vars.Value
	index := make(map[string]int)

	for _, line := range strings.Split(stdout, "\n") {
		v, ok := parseOutputLine(line)
		if !ok {
			continue
		}
		if i, seen := index[v.Name]; seen {
			out[i] = v
			continue
		}
		index[v.Name] = len(out)
		out = append(out, v)
	}
	return out
}

func parseOutputLine(line string) (vars.Value, bool) {
	line = strings.TrimSuffix(line, "\r")

	var rest string
	var secret bool
	switch {
	case strings.HasPrefix(line, OutputPrefix):
		rest = line[len(OutputPrefix):]
	case strings.HasPrefix(line, SecretOutputPrefix):
		rest = line[len(SecretOutputPrefix):]
		secret = true
	default:
		return vars.Value{}, false
	}

	name, value, found := strings.Cut(rest, "=")
	if !found || !validOutputName(name) {
		return vars.Value{}, false
	}
	return vars.Value{Name: name, Data: value, Secret: secret}, true
}

// scrubSecretOutputs masks the values of secret output lines.
func scrubSecretOutputs(stdout string) string {
	if !strings.Contains(stdout, SecretOutputPrefix) {
		return stdout
	}
	lines := strings.Split(stdout, "\n")
	for i, line := range lines {
		if v, ok := parseOutputLine(line); ok && v.Secret {
			lines[i] = SecretOutputPrefix + v.Name + "=" + vars.RedactedMarker
		}
	}
	return strings.Join(lines, "\n")
}

func validOutputName(name string) bool {
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
