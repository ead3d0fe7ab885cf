package cli

import (
	"fmt"
	"io"
	"slices"
	"strings"
)

// ParseFormat normalizes an output format flag and checks it against the
// formats a command supports. An empty value selects the first allowed one.
func ParseFormat(value string, allowed ...string) (string, error) {
	f := strings.ToLower(strings.TrimSpace(value))
	if f == "" && len(allowed) > 0 {
		return allowed[0], nil
	}
	if !slices.Contains(allowed, f) {
		return "", NewConfigError("format", fmt.Sprintf("unsupported format %q (supported: %s)", value, strings.Join(allowed, ", ")))
	}
	return f, nil
}

// ReadInput returns the text to operate on. With no arguments or a single
// "-" it reads stdin; otherwise the arguments are joined with spaces.
func ReadInput(args []string, stdin io.Reader) (string, error) {
	if len(args) == 0 || (len(args) == 1 && args[0] == "-") {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return strings.TrimRight(string(data), "\n"), nil
	}
	return strings.Join(args, " "), nil
}
