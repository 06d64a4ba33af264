package command

import "strings"

// Invocation is a parsed command line. Name excludes the prefix.
type Invocation struct {
	Name string
	Args []string
}

// Parse recognizes text that starts with prefix. The first whitespace
// separated token, minus the prefix, is the case-sensitive command name.
func Parse(prefix, text string) (Invocation, bool) {
	if prefix == "" || !strings.HasPrefix(text, prefix) {
		return Invocation{}, false
	}
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return Invocation{}, false
	}
	name := strings.TrimPrefix(fields[0], prefix)
	if name == "" {
		return Invocation{}, false
	}
	return Invocation{Name: name, Args: fields[1:]}, true
}
