package pipeline

import "strings"

// Dedent removes the longest common leading whitespace (spaces and tabs)
// shared by every non-blank line. Lines made only of spaces and tabs are
// emptied first and do not take part in the margin computation.
//
// Tabs and spaces are not considered equal: "\t" and "    " have no common
// margin. Applying Dedent to its own output returns the same text.
func Dedent(text string) string {
	lines := strings.Split(text, "\n")

	margin := ""
	haveMargin := false
	for i, line := range lines {
		indent := leadingBlanks(line)
		if len(indent) == len(line) {
			// Whitespace-only (or empty) line
			lines[i] = ""
			continue
		}
		if !haveMargin {
			margin = indent
			haveMargin = true
			continue
		}
		margin = commonPrefix(margin, indent)
	}

	if margin == "" {
		return strings.Join(lines, "\n")
	}

	for i, line := range lines {
		lines[i] = strings.TrimPrefix(line, margin)
	}
	return strings.Join(lines, "\n")
}

// leadingBlanks returns the run of spaces and tabs at the start of line.
func leadingBlanks(line string) string {
	end := 0
	for end < len(line) && (line[end] == ' ' || line[end] == '\t') {
		end++
	}
	return line[:end]
}

// commonPrefix returns the longest shared prefix of a and b.
func commonPrefix(a, b string) string {
	n := min(len(a), len(b))
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return a[:i]
}
