package parse

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Layer is one text repair applied before retrying a strict parse.
type Layer struct {
	Name   string
	Repair func(string) string
}

// Layers returns the repair layers in the order they are applied. Each layer
// receives the output of the previous one.
func Layers() []Layer {
	return []Layer{
		{Name: "fences", Repair: StripFences},
		{Name: "unicode", Repair: NormalizeUnicode},
		{Name: "escape", Repair: EscapeInteriorQuotes},
		{Name: "extract", Repair: ExtractBalanced},
	}
}

// languageTag matches a bare fence info string such as "json" or "python".
var languageTag = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_+-]*$`)

// StripFences removes a surrounding markdown code fence and its language tag.
// Text that does not start with a fence is returned trimmed but otherwise unchanged.
func StripFences(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	if !strings.Contains(trimmed, "\n") {
		// Single line: ```json [...] ```
		inner := strings.TrimPrefix(trimmed, "```")
		inner = strings.TrimSuffix(strings.TrimSpace(inner), "```")
		inner = strings.TrimSpace(inner)
		if fields := strings.Fields(inner); len(fields) > 1 && languageTag.MatchString(fields[0]) {
			inner = strings.TrimSpace(strings.TrimPrefix(inner, fields[0]))
		}
		return inner
	}

	lines := strings.Split(trimmed, "\n")
	// Drop the opening fence line, which may carry the language tag.
	lines = lines[1:]
	// Some models put the tag on its own line after a bare fence.
	if len(lines) > 0 && languageTag.MatchString(strings.TrimSpace(lines[0])) {
		lines = lines[1:]
	}
	// Drop the closing fence, tolerating text glued to it.
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	if n := len(lines); n > 0 {
		last := strings.TrimSpace(lines[n-1])
		if last == "```" {
			lines = lines[:n-1]
		} else if strings.HasSuffix(last, "```") {
			lines[n-1] = strings.TrimSuffix(last, "```")
		}
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

var unicodeReplacer = strings.NewReplacer(
	// Double quotes
	"“", `"`, "”", `"`, "„", `"`, "‟", `"`, "″", `"`, "«", `"`, "»", `"`,
	// Single quotes
	"‘", "'", "’", "'", "‚", "'", "‛", "'", "′", "'",
	// Dashes
	"‐", "-", "‑", "-", "‒", "-", "–", "-", "—", "-", "―", "-",
	"…", "...",
	// Spaces and separators
	"\u00a0", " ", "\u2007", " ", "\u202f", " ",
	"\u2028", "\n", "\u2029", "\n",
	"\u200b", "", "\ufeff", "",
	// Full stops used as Western periods
	"。", ".", "｡", ".", "।", ".",
)

// NormalizeUnicode folds typographic quotes, dashes, special spaces and
// non-Latin full stops into ASCII, then applies NFKC compatibility folding
// (fullwidth punctuation, ligatures).
func NormalizeUnicode(content string) string {
	return norm.NFKC.String(unicodeReplacer.Replace(content))
}

// quotedFieldStart finds the opening quote of a known string-valued field.
var quotedFieldStart = regexp.MustCompile(`"(?:title|content|section)"\s*:\s*"`)

// fieldValueEnd matches what may legitimately follow the closing quote of a
// field value: end of object, end of array, or the next key.
var fieldValueEnd = regexp.MustCompile(`^"\s*(?:\}|\]|,\s*"[A-Za-z_][A-Za-z0-9_ ]*"\s*:)`)

// listItemEnd matches what may follow the closing quote of a string list item.
var listItemEnd = regexp.MustCompile(`^"\s*(?:,\s*"|\])`)

// EscapeInteriorQuotes escapes bare double quotes and raw control characters
// inside the values of known string fields ("title", "content", "section")
// and inside the items of a plain list of strings. Text whose values cannot
// be delimited is returned unchanged.
func EscapeInteriorQuotes(content string) string {
	if quotedFieldStart.MatchString(content) {
		return escapeFieldValues(content)
	}
	trimmed := strings.TrimSpace(content)
	if strings.HasPrefix(trimmed, "[") && strings.HasPrefix(strings.TrimSpace(trimmed[1:]), `"`) {
		return escapeListItems(trimmed)
	}
	return content
}

func escapeFieldValues(content string) string {
	var b strings.Builder
	b.Grow(len(content) + 16)

	pos := 0
	for {
		loc := quotedFieldStart.FindStringIndex(content[pos:])
		if loc == nil {
			b.WriteString(content[pos:])
			return b.String()
		}
		valueStart := pos + loc[1]
		b.WriteString(content[pos:valueStart])

		end, closed := escapeUntil(&b, content, valueStart, fieldValueEnd)
		if !closed {
			return content
		}
		b.WriteByte('"')
		pos = end + 1
	}
}

func escapeListItems(content string) string {
	var b strings.Builder
	b.Grow(len(content) + 16)

	i := strings.Index(content, `"`)
	b.WriteString(content[:i+1])
	pos := i + 1
	for {
		end, closed := escapeUntil(&b, content, pos, listItemEnd)
		if !closed {
			return content
		}
		b.WriteByte('"')
		// Copy the separator up to and including the next item's opening quote.
		rest := content[end+1:]
		next := strings.Index(rest, `"`)
		closeIdx := strings.Index(rest, "]")
		if next < 0 || (closeIdx >= 0 && closeIdx < next) {
			b.WriteString(rest)
			return b.String()
		}
		b.WriteString(rest[:next+1])
		pos = end + 1 + next + 1
	}
}

// escapeUntil copies content[start:] into b, escaping bare quotes and control
// characters, until it reaches a quote accepted by terminator. It returns the
// index of that quote.
func escapeUntil(b *strings.Builder, content string, start int, terminator *regexp.Regexp) (int, bool) {
	for i := start; i < len(content); i++ {
		c := content[i]
		switch c {
		case '\\':
			b.WriteByte(c)
			if i+1 < len(content) {
				i++
				b.WriteByte(content[i])
			}
		case '"':
			if terminator.MatchString(content[i:]) {
				return i, true
			}
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteByte(c)
		}
	}
	return len(content), false
}

// ExtractBalanced returns the first balanced [...] or {...} span, ignoring
// brackets inside quoted strings. Text without a balanced span is returned
// unchanged.
func ExtractBalanced(content string) string {
	start := strings.IndexAny(content, "[{")
	if start < 0 {
		return content
	}

	var stack []byte
	var quote byte
	for i := start; i < len(content); i++ {
		c := content[i]
		if quote != 0 {
			switch c {
			case '\\':
				i++
			case quote:
				quote = 0
			}
			continue
		}
		switch c {
		case '"':
			quote = c
		case '\'':
			// Apostrophes between word characters are prose, not quotes.
			if i > 0 && isWordByte(content[i-1]) && i+1 < len(content) && isWordByte(content[i+1]) {
				continue
			}
			quote = c
		case '[', '{':
			stack = append(stack, c)
		case ']', '}':
			if len(stack) == 0 || !matches(stack[len(stack)-1], c) {
				return content
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return content[start : i+1]
			}
		}
	}
	return content
}

func matches(open, close byte) bool {
	return (open == '[' && close == ']') || (open == '{' && close == '}')
}

func isWordByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c >= 0x80
}
