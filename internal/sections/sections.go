// Package sections generates the structured lesson plan: the twelve plan
// sections, slide content and the student worksheet.
package sections

import (
	"regexp"
	"strings"
)

// Section keys in plan order.
const (
	Standards    = "standards"
	Content      = "content"
	Language     = "language"
	Purpose      = "purpose"
	IntroTeacher = "intro_teacher"
	IntroStudent = "intro_student"
	IDoTeacher   = "i_do_teacher"
	IDoStudent   = "i_do_student"
	WeDoTeacher  = "we_do_teacher"
	WeDoStudent  = "we_do_student"
	YouDoTeacher = "you_do_teacher"
	YouDoStudent = "you_do_student"
)

// Keys lists every section key in plan order.
var Keys = []string{
	Standards, Content, Language, Purpose,
	IntroTeacher, IntroStudent,
	IDoTeacher, IDoStudent,
	WeDoTeacher, WeDoStudent,
	YouDoTeacher, YouDoStudent,
}

// Title returns the display title for key, e.g. "I Do Teacher".
func Title(key string) string {
	words := strings.Fields(strings.ReplaceAll(key, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// Value is one section's body. Items is set when every line of the body is a
// list item.
type Value struct {
	Text  string   `json:"text" yaml:"text"`
	Items []string `json:"items,omitempty" yaml:"items,omitempty"`
}

// String renders the value for a document cell: list items as bullets,
// otherwise the text.
func (v Value) String() string {
	if len(v.Items) == 0 {
		return v.Text
	}
	lines := make([]string, len(v.Items))
	for i, item := range v.Items {
		lines[i] = "• " + item
	}
	return strings.Join(lines, "\n")
}

// Map holds generated sections by key. Missing keys read as empty.
type Map map[string]Value

// Text returns the body of key, or "" when absent.
func (m Map) Text(key string) string {
	return m[key].String()
}

// Missing returns the known keys absent from m, in plan order.
func (m Map) Missing() []string {
	var out []string
	for _, k := range Keys {
		if strings.TrimSpace(m[k].Text) == "" {
			out = append(out, k)
		}
	}
	return out
}

var (
	sectionHeader = regexp.MustCompile(`^\s*(?:#{1,4}\s*)?\**\s*Section\s*:\s*(.+?)\s*\**\s*$`)
	listItem      = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)])\s+(.*)$`)
	keyUnsafe     = regexp.MustCompile(`[^a-z0-9_]+`)
)

// Key normalizes a section title to its key: "I Do Teacher" -> "i_do_teacher".
func Key(title string) string {
	k := strings.ToLower(strings.TrimSpace(title))
	k = strings.Join(strings.Fields(k), "_")
	return strings.Trim(keyUnsafe.ReplaceAllString(k, ""), "_")
}

// Parse splits a reply on "### Section: <Title>" headers. Text before the
// first header is ignored. A repeated section keeps its last body.
func Parse(reply string) Map {
	out := Map{}
	var (
		current string
		buf     []string
	)
	flush := func() {
		if current == "" {
			return
		}
		out[current] = newValue(strings.TrimSpace(strings.Join(buf, "\n")))
		buf = buf[:0]
	}

	for _, line := range strings.Split(reply, "\n") {
		if m := sectionHeader.FindStringSubmatch(line); m != nil {
			flush()
			current = Key(m[1])
			continue
		}
		if current != "" {
			buf = append(buf, strings.TrimRight(line, "\r"))
		}
	}
	flush()
	return out
}

func newValue(text string) Value {
	v := Value{Text: text}
	var items []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		m := listItem.FindStringSubmatch(line)
		if m == nil {
			return v
		}
		items = append(items, strings.TrimSpace(m[1]))
	}
	v.Items = items
	return v
}
