// Package media resolves inline media directives in adapted lesson text.
//
// The adaptation prompt may leave markers such as "[Insert Audio: question 1]"
// or "[Insert Image: the water cycle]". When the rule set asks for that kind
// of media, generated artifacts replace the markers with reference tokens
// ("[AUDIO:file.mp3]", "[IMAGE:file.jpg]"). Markers without an artifact stay
// literal for manual resolution, and artifacts are never dropped: any that
// are not placed inline are appended to the text.
package media

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// Kind is a category of media.
type Kind string

const (
	Audio Kind = "audio"
	Image Kind = "image"
)

// NoSlot marks an artifact that does not answer a specific directive.
const NoSlot = -1

var (
	audioDirective = regexp.MustCompile(`(?i)\[\s*insert\s+audio\s*:\s*([^\]]*)\]`)
	imageDirective = regexp.MustCompile(`(?i)\[\s*insert\s+image\s*:\s*([^\]]*)\]`)
	referenceToken = regexp.MustCompile(`\[(?:AUDIO|IMAGE):[^\]]*\]`)
)

func (k Kind) directive() *regexp.Regexp {
	if k == Audio {
		return audioDirective
	}
	return imageDirective
}

// ruleKeyword is the word a rule must contain to enable this kind.
func (k Kind) ruleKeyword() string {
	if k == Audio {
		return "audio"
	}
	return "visual"
}

// Token returns the reference token for filename.
func (k Kind) Token(filename string) string {
	return fmt.Sprintf("[%s:%s]", strings.ToUpper(string(k)), filename)
}

// Directive is one media request marker in the text.
type Directive struct {
	Slot        int // index among directives of the same kind
	Start, End  int // byte offsets of the marker
	Description string
}

// FindDirectives returns the directives of kind in text order.
func FindDirectives(text string, kind Kind) []Directive {
	var out []Directive
	for i, m := range kind.directive().FindAllStringSubmatchIndex(text, -1) {
		out = append(out, Directive{
			Slot:        i,
			Start:       m[0],
			End:         m[1],
			Description: strings.TrimSpace(text[m[2]:m[3]]),
		})
	}
	return out
}

// RuleActive reports whether any rule asks for media of kind.
func RuleActive(rules []string, kind Kind) bool {
	word := kind.ruleKeyword()
	for _, r := range rules {
		if strings.Contains(strings.ToLower(r), word) {
			return true
		}
	}
	return false
}

// Artifact is a generated media file.
type Artifact struct {
	Path string
	// Slot is the directive this artifact answers, or NoSlot.
	Slot int
	// Anchor, for unslotted artifacts, is text the token is placed after.
	Anchor string
}

// Filename returns the base name used in reference tokens.
func (a Artifact) Filename() string {
	return filepath.Base(a.Path)
}

// Resolve substitutes artifacts into text. With no active rule for kind the
// text is returned unchanged. Each slotted artifact replaces its directive.
// Unslotted artifacts are placed after their anchor when it occurs in the
// text. Whatever artifact filename is still missing is appended.
func Resolve(text string, kind Kind, rules []string, artifacts []Artifact) string {
	if !RuleActive(rules, kind) {
		return text
	}

	bySlot := make(map[int]Artifact)
	for _, a := range artifacts {
		if a.Slot == NoSlot {
			continue
		}
		if _, dup := bySlot[a.Slot]; !dup {
			bySlot[a.Slot] = a
		}
	}

	var b strings.Builder
	last := 0
	for _, d := range FindDirectives(text, kind) {
		b.WriteString(text[last:d.Start])
		if a, ok := bySlot[d.Slot]; ok {
			b.WriteString(kind.Token(a.Filename()))
		} else {
			b.WriteString(text[d.Start:d.End])
		}
		last = d.End
	}
	b.WriteString(text[last:])
	out := b.String()

	for _, a := range artifacts {
		if a.Slot != NoSlot || a.Anchor == "" {
			continue
		}
		if i := strings.Index(out, a.Anchor); i >= 0 {
			end := i + len(a.Anchor)
			out = out[:end] + "\n\n" + kind.Token(a.Filename()) + out[end:]
		}
	}

	for _, a := range artifacts {
		if !strings.Contains(out, a.Filename()) {
			out += "\n\n" + kind.Token(a.Filename())
		}
	}
	return out
}

// StripMarkers removes directives and reference tokens of every kind.
func StripMarkers(text string) string {
	text = audioDirective.ReplaceAllString(text, "")
	text = imageDirective.ReplaceAllString(text, "")
	return referenceToken.ReplaceAllString(text, "")
}
