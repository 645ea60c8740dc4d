// Package render writes pipeline results to files: Word documents for the
// lesson plan, worksheet and source material, a PDF slide deck, and the
// plain text, JSON and Markdown outputs of the placeholder pipeline.
package render

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/jackzampolin/lessonkit/internal/home"
)

const defaultFont = "Poppins"

// Document colors.
const (
	colorBlack       = "000000"
	colorEnglish     = "0066CC"
	colorTranslation = "FF0000"
)

// ErrNoData is returned when a renderer has nothing to render.
var ErrNoData = errors.New("no data to render")

// Renderer writes artifacts under a home directory's outputs tree.
type Renderer struct {
	Home   *home.Dir
	Font   string
	Logger *slog.Logger
}

// New creates a renderer writing under h.
func New(h *home.Dir, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{Home: h, Font: defaultFont, Logger: logger}
}

func (r *Renderer) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

func (r *Renderer) font() string {
	if r.Font != "" {
		return r.Font
	}
	return defaultFont
}

// outputPath returns a fresh path for an artifact of kind.
func (r *Renderer) outputPath(kind, prefix, ext string) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return filepath.Join(r.Home.Output(kind), fmt.Sprintf("%s_%s.%s", prefix, id, ext))
}

// SplitTranslation separates English text from its translation. An explicit
// blank line splits first; otherwise the translation starts at the first
// non-ASCII rune. Text with neither has no translation.
func SplitTranslation(content string) (english, translation string) {
	content = strings.TrimSpace(content)
	if before, after, ok := strings.Cut(content, "\n\n"); ok {
		return strings.TrimSpace(before), strings.TrimSpace(after)
	}
	for i, r := range content {
		if r >= utf8.RuneSelf {
			return strings.TrimRight(content[:i], " \t\n"), strings.TrimLeft(content[i:], " \t\n")
		}
	}
	return content, ""
}

// nonEmptyLines returns the trimmed, non-empty lines of s.
func nonEmptyLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}
