package render

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/jackzampolin/lessonkit/internal/failure"
	"github.com/jackzampolin/lessonkit/internal/home"
)

// FinalPaths are the placeholder pipeline outputs.
type FinalPaths struct {
	Text     string `json:"txt_path" yaml:"txt_path"`
	JSON     string `json:"json_path" yaml:"json_path"`
	Markdown string `json:"md_path" yaml:"md_path"`
}

// Block is one entry of the JSON output.
type Block struct {
	Type        string `json:"type"`
	Content     string `json:"content,omitempty"`
	Placeholder string `json:"placeholder,omitempty"`
}

var (
	audioPlaceholder = regexp.MustCompile(`(?i)\[Insert Audio:\s*(.+?)\]`)
	imagePlaceholder = regexp.MustCompile(`(?i)\[Insert Image:\s*(.+?)\]`)
	numberedLine     = regexp.MustCompile(`^\d+\.`)
)

// FinalOutput writes the lesson text verbatim, as Markdown and as a JSON
// block list. The three files share one id.
func (r *Renderer) FinalOutput(text string) (FinalPaths, error) {
	if strings.TrimSpace(text) == "" {
		return FinalPaths{}, failure.Render("final-output", fmt.Errorf("%w: empty lesson text", ErrNoData))
	}

	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	name := "final_lesson_" + id
	paths := FinalPaths{
		Text:     filepath.Join(r.Home.Output(home.FinalDir), name+".txt"),
		JSON:     filepath.Join(r.Home.Output(home.JSONDir), name+".json"),
		Markdown: filepath.Join(r.Home.Output(home.MarkdownDir), name+".md"),
	}

	blocks, err := json.MarshalIndent(Blocks(text), "", "  ")
	if err != nil {
		return FinalPaths{}, failure.Render("final-output", err)
	}

	files := []struct {
		path string
		data []byte
	}{
		{paths.Text, []byte(text)},
		{paths.Markdown, []byte(Markdown(text))},
		{paths.JSON, blocks},
	}
	for _, f := range files {
		if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
			return FinalPaths{}, failure.Render("final-output", err)
		}
		if err := os.WriteFile(f.path, f.data, 0o644); err != nil {
			return FinalPaths{}, failure.Render("final-output", err)
		}
	}

	r.logger().Info("final output written", "txt", paths.Text, "json", paths.JSON, "md", paths.Markdown)
	return paths, nil
}

// Markdown applies heading heuristics line by line: "Title:" lines become H1,
// lines mentioning instructions H2, numbered lines H3 and lines ending in a
// colon bold. Placeholder lines are kept with a marker. Lines are separated
// by blank lines.
func Markdown(text string) string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		s := strings.TrimSpace(line)
		lower := strings.ToLower(s)
		switch {
		case s == "":
			out = append(out, "")
		case strings.HasPrefix(lower, "title:"):
			out = append(out, "# "+strings.TrimSpace(s[len("title:"):]))
		case strings.Contains(lower, "instructions"):
			out = append(out, "## "+s)
		case numberedLine.MatchString(s):
			out = append(out, "### "+s)
		case strings.HasSuffix(s, ":"):
			out = append(out, "**"+s+"**")
		default:
			if m := audioPlaceholder.FindStringSubmatch(s); m != nil {
				out = append(out, "🔊 [Insert Audio: "+strings.TrimSpace(m[1])+"]")
			} else if m := imagePlaceholder.FindStringSubmatch(s); m != nil {
				out = append(out, "🔍 [Insert Image: "+strings.TrimSpace(m[1])+"]")
			} else {
				out = append(out, s)
			}
		}
	}
	return strings.Join(out, "\n\n")
}

// Blocks splits text into text, audio and image entries, one per non-empty
// line. A line holding a placeholder becomes that placeholder's entry.
func Blocks(text string) []Block {
	blocks := []Block{}
	for _, line := range strings.Split(text, "\n") {
		if m := audioPlaceholder.FindStringSubmatch(line); m != nil {
			blocks = append(blocks, Block{Type: "audio", Placeholder: strings.TrimSpace(m[1])})
			continue
		}
		if m := imagePlaceholder.FindStringSubmatch(line); m != nil {
			blocks = append(blocks, Block{Type: "image", Placeholder: strings.TrimSpace(m[1])})
			continue
		}
		if s := strings.TrimSpace(line); s != "" {
			blocks = append(blocks, Block{Type: "text", Content: s})
		}
	}
	return blocks
}
