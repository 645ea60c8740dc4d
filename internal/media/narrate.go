package media

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/jackzampolin/lessonkit/internal/providers"
)

// Synthesizer turns text into audio bytes.
type Synthesizer interface {
	Generate(ctx context.Context, req *providers.TTSRequest) (*providers.TTSResult, error)
}

// Narrator produces narration audio for lesson text.
type Narrator struct {
	TTS          Synthesizer
	Dir          string
	Voice        string
	Format       string
	Instructions string
	Logger       *slog.Logger
}

// Target is text to synthesize or search for, tied to the directive slot it
// answers.
type Target struct {
	Text string
	Slot int
}

// NarrationTargets picks the text to narrate. Each audio directive narrates
// the paragraph it follows. Without directives every paragraph is narrated.
func NarrationTargets(text string) []Target {
	directives := FindDirectives(text, Audio)
	if len(directives) == 0 {
		var out []Target
		for _, p := range strings.Split(text, "\n\n") {
			if p = strings.TrimSpace(StripMarkers(p)); p != "" {
				out = append(out, Target{Text: p, Slot: NoSlot})
			}
		}
		return out
	}

	var out []Target
	for _, d := range directives {
		before := strings.TrimSpace(text[:d.Start])
		if i := strings.LastIndex(before, "\n\n"); i >= 0 {
			before = before[i+2:]
		}
		if p := strings.TrimSpace(StripMarkers(before)); p != "" {
			out = append(out, Target{Text: p, Slot: d.Slot})
		}
	}
	return out
}

// Narrate synthesizes narration and resolves audio directives in text. With
// no audio rule the text is returned unchanged and no audio is produced. A
// chunk that fails to synthesize is logged and skipped.
func (n *Narrator) Narrate(ctx context.Context, text string, rules []string) (string, []string, error) {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if !RuleActive(rules, Audio) {
		logger.Info("no audio rule, skipping narration")
		return text, []string{}, nil
	}
	if err := os.MkdirAll(n.Dir, 0o755); err != nil {
		return "", nil, fmt.Errorf("create audio dir: %w", err)
	}

	var artifacts []Artifact
	paths := []string{}
	for i, target := range NarrationTargets(text) {
		res, err := n.TTS.Generate(ctx, &providers.TTSRequest{
			Text:         target.Text,
			Voice:        n.Voice,
			Format:       n.Format,
			Instructions: n.Instructions,
		})
		if err != nil {
			logger.Warn("narration chunk failed, skipping", "chunk", i, "error", err)
			continue
		}

		ext := res.Format
		if ext == "" {
			ext = "mp3"
		}
		path := filepath.Join(n.Dir, fmt.Sprintf("audio_%s.%s", strings.ReplaceAll(uuid.NewString(), "-", ""), ext))
		if err := os.WriteFile(path, res.Audio, 0o644); err != nil {
			return "", nil, fmt.Errorf("write audio: %w", err)
		}

		a := Artifact{Path: path, Slot: target.Slot}
		if a.Slot == NoSlot {
			a.Anchor = target.Text
		}
		artifacts = append(artifacts, a)
		paths = append(paths, path)
	}

	logger.Info("narration generated", "files", len(paths))
	return Resolve(text, Audio, rules, artifacts), paths, nil
}
