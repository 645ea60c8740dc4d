package prompts

import (
	"embed"
	"strings"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Prompt keys. System prompts use the ".system" suffix of their user prompt.
const (
	RulesClean            = "rules.clean"
	LessonAdapt           = "lesson.adapt"
	LessonWorksheet       = "lesson.worksheet"
	SectionsGenerate      = "sections.generate"
	SlidesParagraphs      = "slides.paragraphs"
	SlidesDeck            = "slides.deck"
	WorksheetStudent      = "worksheet.student"
	MediaVisualTopics     = "media.visual_topics"
	systemSuffix          = ".system"
	templateFileExtension = ".tmpl"
)

// System returns the system prompt key paired with a user prompt key.
func System(key string) string {
	return key + systemSuffix
}

var defaults = []struct {
	key, file, description string
}{
	{RulesClean, "rules_clean", "Reduce extracted rules to an actionable, non-contradictory set"},
	{System(LessonAdapt), "lesson_adapt_system", "Adaptation assistant persona"},
	{LessonAdapt, "lesson_adapt", "Rewrite one lesson chunk as Engager / I Do / We Do / You Do / Assessment"},
	{System(LessonWorksheet), "lesson_worksheet_system", "Worksheet adaptation persona"},
	{LessonWorksheet, "lesson_worksheet", "Adapt a whole worksheet while keeping its structure"},
	{System(SectionsGenerate), "sections_system", "Lesson plan designer persona"},
	{SectionsGenerate, "sections", "Generate the 12 lesson plan sections"},
	{System(SlidesParagraphs), "slides_paragraphs_system", "Slide content persona"},
	{SlidesParagraphs, "slides_paragraphs", "Chunk lesson content into titled slide paragraphs"},
	{System(SlidesDeck), "slides_deck_system", "Slide deck persona"},
	{SlidesDeck, "slides_deck", "Build the slide list from chunked content and plan sections"},
	{System(WorksheetStudent), "worksheet_student_system", "Student worksheet persona"},
	{WorksheetStudent, "worksheet_student", "Generate student worksheet sections"},
	{MediaVisualTopics, "visual_topics", "Suggest 3-5 searchable visual topics for a lesson"},
}

// RegisterDefaults registers every embedded prompt with the resolver.
func RegisterDefaults(r *Resolver) error {
	for _, d := range defaults {
		data, err := templateFS.ReadFile("templates/" + d.file + templateFileExtension)
		if err != nil {
			return err
		}
		r.Register(EmbeddedPrompt{
			Key:         d.key,
			Text:        strings.TrimSpace(string(data)),
			Description: d.description,
		})
	}
	return nil
}

// Keys returns every embedded prompt key in registration order.
func Keys() []string {
	keys := make([]string, len(defaults))
	for i, d := range defaults {
		keys[i] = d.key
	}
	return keys
}
