package render

import (
	"fmt"
	"strings"

	"github.com/jackzampolin/lessonkit/internal/failure"
	"github.com/jackzampolin/lessonkit/internal/home"
	"github.com/jackzampolin/lessonkit/internal/parse"
	"github.com/jackzampolin/lessonkit/internal/sections"
)

// Lesson plan table labels.
const (
	labelStandards  = "Standards Addressed"
	labelObjectives = "Objectives or Essential Question"
	labelTeacher    = "Teacher Activities"
	labelStudent    = "Desired Student Actions and Potential Misconceptions"
)

var activityRows = []struct {
	label            string
	teacher, student string
}{
	{"Lesson Intro", sections.IntroTeacher, sections.IntroStudent},
	{`Demonstration, model, or mini-lesson ("I DO")`, sections.IDoTeacher, sections.IDoStudent},
	{`Shared Learning or Guided Practice ("We Do")`, sections.WeDoTeacher, sections.WeDoStudent},
	{`Independent or Collaborative Small Group Work ("You Do") Assessment`, sections.YouDoTeacher, sections.YouDoStudent},
}

// LessonPlan writes the lesson plan document. Missing sections leave their
// cells empty; a map with no known section is a render error.
func (r *Renderer) LessonPlan(m sections.Map) (string, error) {
	if len(m.Missing()) == len(sections.Keys) {
		return "", failure.Render("lesson-plan", fmt.Errorf("%w: section map is empty", ErrNoData))
	}

	doc := NewDocument(r.font())
	doc.AddParagraph(Paragraph{Runs: []Run{{Text: "Lesson Plan", Bold: true, Size: 24}}})
	doc.Spacer()

	objectives := strings.TrimSpace(fmt.Sprintf("CONTENT: %s\n\nLANGUAGE: %s", m.Text(sections.Content), m.Text(sections.Language)))
	doc.AddTable(Table{
		HeaderRows: 1,
		CellSize:   11,
		Rows: [][]string{
			{labelStandards, labelObjectives},
			{m.Text(sections.Standards), objectives},
			{"Purpose: " + m.Text(sections.Purpose), ""},
		},
	})

	rows := [][]string{{"", labelTeacher, labelStudent}}
	for _, a := range activityRows {
		rows = append(rows, []string{a.label, m.Text(a.teacher), m.Text(a.student)})
	}
	doc.AddTable(Table{HeaderRows: 1, CellSize: 11, Rows: rows})

	path := r.outputPath(home.WordDir, "lesson_plan", "docx")
	if err := doc.Build(path); err != nil {
		return "", failure.Render("lesson-plan", err)
	}
	r.logger().Info("lesson plan written", "path", path, "missing", m.Missing())
	return path, nil
}

// Worksheet writes the student worksheet. Each section's English text is
// blue and its translation red.
func (r *Renderer) Worksheet(records []parse.Record) (string, error) {
	if len(records) == 0 {
		return "", failure.Render("worksheet", fmt.Errorf("%w: no worksheet sections", ErrNoData))
	}

	doc := NewDocument(r.font())
	doc.AddParagraph(Paragraph{Center: true, Runs: []Run{{Text: "Student Worksheet", Bold: true, Size: 24, Color: colorBlack}}})
	doc.Spacer()

	for _, rec := range records {
		doc.Add(Run{Text: rec.Title, Bold: true, Size: 18, Color: colorBlack})
		doc.Spacer()

		english, translation := SplitTranslation(rec.Content)
		for _, line := range nonEmptyLines(english) {
			doc.Add(Run{Text: line, Size: 12, Color: colorEnglish})
		}
		if translation != "" {
			doc.Spacer()
			for _, line := range nonEmptyLines(translation) {
				doc.Add(Run{Text: line, Size: 12, Color: colorTranslation})
			}
		}
		doc.Spacer()
	}

	path := r.outputPath(home.WorksheetsDir, "student_worksheet", "docx")
	if err := doc.Build(path); err != nil {
		return "", failure.Render("worksheet", err)
	}
	r.logger().Info("worksheet written", "path", path, "sections", len(records))
	return path, nil
}

// SourceMaterial writes the processed lesson paragraphs as a reference text.
func (r *Renderer) SourceMaterial(paragraphs []string) (string, error) {
	var kept []string
	for _, p := range paragraphs {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	if len(kept) == 0 {
		return "", failure.Render("reference-text", fmt.Errorf("%w: no processed paragraphs", ErrNoData))
	}

	doc := NewDocument(r.font())
	doc.AddParagraph(Paragraph{Center: true, Runs: []Run{{Text: "Source Material Text", Bold: true, Size: 24, Color: colorBlack}}})
	doc.Spacer()
	for _, p := range kept {
		doc.Add(Run{Text: p, Size: 12, Color: colorBlack})
		doc.Spacer()
	}

	path := r.outputPath(home.SourceMaterialsDir, "source_material", "docx")
	if err := doc.Build(path); err != nil {
		return "", failure.Render("reference-text", err)
	}
	r.logger().Info("source material written", "path", path, "paragraphs", len(kept))
	return path, nil
}
