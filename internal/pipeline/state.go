package pipeline

import (
	"maps"
	"slices"

	"github.com/jackzampolin/lessonkit/internal/failure"
	"github.com/jackzampolin/lessonkit/internal/knowledge"
	"github.com/jackzampolin/lessonkit/internal/parse"
	"github.com/jackzampolin/lessonkit/internal/sections"
)

// Field names a slot in the pipeline state.
type Field string

const (
	FieldStudentProfile      Field = "student_profile"
	FieldRules               Field = "rules"
	FieldLessonSource        Field = "lesson_source"
	FieldLessonObjective     Field = "lesson_objective"
	FieldLanguageObjective   Field = "language_objective"
	FieldTargetLanguage      Field = "target_language"
	FieldFileCategory        Field = "file_category"
	FieldNumberOfDays        Field = "number_of_days"
	FieldLessonContent       Field = "lesson_content"
	FieldModifiedLessonText  Field = "modified_lesson_text"
	FieldSections            Field = "sections"
	FieldSlideData           Field = "slide_data"
	FieldProcessedParagraphs Field = "processed_paragraphs"
	FieldAudioPaths          Field = "audio_paths"
	FieldImagePaths          Field = "image_paths"
	FieldLessonPlanPath      Field = "lesson_plan_path"
	FieldSlideDeckPath       Field = "slide_deck_path"
	FieldWorksheetPath       Field = "worksheet_path"
	FieldSourceMaterialPath  Field = "source_material_path"
	FieldFinalTxtPath        Field = "final_txt_path"
	FieldFinalJSONPath       Field = "final_json_path"
	FieldFinalMDPath         Field = "final_md_path"
)

// Fields lists every state field in pipeline order.
var Fields = []Field{
	FieldStudentProfile, FieldRules, FieldLessonSource, FieldLessonObjective,
	FieldLanguageObjective, FieldTargetLanguage, FieldFileCategory, FieldNumberOfDays,
	FieldLessonContent, FieldModifiedLessonText, FieldSections, FieldSlideData,
	FieldProcessedParagraphs, FieldAudioPaths, FieldImagePaths, FieldLessonPlanPath,
	FieldSlideDeckPath, FieldWorksheetPath, FieldSourceMaterialPath, FieldFinalTxtPath,
	FieldFinalJSONPath, FieldFinalMDPath,
}

// Documented defaults for the only optional inputs.
const (
	DefaultNumberOfDays = 1
	DefaultFileCategory = "Lesson"
)

// State is the record threaded through a pipeline invocation. Fields are
// read directly; presence is tracked separately so an empty value a stage
// produced on purpose (no audio files, an empty rule set) is distinct from a
// value nobody set. Build it with NewState and grow it with With.
type State struct {
	StudentProfile    knowledge.Profile
	Rules             []string
	LessonSource      string
	LessonObjective   string
	LanguageObjective map[string]string
	TargetLanguage    string
	FileCategory      string
	NumberOfDays      int

	LessonContent       string
	ModifiedLessonText  string
	Sections            sections.Map
	SlideData           []parse.Record
	ProcessedParagraphs []string
	AudioPaths          []string
	ImagePaths          []string

	LessonPlanPath     string
	SlideDeckPath      string
	WorksheetPath      string
	SourceMaterialPath string
	FinalTxtPath       string
	FinalJSONPath      string
	FinalMDPath        string

	present map[Field]bool
}

// Update sets one field. Create updates with the Set* constructors.
type Update struct {
	field Field
	apply func(*State)
}

// Field reports which field u sets.
func (u Update) Field() Field { return u.field }

// NewState returns a state holding only the given fields.
func NewState(updates ...Update) State {
	return State{}.With(updates...)
}

// With returns a copy of s with updates applied. Fields not named by an
// update keep their values; nothing is ever cleared.
func (s State) With(updates ...Update) State {
	next := s
	next.present = maps.Clone(s.present)
	if next.present == nil {
		next.present = make(map[Field]bool, len(updates))
	}
	for _, u := range updates {
		u.apply(&next)
		next.present[u.field] = true
	}
	return next
}

// Has reports whether f has been set.
func (s State) Has(f Field) bool {
	return s.present[f]
}

// Present returns the set fields in pipeline order.
func (s State) Present() []Field {
	var out []Field
	for _, f := range Fields {
		if s.present[f] {
			out = append(out, f)
		}
	}
	return out
}

// Require returns a precondition error naming the first missing field.
func (s State) Require(op string, fields ...Field) error {
	for _, f := range fields {
		if !s.Has(f) {
			return failure.Precondition(op, string(f))
		}
	}
	return nil
}

// Days returns number_of_days, or the default when unset or not positive.
func (s State) Days() int {
	if !s.Has(FieldNumberOfDays) || s.NumberOfDays < 1 {
		return DefaultNumberOfDays
	}
	return s.NumberOfDays
}

// Category returns file_category, or the default when unset or blank.
func (s State) Category() string {
	if !s.Has(FieldFileCategory) || s.FileCategory == "" {
		return DefaultFileCategory
	}
	return s.FileCategory
}

// Snapshot returns the set fields keyed by name, for printing.
func (s State) Snapshot() map[string]any {
	out := make(map[string]any, len(s.present))
	for _, f := range s.Present() {
		out[string(f)] = s.value(f)
	}
	return out
}

func (s State) value(f Field) any {
	switch f {
	case FieldStudentProfile:
		return s.StudentProfile
	case FieldRules:
		return s.Rules
	case FieldLessonSource:
		return s.LessonSource
	case FieldLessonObjective:
		return s.LessonObjective
	case FieldLanguageObjective:
		return s.LanguageObjective
	case FieldTargetLanguage:
		return s.TargetLanguage
	case FieldFileCategory:
		return s.FileCategory
	case FieldNumberOfDays:
		return s.NumberOfDays
	case FieldLessonContent:
		return s.LessonContent
	case FieldModifiedLessonText:
		return s.ModifiedLessonText
	case FieldSections:
		return s.Sections
	case FieldSlideData:
		return s.SlideData
	case FieldProcessedParagraphs:
		return s.ProcessedParagraphs
	case FieldAudioPaths:
		return s.AudioPaths
	case FieldImagePaths:
		return s.ImagePaths
	case FieldLessonPlanPath:
		return s.LessonPlanPath
	case FieldSlideDeckPath:
		return s.SlideDeckPath
	case FieldWorksheetPath:
		return s.WorksheetPath
	case FieldSourceMaterialPath:
		return s.SourceMaterialPath
	case FieldFinalTxtPath:
		return s.FinalTxtPath
	case FieldFinalJSONPath:
		return s.FinalJSONPath
	case FieldFinalMDPath:
		return s.FinalMDPath
	}
	return nil
}

// Slices and maps are cloned on the way in so a caller mutating its own copy
// cannot reach into the state.

func SetStudentProfile(p knowledge.Profile) Update {
	p = p.Clone()
	return Update{FieldStudentProfile, func(s *State) { s.StudentProfile = p }}
}

func SetRules(rules []string) Update {
	rules = slices.Clone(rules)
	return Update{FieldRules, func(s *State) { s.Rules = rules }}
}

func SetLessonSource(ref string) Update {
	return Update{FieldLessonSource, func(s *State) { s.LessonSource = ref }}
}

func SetLessonObjective(v string) Update {
	return Update{FieldLessonObjective, func(s *State) { s.LessonObjective = v }}
}

func SetLanguageObjective(v map[string]string) Update {
	v = maps.Clone(v)
	return Update{FieldLanguageObjective, func(s *State) { s.LanguageObjective = v }}
}

func SetTargetLanguage(v string) Update {
	return Update{FieldTargetLanguage, func(s *State) { s.TargetLanguage = v }}
}

func SetFileCategory(v string) Update {
	return Update{FieldFileCategory, func(s *State) { s.FileCategory = v }}
}

func SetNumberOfDays(n int) Update {
	return Update{FieldNumberOfDays, func(s *State) { s.NumberOfDays = n }}
}

func SetLessonContent(text string) Update {
	return Update{FieldLessonContent, func(s *State) { s.LessonContent = text }}
}

func SetModifiedLessonText(text string) Update {
	return Update{FieldModifiedLessonText, func(s *State) { s.ModifiedLessonText = text }}
}

func SetSections(m sections.Map) Update {
	m = maps.Clone(m)
	return Update{FieldSections, func(s *State) { s.Sections = m }}
}

func SetSlideData(records []parse.Record) Update {
	records = slices.Clone(records)
	return Update{FieldSlideData, func(s *State) { s.SlideData = records }}
}

func SetProcessedParagraphs(paragraphs []string) Update {
	paragraphs = slices.Clone(paragraphs)
	return Update{FieldProcessedParagraphs, func(s *State) { s.ProcessedParagraphs = paragraphs }}
}

func SetAudioPaths(paths []string) Update {
	paths = nonNil(paths)
	return Update{FieldAudioPaths, func(s *State) { s.AudioPaths = paths }}
}

func SetImagePaths(paths []string) Update {
	paths = nonNil(paths)
	return Update{FieldImagePaths, func(s *State) { s.ImagePaths = paths }}
}

func SetLessonPlanPath(p string) Update {
	return Update{FieldLessonPlanPath, func(s *State) { s.LessonPlanPath = p }}
}

func SetSlideDeckPath(p string) Update {
	return Update{FieldSlideDeckPath, func(s *State) { s.SlideDeckPath = p }}
}

func SetWorksheetPath(p string) Update {
	return Update{FieldWorksheetPath, func(s *State) { s.WorksheetPath = p }}
}

func SetSourceMaterialPath(p string) Update {
	return Update{FieldSourceMaterialPath, func(s *State) { s.SourceMaterialPath = p }}
}

func SetFinalTxtPath(p string) Update {
	return Update{FieldFinalTxtPath, func(s *State) { s.FinalTxtPath = p }}
}

func SetFinalJSONPath(p string) Update {
	return Update{FieldFinalJSONPath, func(s *State) { s.FinalJSONPath = p }}
}

func SetFinalMDPath(p string) Update {
	return Update{FieldFinalMDPath, func(s *State) { s.FinalMDPath = p }}
}

func nonNil(paths []string) []string {
	if paths == nil {
		return []string{}
	}
	return slices.Clone(paths)
}
