package parse

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/jackzampolin/lessonkit/internal/failure"
)

// Record is one slide, processed paragraph or worksheet section.
type Record struct {
	Title   string `json:"title" yaml:"title"`
	Content string `json:"content" yaml:"content"`
}

// TitleOnly reports a record with a heading and no body, rendered as a divider.
func (r Record) TitleOnly() bool {
	return strings.TrimSpace(r.Content) == "" && strings.TrimSpace(r.Title) != ""
}

// UnmarshalJSON accepts "section" as an alias for "title" and a list of
// strings for "content", which is joined with newlines.
func (r *Record) UnmarshalJSON(b []byte) error {
	var raw struct {
		Title   *string         `json:"title"`
		Section *string         `json:"section"`
		Content json.RawMessage `json:"content"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	*r = Record{}
	switch {
	case raw.Title != nil:
		r.Title = *raw.Title
	case raw.Section != nil:
		r.Title = *raw.Section
	}

	if len(raw.Content) == 0 || string(raw.Content) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw.Content, &s); err == nil {
		r.Content = s
		return nil
	}
	var lines []string
	if err := json.Unmarshal(raw.Content, &lines); err != nil {
		return fmt.Errorf("content must be a string or list of strings: %w", err)
	}
	r.Content = strings.Join(lines, "\n")
	return nil
}

const stringListSchemaJSON = `{
  "type": "array",
  "items": {"type": "string"}
}`

// A record needs a title (or section) or content, and each field is a string,
// a list of strings, or null.
const recordsSchemaJSON = `{
  "type": "array",
  "items": {
    "type": "object",
    "properties": {
      "title":   {"type": ["string", "null"]},
      "section": {"type": ["string", "null"]},
      "content": {
        "anyOf": [
          {"type": ["string", "null"]},
          {"type": "array", "items": {"type": "string"}}
        ]
      }
    },
    "anyOf": [
      {"required": ["title"]},
      {"required": ["section"]},
      {"required": ["content"]}
    ]
  }
}`

var (
	stringListSchema = jsonschema.MustCompileString("string_list.json", stringListSchemaJSON)
	recordsSchema    = jsonschema.MustCompileString("records.json", recordsSchemaJSON)
)

// ErrEmptyRecord is returned for a record with neither title nor content.
var ErrEmptyRecord = errors.New("record has neither title nor content")

// Records parses an ordered list of title/content records. The decoded
// document is validated against the record schema before conversion, and
// every record must carry a non-empty title or content.
func Records(raw string) ([]Record, error) {
	var doc any
	if _, err := decode("records", raw, &doc); err != nil {
		return nil, err
	}
	doc = unwrapList(doc)
	if err := recordsSchema.Validate(doc); err != nil {
		return nil, failure.Parsing("records", strings.TrimSpace(raw), err)
	}

	b, err := json.Marshal(doc)
	if err != nil {
		return nil, failure.Parsing("records", strings.TrimSpace(raw), err)
	}
	var records []Record
	if err := json.Unmarshal(b, &records); err != nil {
		return nil, failure.Parsing("records", strings.TrimSpace(raw), err)
	}

	for i, rec := range records {
		if strings.TrimSpace(rec.Title) == "" && strings.TrimSpace(rec.Content) == "" {
			return nil, failure.Parsing("records", strings.TrimSpace(raw), fmt.Errorf("record %d: %w", i, ErrEmptyRecord))
		}
	}
	return records, nil
}
