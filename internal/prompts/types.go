// Package prompts holds the prompt templates sent to the completion service.
//
// Defaults are embedded .tmpl files keyed hierarchically ("lesson.adapt",
// "rules.clean"). An optional override directory can replace any of them
// without a rebuild: a file named "<key>.tmpl" there wins over the embedded
// default.
//
// Every resolved prompt carries the SHA256 of its text so each recorded LLM
// call can be traced to the exact prompt version that produced it.
package prompts

// EmbeddedPrompt represents a prompt loaded from an embedded .tmpl file.
type EmbeddedPrompt struct {
	Key         string   // Hierarchical key: lesson.adapt
	Text        string   // The prompt text (Go template)
	Description string   // Human-readable description
	Variables   []string // Extracted template variables
	Hash        string   // SHA256 hash of the text for change detection
}

// ResolvedPrompt is the prompt text chosen for a key.
type ResolvedPrompt struct {
	Key        string   `json:"key"`
	Text       string   `json:"text"`
	Variables  []string `json:"variables,omitempty"`
	IsOverride bool     `json:"is_override"` // true if read from the override directory
	Hash       string   `json:"hash"`
}
