// Package parse recovers structured values from model replies.
//
// A reply is first decoded strictly. On failure the repair layers from
// Layers are applied cumulatively, in order, with a strict decode after each
// one. If none succeed the cleaned text is evaluated as a Python-style
// literal. Only when that also fails is a parsing error returned; partial
// results are never returned.
package parse

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"github.com/jackzampolin/lessonkit/internal/failure"
)

// ErrEmpty is returned for blank model output.
var ErrEmpty = errors.New("empty model output")

// Decode parses raw into v, which must be a non-nil pointer.
func Decode(raw string, v any) error {
	_, err := decode("decode", raw, v)
	return err
}

// decode runs the repair protocol and reports which strategy succeeded.
func decode(op, raw string, v any) (string, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return "", fmt.Errorf("parse: Decode requires a non-nil pointer, got %T", v)
	}

	text := strings.TrimSpace(raw)
	if text == "" {
		return "", failure.Parsing(op, "", ErrEmpty)
	}

	lastErr := strict(text, rv)
	if lastErr == nil {
		return "strict", nil
	}

	for _, layer := range Layers() {
		repaired := layer.Repair(text)
		if repaired == text {
			continue
		}
		text = repaired
		if lastErr = strict(text, rv); lastErr == nil {
			slog.Debug("model output repaired", "op", op, "layer", layer.Name)
			return layer.Name, nil
		}
	}

	lit, err := ParseLiteral(text)
	if err == nil {
		// Round-trip through JSON to land in the caller's type.
		var b []byte
		if b, err = json.Marshal(lit); err == nil {
			if err = strict(string(b), rv); err == nil {
				slog.Debug("model output evaluated as literal", "op", op)
				return "literal", nil
			}
		}
	}
	return "", failure.Parsing(op, text, errors.Join(lastErr, err))
}

// strict is a plain JSON decode that leaves target zeroed on failure.
func strict(text string, target reflect.Value) error {
	elem := target.Elem()
	fresh := reflect.New(elem.Type())
	dec := json.NewDecoder(strings.NewReader(text))
	if err := dec.Decode(fresh.Interface()); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("unexpected data after top-level value")
	}
	elem.Set(fresh.Elem())
	return nil
}

// StringList parses a list of strings such as a cleaned rule set or a list of
// visual topics. Items are trimmed and blank items dropped.
func StringList(raw string) ([]string, error) {
	var doc any
	if _, err := decode("string-list", raw, &doc); err != nil {
		return nil, err
	}
	doc = unwrapList(doc)
	if err := stringListSchema.Validate(doc); err != nil {
		return nil, failure.Parsing("string-list", strings.TrimSpace(raw), err)
	}

	items := doc.([]any)
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s := strings.TrimSpace(item.(string)); s != "" {
			out = append(out, s)
		}
	}
	return out, nil
}

// unwrapList returns the array held by a single-key object such as
// {"rules": [...]}, which models sometimes emit instead of a bare array.
func unwrapList(doc any) any {
	m, ok := doc.(map[string]any)
	if !ok || len(m) != 1 {
		return doc
	}
	for _, v := range m {
		if list, ok := v.([]any); ok {
			return list
		}
	}
	return doc
}
