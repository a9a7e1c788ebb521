package question

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/abhisek/cefrplace/internal/cefr"
)

const bankSchemaURL = "schema://question-bank.json"

// bankSchema describes the question bank file accepted by ParseBank.
const bankSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["questions"],
  "properties": {
    "version": {"type": "integer"},
    "questions": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "skill_type", "cefr_level", "question_type", "max_points"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "question_code": {"type": "string"},
          "skill_type": {"enum": ["reading", "listening", "writing", "speaking"]},
          "cefr_level": {"type": "string", "minLength": 2},
          "question_type": {"type": "string", "minLength": 1},
          "difficulty_rating": {"type": "number", "minimum": 0, "maximum": 1},
          "discrimination_index": {"type": "number"},
          "max_points": {"type": "integer", "minimum": 1},
          "correct_answer": {"type": "string"},
          "prompt": {"type": "string"},
          "options": {"type": "array", "items": {"type": "string"}}
        }
      }
    }
  }
}`

var (
	compileOnce    sync.Once
	compiledSchema *jsonschema.Schema
	compileErr     error
)

// bankFile is the on-disk layout of a question bank.
type bankFile struct {
	Version   int         `json:"version"`
	Questions []bankEntry `json:"questions"`
}

type bankEntry struct {
	ID                  string     `json:"id"`
	Code                string     `json:"question_code"`
	Skill               cefr.Skill `json:"skill_type"`
	Level               cefr.Level `json:"cefr_level"`
	Type                Type       `json:"question_type"`
	DifficultyRating    *float64   `json:"difficulty_rating"`
	DiscriminationIndex float64    `json:"discrimination_index"`
	MaxPoints           int        `json:"max_points"`
	CorrectAnswer       string     `json:"correct_answer"`
	Prompt              string     `json:"prompt"`
	Options             []string   `json:"options"`
}

// ParseBank reads a JSON question bank, checks it against the bank schema and
// validates every question. A missing difficulty_rating defaults to 0.5.
func ParseBank(r io.Reader) ([]Question, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read bank: %w", err)
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	schema, err := bankValidator()
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}

	var file bankFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("decode bank: %w", err)
	}

	out := make([]Question, 0, len(file.Questions))
	seen := make(map[string]bool, len(file.Questions))
	var errs []error
	for _, e := range file.Questions {
		q := e.toQuestion()
		if seen[q.ID] {
			errs = append(errs, fmt.Errorf("duplicate question id %q", q.ID))
			continue
		}
		seen[q.ID] = true
		if err := Validate(&q); err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, q)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

func (e bankEntry) toQuestion() Question {
	rating := DefaultDifficultyRating
	if e.DifficultyRating != nil {
		rating = *e.DifficultyRating
	}
	return Question{
		ID:                  e.ID,
		Code:                e.Code,
		Skill:               e.Skill,
		Level:               e.Level,
		Type:                e.Type,
		DifficultyRating:    rating,
		DiscriminationIndex: e.DiscriminationIndex,
		MaxPoints:           e.MaxPoints,
		CorrectAnswer:       e.CorrectAnswer,
		Prompt:              e.Prompt,
		Options:             e.Options,
	}
}

func bankValidator() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		var def any
		if err := json.Unmarshal([]byte(bankSchema), &def); err != nil {
			compileErr = fmt.Errorf("parse bank schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(bankSchemaURL, def); err != nil {
			compileErr = fmt.Errorf("add resource: %w", err)
			return
		}
		compiledSchema, compileErr = c.Compile(bankSchemaURL)
	})
	return compiledSchema, compileErr
}
