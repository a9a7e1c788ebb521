package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Question is one item of the placement question bank.
type Question struct {
	ent.Schema
}

func (Question) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			NotEmpty().
			Immutable(),
		field.String("code").
			Default("").
			Comment("Human-facing question code, e.g. RD-B1-01"),
		field.String("skill").
			NotEmpty().
			Comment("reading, listening, writing or speaking"),
		field.Int("level").
			Range(0, 6).
			Comment("CEFR level index, 0 = Pre-A1 .. 6 = C2"),
		field.String("type").
			NotEmpty().
			Comment("Question type, e.g. gap_fill or open_response"),
		field.Float("difficulty_rating").
			Default(0.5).
			Min(0).
			Max(1),
		field.Float("discrimination_index").
			Default(0),
		field.Int("max_points").
			Positive().
			Default(1),
		field.String("correct_answer").
			Default("").
			Comment("Empty for manually reviewed types"),
		field.Text("prompt").
			Default(""),
		field.String("options").
			Default("[]").
			Comment("JSON array of answer options"),
		field.String("updated_at").
			Comment("RFC 3339 time of the last upsert"),
	}
}

func (Question) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("skill", "level"),
	}
}
