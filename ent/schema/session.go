package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
)

// Session is one placement test, stored with its order and raw scores as
// JSON documents.
type Session struct {
	ent.Schema
}

func (Session) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			NotEmpty().
			Immutable(),
		field.String("mode").
			NotEmpty().
			Comment("quick or full"),
		field.String("skills").
			Comment("JSON array of tested skills"),
		field.Text("question_order").
			Comment("JSON array of order entries"),
		field.Text("raw_scores").
			Comment("JSON object of per-skill accumulators"),
		field.String("status").
			Comment("in_progress or completed"),
		field.Text("result").
			Default("").
			Comment("JSON placement result, empty until completed"),
		field.Int64("version").
			Default(1).
			Comment("Optimistic concurrency counter, bumped on every save"),
		field.String("started_at").
			Immutable(),
		field.String("updated_at"),
		field.String("completed_at").
			Default(""),
	}
}

func (Session) Edges() []ent.Edge {
	return []ent.Edge{
		edge.To("answers", AnswerEvent.Type),
	}
}
