package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// AnswerEvent records one submitted answer.
type AnswerEvent struct {
	ent.Schema
}

func (AnswerEvent) Mixin() []ent.Mixin {
	return []ent.Mixin{EventMixin{}}
}

func (AnswerEvent) Fields() []ent.Field {
	return []ent.Field{
		field.String("session_id").
			NotEmpty().
			Comment("Links to Session"),
		field.Int("slot").
			NonNegative().
			Comment("Index into the session's question order"),
		field.String("question_id").
			NotEmpty(),
		field.String("skill").
			NotEmpty(),
		field.Text("answer").
			Comment("What the test-taker entered"),
		field.Bool("is_correct").
			Optional().
			Nillable().
			Comment("Nil while the answer awaits manual review"),
		field.Int("points_earned"),
		field.Bool("needs_review"),
		field.Int("time_spent_seconds"),
	}
}

func (AnswerEvent) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("session", Session.Type).
			Ref("answers").
			Field("session_id").
			Unique().
			Required(),
	}
}

func (AnswerEvent) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("session_id", "sequence"),
	}
}
