package routekit

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscriminators(t *testing.T) {
	view, err := JSONInspector().Inspect([]byte(`{
		"kind": "reaction",
		"reaction": {"emoji": "👍", "count": 3},
		"peer": {"chat_id": 10}
	}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name string
		d    Discriminator
		want bool
	}{
		{name: "has fields", d: HasFields("kind", "reaction.emoji"), want: true},
		{name: "has fields missing one", d: HasFields("kind", "reaction.custom"), want: false},
		{name: "has no fields is vacuously true", d: HasFields(), want: true},
		{name: "field equals", d: FieldEquals("kind", "reaction"), want: true},
		{name: "field equals other value", d: FieldEquals("kind", "typing"), want: false},
		{name: "field equals on number", d: FieldEquals("reaction.count", "3"), want: false},
		{name: "field in", d: FieldIn("reaction.emoji", "👎", "👍"), want: true},
		{name: "field in none", d: FieldIn("reaction.emoji", "👎"), want: false},
		{name: "int equals", d: IntEquals("peer.chat_id", 10), want: true},
		{name: "int equals other", d: IntEquals("peer.chat_id", 11), want: false},
		{name: "all of", d: AllOf(HasFields("peer"), FieldEquals("kind", "reaction")), want: true},
		{name: "all of with a miss", d: AllOf(HasFields("peer"), FieldEquals("kind", "typing")), want: false},
		{name: "all of nothing", d: AllOf(), want: true},
		{name: "any of", d: AnyOf(FieldEquals("kind", "typing"), IntEquals("peer.chat_id", 10)), want: true},
		{name: "any of nothing", d: AnyOf(), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.d.Match(view); got != tt.want {
				t.Errorf("Match() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPayload(t *testing.T) {
	f := Payload(FieldEquals("reaction.emoji", "🔥"))

	tests := []struct {
		name   string
		update Update
		want   bool
	}{
		{name: "matching payload", update: &RawUpdate{Type: "reaction", Payload: json.RawMessage(`{"reaction":{"emoji":"🔥"}}`)}, want: true},
		{name: "other value", update: &RawUpdate{Type: "reaction", Payload: json.RawMessage(`{"reaction":{"emoji":"👍"}}`)}, want: false},
		{name: "empty payload", update: &RawUpdate{Type: "reaction"}, want: false},
		{name: "invalid payload", update: &RawUpdate{Type: "reaction", Payload: json.RawMessage(`{"reaction"`)}, want: false},
		{name: "not a raw update", update: &Message{Text: "🔥"}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.Evaluate(context.Background(), nil, tt.update, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPayload_InRawHolder(t *testing.T) {
	var log []string
	r := NewRouter("reactions")
	mustRegister(t, r.RawUpdate(), recordHandler(&log, "fire"),
		WithAllowedType("reaction"),
		WithFilter(Payload(FieldEquals("emoji", "🔥"))),
	)
	d := newDispatcher(t, OneRunPerEvent, r)

	updates := []*RawUpdate{
		{Type: "reaction", Payload: json.RawMessage(`{"emoji":"🔥"}`)},
		{Type: "typing", Payload: json.RawMessage(`{"emoji":"🔥"}`)},
		{Type: "reaction", Payload: json.RawMessage(`{"emoji":"👍"}`)},
	}
	for _, u := range updates {
		_, err := d.FeedUpdate(context.Background(), u)
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"fire"}, log)
}
