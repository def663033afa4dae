package routekit

import (
	"context"
	"testing"
)

func TestBuiltinFilters(t *testing.T) {
	alice := &User{ID: 1}
	group := &Chat{ID: -100}
	msg := &Message{Text: "/Start@my_bot payload", From: alice, Chat: group}

	tests := []struct {
		name   string
		filter Filter
		update Update
		want   bool
	}{
		{name: "text matches", filter: Text("hi", "hello"), update: &Message{Text: "hello"}, want: true},
		{name: "text differs", filter: Text("hi"), update: &Message{Text: "hi!"}, want: false},
		{name: "text on edited message", filter: Text("hi"), update: &EditedMessage{Message: &Message{Text: "hi", EditDate: 1}}, want: true},
		{name: "text ignores callbacks", filter: Text("hi"), update: &CallbackQuery{Data: "hi"}, want: false},
		{name: "command with bot name and args", filter: Command("start"), update: msg, want: true},
		{name: "command custom prefix", filter: Command("ping", "!", "."), update: &Message{Text: ".ping"}, want: true},
		{name: "command wrong prefix", filter: Command("ping"), update: &Message{Text: "!ping"}, want: false},
		{name: "command prefix of word", filter: Command("start"), update: &Message{Text: "/starting"}, want: false},
		{name: "command on empty text", filter: Command("start"), update: &Message{}, want: false},
		{name: "from user", filter: FromUsers(1, 2), update: msg, want: true},
		{name: "from other user", filter: FromUsers(2), update: msg, want: false},
		{name: "from user on callback", filter: FromUsers(1), update: &CallbackQuery{From: alice}, want: true},
		{name: "from user on status", filter: FromUsers(1), update: &UserStatus{User: alice}, want: true},
		{name: "from without sender", filter: FromUsers(1), update: &Message{}, want: false},
		{name: "from on poll", filter: FromUsers(1), update: &Poll{}, want: false},
		{name: "in chat", filter: InChats(-100), update: msg, want: true},
		{name: "in other chat", filter: InChats(5), update: msg, want: false},
		{name: "in chat via callback message", filter: InChats(-100), update: &CallbackQuery{Message: msg}, want: true},
		{name: "in chat on membership change", filter: InChats(-100), update: &ChatMemberUpdated{Chat: group}, want: true},
		{name: "in chat without chat", filter: InChats(-100), update: &InlineQuery{}, want: false},
		{name: "from on nil message", filter: FromUsers(1), update: (*Message)(nil), want: false},
		{name: "from on nil edited message", filter: FromUsers(1), update: (*EditedMessage)(nil), want: false},
		{name: "from on nil callback", filter: FromUsers(1), update: (*CallbackQuery)(nil), want: false},
		{name: "from on nil status", filter: FromUsers(1), update: (*UserStatus)(nil), want: false},
		{name: "in chat on nil callback", filter: InChats(-100), update: (*CallbackQuery)(nil), want: false},
		{name: "in chat on nil membership change", filter: InChats(-100), update: (*ChatMemberUpdated)(nil), want: false},
		{name: "text on nil edited message", filter: Text(""), update: (*EditedMessage)(nil), want: false},
		{name: "command on nil message", filter: Command("start"), update: (*Message)(nil), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.filter.Evaluate(context.Background(), nil, tt.update, nil)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Evaluate() = %v, want %v", got, tt.want)
			}
		})
	}
}
