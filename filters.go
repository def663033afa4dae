package routekit

import (
	"context"
	"slices"
	"strings"
)

// Text matches messages and edited messages whose text equals one of texts.
func Text(texts ...string) Filter {
	return NewFilter(func(_ context.Context, _ Client, u Update, _ Deps) (bool, error) {
		m := messageOf(u)
		return m != nil && slices.Contains(texts, m.Text), nil
	})
}

// Command matches messages starting with a command such as "/start",
// "/start payload" or "/start@my_bot". The command name is compared case
// insensitively. Without prefixes "/" is used.
func Command(name string, prefixes ...string) Filter {
	if len(prefixes) == 0 {
		prefixes = []string{"/"}
	}
	return NewFilter(func(_ context.Context, _ Client, u Update, _ Deps) (bool, error) {
		m := messageOf(u)
		if m == nil {
			return false, nil
		}
		word, _, _ := strings.Cut(m.Text, " ")
		word, _, _ = strings.Cut(word, "@")
		for _, p := range prefixes {
			if cmd, ok := strings.CutPrefix(word, p); ok && strings.EqualFold(cmd, name) {
				return true, nil
			}
		}
		return false, nil
	})
}

// FromUsers matches updates sent by one of the given user ids.
func FromUsers(ids ...int64) Filter {
	return NewFilter(func(_ context.Context, _ Client, u Update, _ Deps) (bool, error) {
		user := senderOf(u)
		return user != nil && slices.Contains(ids, user.ID), nil
	})
}

// InChats matches updates that happened in one of the given chat ids.
func InChats(ids ...int64) Filter {
	return NewFilter(func(_ context.Context, _ Client, u Update, _ Deps) (bool, error) {
		chat := chatOf(u)
		return chat != nil && slices.Contains(ids, chat.ID), nil
	})
}

// The accessors below tolerate typed nil updates.

func messageOf(u Update) *Message {
	switch v := u.(type) {
	case *Message:
		return v
	case *EditedMessage:
		if v != nil {
			return v.Message
		}
	}
	return nil
}

func senderOf(u Update) *User {
	switch v := u.(type) {
	case *CallbackQuery:
		if v != nil {
			return v.From
		}
	case *InlineQuery:
		if v != nil {
			return v.From
		}
	case *ChosenInlineResult:
		if v != nil {
			return v.From
		}
	case *ChatMemberUpdated:
		if v != nil {
			return v.From
		}
	case *UserStatus:
		if v != nil {
			return v.User
		}
	default:
		if m := messageOf(u); m != nil {
			return m.From
		}
	}
	return nil
}

func chatOf(u Update) *Chat {
	switch v := u.(type) {
	case *ChatMemberUpdated:
		if v != nil {
			return v.Chat
		}
	case *CallbackQuery:
		if v != nil && v.Message != nil {
			return v.Message.Chat
		}
	default:
		if m := messageOf(u); m != nil {
			return m.Chat
		}
	}
	return nil
}
