package routekit

import (
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
)

var codec = sonic.ConfigStd

// ErrMalformedUpdate is returned when an encoded update lacks its kind or
// body.
var ErrMalformedUpdate = errors.New("routekit: malformed update")

// EncodeUpdate serializes an update into its JSON envelope:
//
//	{"kind": "message", "update": {"id": 1, "text": "hi", ...}}
func EncodeUpdate(u Update) ([]byte, error) {
	if u == nil {
		return nil, fmt.Errorf("encode update: %w: nil update", ErrMalformedUpdate)
	}
	var body any = u
	if em, ok := u.(*EditedMessage); ok {
		body = em.Message
	}
	raw, err := codec.Marshal(struct {
		Kind   Kind `json:"kind"`
		Update any  `json:"update"`
	}{Kind: u.Kind(), Update: body})
	if err != nil {
		return nil, fmt.Errorf("encode %s update: %w", u.Kind(), err)
	}
	return raw, nil
}

// DecodeUpdate parses a JSON envelope written by EncodeUpdate. The kind is read
// with gjson before the body is decoded, so unknown kinds are rejected
// without decoding. A "message" that carries an edit_date is decoded as an
// EditedMessage.
func DecodeUpdate(raw []byte) (Update, error) {
	view, err := JSONInspector().Inspect(raw)
	if err != nil {
		return nil, fmt.Errorf("decode update: %w", err)
	}
	name, ok := view.GetString("kind")
	if !ok {
		return nil, fmt.Errorf("decode update: %w: missing kind", ErrMalformedUpdate)
	}
	kind, err := ParseKind(name)
	if err != nil {
		return nil, fmt.Errorf("decode update: %w", err)
	}
	body, ok := view.GetBytes("update")
	if !ok {
		return nil, fmt.Errorf("decode %s update: %w: missing body", kind, ErrMalformedUpdate)
	}

	u, err := decodeBody(kind, body)
	if err != nil {
		return nil, fmt.Errorf("decode %s update: %w", kind, err)
	}
	return u, nil
}

func decodeBody(kind Kind, body []byte) (Update, error) {
	switch kind {
	case KindMessage:
		var m Message
		if err := codec.Unmarshal(body, &m); err != nil {
			return nil, err
		}
		return ResolveMessage(&m), nil
	case KindEditedMessage:
		var m Message
		if err := codec.Unmarshal(body, &m); err != nil {
			return nil, err
		}
		return &EditedMessage{Message: &m}, nil
	case KindCallbackQuery:
		return unmarshalInto(body, &CallbackQuery{})
	case KindInlineQuery:
		return unmarshalInto(body, &InlineQuery{})
	case KindChosenInlineResult:
		return unmarshalInto(body, &ChosenInlineResult{})
	case KindPoll:
		return unmarshalInto(body, &Poll{})
	case KindChatMemberUpdated:
		return unmarshalInto(body, &ChatMemberUpdated{})
	case KindDeletedMessages:
		return unmarshalInto(body, &DeletedMessages{})
	case KindUserStatus:
		return unmarshalInto(body, &UserStatus{})
	case KindRawUpdate:
		return unmarshalInto(body, &RawUpdate{})
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownKind, uint8(kind))
}

func unmarshalInto[T Update](body []byte, u T) (Update, error) {
	if err := codec.Unmarshal(body, u); err != nil {
		return nil, err
	}
	return u, nil
}
