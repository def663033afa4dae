package routekit

import (
	"encoding/json"
	"fmt"
)

// Kind identifies which handler holder an Update is routed to.
type Kind uint8

// Update kinds. Every Router owns exactly one HandlerHolder per kind.
const (
	KindMessage Kind = iota
	KindEditedMessage
	KindCallbackQuery
	KindInlineQuery
	KindChosenInlineResult
	KindPoll
	KindChatMemberUpdated
	KindDeletedMessages
	KindUserStatus
	KindRawUpdate

	kindCount
)

var kindNames = [kindCount]string{
	KindMessage:            "message",
	KindEditedMessage:      "edited_message",
	KindCallbackQuery:      "callback_query",
	KindInlineQuery:        "inline_query",
	KindChosenInlineResult: "chosen_inline_result",
	KindPoll:               "poll",
	KindChatMemberUpdated:  "chat_member_updated",
	KindDeletedMessages:    "deleted_messages",
	KindUserStatus:         "user_status",
	KindRawUpdate:          "raw_update",
}

// Kinds returns every update kind in declaration order.
func Kinds() []Kind {
	kinds := make([]Kind, kindCount)
	for i := range kinds {
		kinds[i] = Kind(i)
	}
	return kinds
}

func (k Kind) String() string {
	if k < kindCount {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

func (k Kind) valid() bool { return k < kindCount }

// ParseKind returns the Kind with the given wire name.
func ParseKind(s string) (Kind, error) {
	for i, name := range kindNames {
		if name == s {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if !k.valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, uint8(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Update is one inbound event. The set of implementations is closed: only the
// payload types in this package satisfy it.
type Update interface {
	Kind() Kind
	isUpdate()
}

// User describes an account.
type User struct {
	ID        int64  `json:"id"`
	IsBot     bool   `json:"is_bot,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Username  string `json:"username,omitempty"`
}

// Chat describes a conversation.
type Chat struct {
	ID       int64  `json:"id"`
	Type     string `json:"type,omitempty"`
	Title    string `json:"title,omitempty"`
	Username string `json:"username,omitempty"`
}

// Message is a newly received message. Date and EditDate are unix seconds.
type Message struct {
	ID       int64  `json:"id"`
	Chat     *Chat  `json:"chat,omitempty"`
	From     *User  `json:"from,omitempty"`
	Date     int64  `json:"date"`
	EditDate int64  `json:"edit_date,omitempty"`
	Text     string `json:"text,omitempty"`
	Outgoing bool   `json:"outgoing,omitempty"`
}

// EditedMessage is a message that was changed after it was sent.
type EditedMessage struct {
	*Message
}

// ResolveMessage applies the one content-dependent kind rule: a message that
// carries an edit timestamp is an EditedMessage.
func ResolveMessage(m *Message) Update {
	if m != nil && m.EditDate != 0 {
		return &EditedMessage{Message: m}
	}
	return m
}

// CallbackQuery is a press on an inline keyboard button.
type CallbackQuery struct {
	ID      string   `json:"id"`
	From    *User    `json:"from,omitempty"`
	Message *Message `json:"message,omitempty"`
	Data    string   `json:"data,omitempty"`
}

// InlineQuery is a query typed in inline mode.
type InlineQuery struct {
	ID     string `json:"id"`
	From   *User  `json:"from,omitempty"`
	Query  string `json:"query"`
	Offset string `json:"offset,omitempty"`
}

// ChosenInlineResult reports which inline result a user picked.
type ChosenInlineResult struct {
	ResultID        string `json:"result_id"`
	From            *User  `json:"from,omitempty"`
	Query           string `json:"query,omitempty"`
	InlineMessageID string `json:"inline_message_id,omitempty"`
}

// PollOption is one answer of a Poll.
type PollOption struct {
	Text       string `json:"text"`
	VoterCount int    `json:"voter_count"`
}

// Poll is a poll state change.
type Poll struct {
	ID              string       `json:"id"`
	Question        string       `json:"question"`
	Options         []PollOption `json:"options,omitempty"`
	TotalVoterCount int          `json:"total_voter_count"`
	IsClosed        bool         `json:"is_closed,omitempty"`
}

// ChatMember is a user together with its membership status.
type ChatMember struct {
	User   *User  `json:"user,omitempty"`
	Status string `json:"status"`
}

// ChatMemberUpdated is a membership change in a chat.
type ChatMemberUpdated struct {
	Chat      *Chat       `json:"chat,omitempty"`
	From      *User       `json:"from,omitempty"`
	Date      int64       `json:"date"`
	OldMember *ChatMember `json:"old_member,omitempty"`
	NewMember *ChatMember `json:"new_member,omitempty"`
}

// DeletedMessages is a batch of messages deleted together.
type DeletedMessages struct {
	Messages []*Message `json:"messages"`
}

// UserStatus is a presence change of a user.
type UserStatus struct {
	User       *User  `json:"user,omitempty"`
	Status     string `json:"status"`
	LastOnline int64  `json:"last_online,omitempty"`
}

// RawUpdate is an opaque protocol update. Type names its concrete sub-kind,
// Payload holds its JSON body and Users/Chats are auxiliary entities
// referenced by the payload, keyed by id.
type RawUpdate struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Users   map[int64]*User `json:"users,omitempty"`
	Chats   map[int64]*Chat `json:"chats,omitempty"`
}

func (*Message) Kind() Kind            { return KindMessage }
func (*EditedMessage) Kind() Kind      { return KindEditedMessage }
func (*CallbackQuery) Kind() Kind      { return KindCallbackQuery }
func (*InlineQuery) Kind() Kind        { return KindInlineQuery }
func (*ChosenInlineResult) Kind() Kind { return KindChosenInlineResult }
func (*Poll) Kind() Kind               { return KindPoll }
func (*ChatMemberUpdated) Kind() Kind  { return KindChatMemberUpdated }
func (*DeletedMessages) Kind() Kind    { return KindDeletedMessages }
func (*UserStatus) Kind() Kind         { return KindUserStatus }
func (*RawUpdate) Kind() Kind          { return KindRawUpdate }

func (*Message) isUpdate()            {}
func (*EditedMessage) isUpdate()      {}
func (*CallbackQuery) isUpdate()      {}
func (*InlineQuery) isUpdate()        {}
func (*ChosenInlineResult) isUpdate() {}
func (*Poll) isUpdate()               {}
func (*ChatMemberUpdated) isUpdate()  {}
func (*DeletedMessages) isUpdate()    {}
func (*UserStatus) isUpdate()         {}
func (*RawUpdate) isUpdate()          {}
