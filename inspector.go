package routekit

import (
	"errors"

	"github.com/tidwall/gjson"
)

// ErrInvalidJSON is returned when a payload or an encoded update is not valid
// JSON.
var ErrInvalidJSON = errors.New("routekit: invalid JSON")

// Inspector examines raw bytes and returns a View for field queries without
// decoding them into a Go value. Raw updates carry JSON payloads, so
// JSONInspector is the default; other formats can plug in their own.
type Inspector interface {
	Inspect(raw []byte) (View, error)
}

// View provides format-agnostic read access to the fields of a payload.
// Paths use dot notation ("message.chat.id").
type View interface {
	// HasField returns true if the path exists in the payload.
	HasField(path string) bool

	// GetString returns the string value at path, or false if not found
	// or not a string.
	GetString(path string) (string, bool)

	// GetInt returns the integer value at path, or false if not found or
	// not a number.
	GetInt(path string) (int64, bool)

	// GetBytes returns the raw bytes at path, or false if not found.
	// For JSON, this returns the raw JSON value (including quotes for strings).
	GetBytes(path string) ([]byte, bool)
}

// JSONInspector returns an Inspector backed by gjson.
func JSONInspector() Inspector {
	return jsonInspector{}
}

type jsonInspector struct{}

func (jsonInspector) Inspect(raw []byte) (View, error) {
	if !gjson.ValidBytes(raw) {
		return nil, ErrInvalidJSON
	}
	return jsonView{raw: raw}, nil
}

type jsonView struct {
	raw []byte
}

func (v jsonView) get(path string) (gjson.Result, bool) {
	r := gjson.GetBytes(v.raw, path)
	return r, r.Exists()
}

func (v jsonView) HasField(path string) bool {
	_, ok := v.get(path)
	return ok
}

func (v jsonView) GetString(path string) (string, bool) {
	r, ok := v.get(path)
	if !ok || r.Type != gjson.String {
		return "", false
	}
	return r.Str, true
}

func (v jsonView) GetInt(path string) (int64, bool) {
	r, ok := v.get(path)
	if !ok || r.Type != gjson.Number {
		return 0, false
	}
	return r.Int(), true
}

func (v jsonView) GetBytes(path string) ([]byte, bool) {
	r, ok := v.get(path)
	if !ok {
		return nil, false
	}
	return []byte(r.Raw), true
}
