package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

// ErrNoIdentifier is returned when a payload value names no user id.
var ErrNoIdentifier = errors.New("no user identifier in value")

// UserRef is a user as the backend happens to send it: a bare id string,
// an object with id/_id/user, or an object that only carries a username.
type UserRef struct {
	ID       string
	Username string
}

func (r *UserRef) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*r = UserRef{}
		return nil
	}
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*r = refFrom(v)
	return nil
}

func (r UserRef) MarshalJSON() ([]byte, error) {
	if r.ID == "" && r.Username != "" {
		return json.Marshal(map[string]string{"username": r.Username})
	}
	return json.Marshal(r.ID)
}

// Resolve returns the user id or ErrNoIdentifier.
func (r UserRef) Resolve() (string, error) {
	if r.ID == "" {
		return "", ErrNoIdentifier
	}
	return r.ID, nil
}

func (r UserRef) IsZero() bool { return r.ID == "" && r.Username == "" }

// Matches reports whether the reference points at u. Ids win over usernames.
func (r UserRef) Matches(u User) bool {
	if r.ID != "" {
		return r.ID == u.ID
	}
	return r.Username != "" && r.Username == u.Username
}

// Display is the best human label available for the reference.
func (r UserRef) Display() string {
	if r.Username != "" {
		return r.Username
	}
	return r.ID
}

// ResolveUserID extracts a user id from any value the backend may send.
func ResolveUserID(v interface{}) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", ErrNoIdentifier
	case User:
		return UserRef{ID: t.ID}.Resolve()
	case *User:
		if t == nil {
			return "", ErrNoIdentifier
		}
		return UserRef{ID: t.ID}.Resolve()
	case UserRef:
		return t.Resolve()
	case *UserRef:
		if t == nil {
			return "", ErrNoIdentifier
		}
		return t.Resolve()
	case json.RawMessage:
		var ref UserRef
		if err := json.Unmarshal(t, &ref); err != nil {
			return "", ErrNoIdentifier
		}
		return ref.Resolve()
	default:
		return refFrom(v).Resolve()
	}
}

func refFrom(v interface{}) UserRef {
	switch t := v.(type) {
	case string:
		return UserRef{ID: strings.TrimSpace(t)}
	case float64:
		return UserRef{ID: strconv.FormatFloat(t, 'f', -1, 64)}
	case map[string]interface{}:
		var ref UserRef
		for _, key := range []string{"id", "_id", "user"} {
			switch field := t[key].(type) {
			case string:
				if s := strings.TrimSpace(field); s != "" && ref.ID == "" {
					ref.ID = s
				}
			case map[string]interface{}:
				nested := refFrom(field)
				if ref.ID == "" {
					ref.ID = nested.ID
				}
				if ref.Username == "" {
					ref.Username = nested.Username
				}
			}
		}
		if s, ok := t["username"].(string); ok && ref.Username == "" {
			ref.Username = strings.TrimSpace(s)
		}
		return ref
	}
	return UserRef{}
}
