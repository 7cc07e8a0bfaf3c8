package api

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// User identifies an actor.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Timestamp accepts the date formats the backend emits and renders RFC 3339.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseTime(raw)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339))
}

// ParseTime parses a backend date string. Empty input yields the zero time.
func ParseTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	var lastErr error
	for _, layout := range timestampLayouts {
		parsed, err := time.Parse(layout, raw)
		if err == nil {
			return parsed, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// Profile is the public profile of a user.
type Profile struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Username string `json:"username,omitempty"`
}

// Relationship is a person tracked by its owner.
type Relationship struct {
	ID               string `json:"relationship"`
	Name             string `json:"name"`
	RelationshipType string `json:"relationshipType"`
}

// Note is attached to a relationship.
type Note struct {
	ID      string `json:"note"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Task is a backend task; completion lives in ChecklistEntry.
type Task struct {
	ID          string `json:"task"`
	Description string `json:"description"`
}

// ChecklistEntry records completion of a task independently of the task.
type ChecklistEntry struct {
	Task      string `json:"task"`
	Completed bool   `json:"completed"`
}

// Occasion is a planned event owned by exactly one account.
type Occasion struct {
	ID           string    `json:"occasion"`
	Owner        UserRef   `json:"owner"`
	Person       string    `json:"person"`
	OccasionType string    `json:"occasionType"`
	Date         Timestamp `json:"date"`
}

// InviteStatus is the lifecycle state of a collaboration invite.
type InviteStatus string

const (
	InvitePending  InviteStatus = "pending"
	InviteAccepted InviteStatus = "accepted"
	InviteDeclined InviteStatus = "declined"
)

// Normalize folds case; anything unrecognised is treated as pending.
func (s InviteStatus) Normalize() InviteStatus {
	switch InviteStatus(strings.ToLower(strings.TrimSpace(string(s)))) {
	case InviteAccepted:
		return InviteAccepted
	case InviteDeclined:
		return InviteDeclined
	default:
		return InvitePending
	}
}

// Invite ties a recipient to an occasion owned by the sender.
type Invite struct {
	ID         string       `json:"invite"`
	Sender     UserRef      `json:"sender"`
	Recipient  UserRef      `json:"recipient"`
	OccasionID string       `json:"occasionId"`
	Status     InviteStatus `json:"status"`
	CreatedAt  Timestamp    `json:"createdAt"`
	UpdatedAt  Timestamp    `json:"updatedAt"`
}

func (i *Invite) UnmarshalJSON(data []byte) error {
	type alias Invite
	var aux struct {
		alias
		MongoID  string  `json:"_id"`
		Occasion UserRef `json:"occasion"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*i = Invite(aux.alias)
	if i.ID == "" {
		i.ID = aux.MongoID
	}
	if i.OccasionID == "" {
		i.OccasionID = aux.Occasion.ID
	}
	i.Status = i.Status.Normalize()
	return nil
}

// Suggestion is one generated gift idea.
type Suggestion struct {
	ID          string    `json:"suggestion"`
	Content     string    `json:"content"`
	GeneratedAt Timestamp `json:"generatedAt"`
}

// Image is a memory gallery entry.
type Image struct {
	ImageURL   string    `json:"imageUrl"`
	UploadDate Timestamp `json:"uploadDate"`
}
