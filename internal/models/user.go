package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// User is a read-through copy of an account held by the user API.
type User struct {
	ID        string     `json:"_id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Role      string     `json:"role"`
	IsBlocked bool       `json:"isBlocked"`
	RiskNotes []RiskNote `json:"riskNotes,omitempty"`
}

// Status is the label shown in the status column.
func (u User) Status() string {
	if u.IsBlocked {
		return "Blocked"
	}
	return "Active"
}

// UserSummary is the user reference some endpoints embed in other records.
type UserSummary struct {
	ID    string `json:"_id,omitempty"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Profile is the caller's own account as returned by GET /profile.
type Profile struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type NoteKind int

const (
	NotePlain NoteKind = iota
	NoteStructured
)

// RiskNote is a flag reason attached to a user. The user API sends either a
// bare string or a {reason, action} object for the same field.
type RiskNote struct {
	Kind   NoteKind
	Text   string
	Reason string
	Action string
}

func PlainNote(text string) RiskNote {
	return RiskNote{Kind: NotePlain, Text: text}
}

func StructuredNote(reason, action string) RiskNote {
	return RiskNote{Kind: NoteStructured, Reason: reason, Action: action}
}

func (n *RiskNote) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*n = RiskNote{}
		return nil
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("risk note: %w", err)
		}
		*n = PlainNote(s)
		return nil
	case b[0] == '{':
		var obj struct {
			Reason string `json:"reason"`
			Action string `json:"action"`
		}
		if err := json.Unmarshal(b, &obj); err != nil {
			return fmt.Errorf("risk note: %w", err)
		}
		*n = StructuredNote(obj.Reason, obj.Action)
		return nil
	default:
		*n = PlainNote(string(b))
		return nil
	}
}

func (n RiskNote) MarshalJSON() ([]byte, error) {
	if n.Kind == NoteStructured {
		return json.Marshal(struct {
			Reason string `json:"reason"`
			Action string `json:"action,omitempty"`
		}{n.Reason, n.Action})
	}
	return json.Marshal(n.Text)
}

func (n RiskNote) String() string {
	if n.Kind != NoteStructured {
		return n.Text
	}
	if n.Action == "" {
		return n.Reason
	}
	return n.Reason + " (" + n.Action + ")"
}
