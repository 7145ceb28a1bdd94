package source

import (
	"encoding/json"
	"strings"
	"time"
)

// Message is one immutable entry of the remote message log.
type Message struct {
	ID        string
	Body      string
	Author    string
	CreatedAt time.Time
}

// NewMessage is the payload sent to append a message. The backend assigns the
// id and timestamp.
type NewMessage struct {
	Body   string `json:"message"`
	Author string `json:"author"`
}

type wireMessage struct {
	ID        string    `json:"id"`
	MongoID   string    `json:"_id"`
	Body      string    `json:"message"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"createdAt"`
}

// UnmarshalJSON accepts both "id" and "_id" for the identifier.
func (m *Message) UnmarshalJSON(data []byte) error {
	var wire wireMessage
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	id := strings.TrimSpace(wire.ID)
	if id == "" {
		id = strings.TrimSpace(wire.MongoID)
	}
	*m = Message{
		ID:        id,
		Body:      wire.Body,
		Author:    wire.Author,
		CreatedAt: wire.CreatedAt,
	}
	return nil
}

// MarshalJSON writes the canonical wire shape using "id".
func (m Message) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID        string    `json:"id"`
		Body      string    `json:"message"`
		Author    string    `json:"author"`
		CreatedAt time.Time `json:"createdAt"`
	}{m.ID, m.Body, m.Author, m.CreatedAt})
}
