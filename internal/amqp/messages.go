package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"kharcha/internal/core"
)

// RecordCreatedMessage announces that a record was stored. It carries only
// the kind and ID; consumers load the full record themselves.
type RecordCreatedMessage struct {
	Kind      core.RecordKind `json:"kind"`
	ID        int64           `json:"id"`
	Month     string          `json:"month,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

func NewRecordCreatedMessage(kind core.RecordKind, id int64, month core.Month) *RecordCreatedMessage {
	msg := &RecordCreatedMessage{Kind: kind, ID: id, Timestamp: time.Now().UTC()}
	if !month.IsZero() {
		msg.Month = month.String()
	}
	return msg
}

func (m *RecordCreatedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RecordCreatedMessageFromJSON decodes and checks a message body.
func RecordCreatedMessageFromJSON(data []byte) (*RecordCreatedMessage, error) {
	var msg RecordCreatedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	kind, err := core.ParseRecordKind(string(msg.Kind))
	if err != nil {
		return nil, err
	}
	msg.Kind = kind
	if msg.ID <= 0 {
		return nil, fmt.Errorf("invalid record id %d", msg.ID)
	}
	return &msg, nil
}
