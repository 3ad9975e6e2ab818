package amqp

import (
	"time"

	jsoniter "github.com/json-iterator/go"

	"washlog/internal/core"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// WashRegisteredMessage is published after a wash has been stored.
type WashRegisteredMessage struct {
	Date      string    `json:"date"`
	Time      string    `json:"time"`
	Month     string    `json:"month"`
	Note      string    `json:"note,omitempty"`
	Count     int       `json:"count"`
	Timestamp time.Time `json:"timestamp"`
}

// NewWashRegisteredMessage builds the event for a stored record and the
// running total after it.
func NewWashRegisteredMessage(rec core.WashRecord, count int) *WashRegisteredMessage {
	return &WashRegisteredMessage{
		Date:      rec.Date,
		Time:      rec.Time,
		Month:     rec.Month,
		Note:      rec.Note,
		Count:     count,
		Timestamp: time.Now(),
	}
}

// Record returns the wash the event describes.
func (m *WashRegisteredMessage) Record() core.WashRecord {
	return core.WashRecord{Date: m.Date, Time: m.Time, Month: m.Month, Note: m.Note}
}

// ToJSON converts the message to JSON bytes
func (m *WashRegisteredMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// WashRegisteredMessageFromJSON creates a message from JSON bytes
func WashRegisteredMessageFromJSON(data []byte) (*WashRegisteredMessage, error) {
	var msg WashRegisteredMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
