package amqp

import (
	"encoding/json"
	"time"
)

const (
	OpUpsert = "upsert"
	OpDelete = "delete"
)

// FareSyncMessage tells the ledger worker that a fare changed. It
// carries only the id and version; the worker fetches the full record
// from the database before mirroring it.
type FareSyncMessage struct {
	ID        int64     `json:"id"`
	Version   int64     `json:"version"`
	Op        string    `json:"op"`
	Timestamp time.Time `json:"timestamp"`
}

func NewFareSyncMessage(id, version int64) *FareSyncMessage {
	return &FareSyncMessage{
		ID:        id,
		Version:   version,
		Op:        OpUpsert,
		Timestamp: time.Now(),
	}
}

func NewFareDeleteMessage(id int64) *FareSyncMessage {
	return &FareSyncMessage{
		ID:        id,
		Op:        OpDelete,
		Timestamp: time.Now(),
	}
}

func (m *FareSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func FareSyncMessageFromJSON(data []byte) (*FareSyncMessage, error) {
	var msg FareSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
