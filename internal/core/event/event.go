package event

import (
	"encoding/json"
	"time"

	"github.com/vehicletag/registration-node/internal/pubsub"
)

const (
	StageRecordedEvent = "stageRecordedEvent" // StageRecordedEvent stage transition recorded
)

// StageRecorded defines the stageRecorded data
type StageRecorded struct {
	RegistrationID string            `json:"registrationId"`
	Stage          string            `json:"stage"`
	Status         string            `json:"status"`
	SessionID      string            `json:"sessionId,omitempty"`
	Data           map[string]string `json:"data,omitempty"`
	Timestamp      time.Time         `json:"timestamp"`
}

// Marshal marshals the event into a pubsub.Message
func (ev *StageRecorded) Marshal() (msg pubsub.Message, err error) {
	return json.Marshal(ev)
}

// Unmarshal creates an event from that message
func (ev *StageRecorded) Unmarshal(msg pubsub.Message) error {
	return json.Unmarshal(msg, &ev)
}
