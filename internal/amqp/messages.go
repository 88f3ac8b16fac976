package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// RecordKind names the table a change event refers to.
type RecordKind string

const (
	KindBet   RecordKind = "bet"
	KindTrade RecordKind = "trade"
)

func (k RecordKind) IsValid() bool {
	return k == KindBet || k == KindTrade
}

// Op is the mutation that produced a change event.
type Op string

const (
	OpCreate     Op = "create"
	OpUpdate     Op = "update"
	OpDelete     Op = "delete"
	OpBulkUpdate Op = "bulk_update"
	OpBulkDelete Op = "bulk_delete"
)

// RecordChanged tells consumers that records of one kind were written.
// It carries ids only; consumers re-read the table they care about.
type RecordChanged struct {
	Kind      RecordKind `json:"kind"`
	Op        Op         `json:"op"`
	IDs       []int64    `json:"ids"`
	Timestamp time.Time  `json:"timestamp"`
}

// NewRecordChanged creates an event stamped with the current time.
func NewRecordChanged(kind RecordKind, op Op, ids ...int64) RecordChanged {
	return RecordChanged{
		Kind:      kind,
		Op:        op,
		IDs:       ids,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m RecordChanged) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RecordChangedFromJSON decodes and validates an event body.
func RecordChangedFromJSON(data []byte) (RecordChanged, error) {
	var msg RecordChanged
	if err := json.Unmarshal(data, &msg); err != nil {
		return RecordChanged{}, err
	}
	if !msg.Kind.IsValid() {
		return RecordChanged{}, fmt.Errorf("unknown record kind %q", msg.Kind)
	}
	return msg, nil
}
