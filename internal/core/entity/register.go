package entity

import (
	"time"

	"stockreturn/internal/core/id"
)

// RecordType defines movement direction for accumulation registers.
type RecordType string

const (
	// RecordTypeReceipt increases balance
	RecordTypeReceipt RecordType = "receipt"
	// RecordTypeExpense decreases balance
	RecordTypeExpense RecordType = "expense"
)

// MovementBase contains common fields for all register movements.
// Movements are append-only.
type MovementBase struct {
	// LineID is unique identifier for this movement line (UUIDv7)
	LineID id.ID `db:"line_id" json:"lineId"`

	// RecorderID is the document that created this movement
	RecorderID id.ID `db:"recorder_id" json:"recorderId"`

	// RecorderType is the document type (e.g., "goods_return")
	RecorderType string `db:"recorder_type" json:"recorderType"`

	// RecorderNumber is the human-readable number of the recorder document
	RecorderNumber string `db:"recorder_number" json:"recorderNumber"`

	// Period is the business date for the movement
	Period time.Time `db:"period" json:"period"`

	// RecordType: receipt or expense
	RecordType RecordType `db:"record_type" json:"recordType"`

	// CreatedAt is when the movement was recorded
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// NewMovementBase creates a new movement base with generated LineID.
func NewMovementBase(recorderID id.ID, recorderType, recorderNumber string, period time.Time, recordType RecordType) MovementBase {
	return MovementBase{
		LineID:         id.New(),
		RecorderID:     recorderID,
		RecorderType:   recorderType,
		RecorderNumber: recorderNumber,
		Period:         period,
		RecordType:     recordType,
		CreatedAt:      time.Now().UTC(),
	}
}
