package audit

import (
	"time"

	"github.com/google/uuid"
)

// Entry is one lifecycle transition of a leave request as seen by the
// lifecycle consumer.
type Entry struct {
	EventID    string    `gorm:"column:event_id;type:varchar(200);primaryKey"`
	LeaveID    uuid.UUID `gorm:"column:leave_id;type:uuid;not null"`
	RequestNo  string    `gorm:"column:request_no;type:varchar(20);not null"`
	EventType  string    `gorm:"column:event_type;type:varchar(100);not null"`
	Stage      string    `gorm:"column:stage;type:varchar(20)"`
	Status     string    `gorm:"column:status;type:varchar(30);not null"`
	OccurredAt time.Time `gorm:"column:occurred_at;type:timestamptz;not null"`
	RecordedAt time.Time `gorm:"column:recorded_at;type:timestamptz;autoCreateTime"`
}

func (Entry) TableName() string {
	return "leave_audit_entries"
}
