package domain

import (
	"time"

	"github.com/google/uuid"
)

// StageStatus is the state of one stage record.
type StageStatus string

// Stage record statuses
const (
	StageStatusStarted    StageStatus = "started"
	StageStatusInProgress StageStatus = "in-progress"
	StageStatusCompleted  StageStatus = "completed"
	StageStatusRejected   StageStatus = "rejected"
	StageStatusPending    StageStatus = "pending"
)

// Form data keys the store denormalizes into indexing columns.
const (
	DataKeyMobileNo  = "mobileNo"
	DataKeyVehicleNo = "vehicleNo"
)

// StageRecord is one recorded stage write. It is embedded in the aggregate,
// where a later write to the same stage replaces it, and duplicated into the
// stage event log, which keeps every historical write.
type StageRecord struct {
	Stage     Stage             `json:"stage"`
	Status    StageStatus       `json:"status"`
	Data      map[string]string `json:"data,omitempty"`
	SessionID string            `json:"sessionId,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// Registration is the merged aggregate for one registration attempt across
// all workflow stages.
type Registration struct {
	ID              uuid.UUID
	CurrentStage    Stage
	Stages          map[Stage]StageRecord
	MobileNo        string
	VehicleNo       string
	IsAuthenticated bool
	UserID          string
	UserName        string
	UserEmail       string
	Uploads         UploadSet
	StartedAt       time.Time
	UpdatedAt       time.Time
}

// NewRegistration creates an aggregate for a fresh attempt with the given
// stage as its first record.
func NewRegistration(rec StageRecord, now time.Time) *Registration {
	r := &Registration{
		ID:        uuid.New(),
		Stages:    make(map[Stage]StageRecord),
		Uploads:   NewUploadSet(),
		StartedAt: now,
		UpdatedAt: now,
	}
	r.MergeStage(rec, now)
	return r
}

// MergeStage merges a stage write into the aggregate. The record replaces any
// previous record for the same stage name; records of other stages are never
// touched.
func (r *Registration) MergeStage(rec StageRecord, now time.Time) {
	if r.Stages == nil {
		r.Stages = make(map[Stage]StageRecord)
	}
	r.Stages[rec.Stage] = rec
	r.CurrentStage = rec.Stage
	r.UpdatedAt = now
	r.backfill(rec.Data)
}

// AttachUser sets the authenticated identity fields once. An aggregate is
// never downgraded back to anonymous.
func (r *Registration) AttachUser(u User) {
	if r.IsAuthenticated {
		return
	}
	if u.ID == "" {
		return
	}
	r.IsAuthenticated = true
	r.UserID = u.ID
	r.UserName = u.DisplayName
	r.UserEmail = u.Email
}

// backfill populates the denormalized indexing fields, first write wins.
func (r *Registration) backfill(data map[string]string) {
	if data == nil {
		return
	}
	if r.MobileNo == "" {
		r.MobileNo = data[DataKeyMobileNo]
	}
	if r.VehicleNo == "" {
		r.VehicleNo = data[DataKeyVehicleNo]
	}
}
