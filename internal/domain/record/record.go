package record

import (
	"time"

	"github.com/google/uuid"
)

type RecordType string

const (
	TypeConsultationNote RecordType = "consultation_note"
	TypeLabReport        RecordType = "lab_report"
	TypeProgressNote     RecordType = "progress_note"
)

func (t RecordType) IsValid() bool {
	switch t {
	case TypeConsultationNote, TypeLabReport, TypeProgressNote:
		return true
	}
	return false
}

// Once created, records cannot be deleted or edited; corrections go through
// addenda.
type ClinicalRecord struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`

	PatientID     uuid.UUID  `gorm:"column:patient_id;type:uuid;not null;index"`
	AppointmentID *uuid.UUID `gorm:"column:appointment_id;type:uuid;index"`
	DoctorID      uuid.UUID  `gorm:"column:doctor_id;type:uuid;not null;index"`

	Type RecordType `gorm:"column:type;type:varchar(50);not null;index"`

	Diagnoses []string `gorm:"column:diagnoses;serializer:json"`
	Notes     string   `gorm:"column:notes;type:text"`

	// Addenda: corrections appended without modifying original
	Addenda []Addendum `gorm:"foreignKey:RecordID"`

	CreatedBy uuid.UUID `gorm:"column:created_by;type:uuid;not null"`
}

func (ClinicalRecord) TableName() string {
	return "clinical.records"
}

// Addendum is an append-only correction to an existing clinical record.
type Addendum struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	RecordID  uuid.UUID `gorm:"column:record_id;type:uuid;not null;index"`
	Content   string    `gorm:"column:content;type:text;not null"`
	CreatedBy uuid.UUID `gorm:"column:created_by;type:uuid;not null"`
}

func (Addendum) TableName() string {
	return "clinical.record_addenda"
}

type CreateRecordCommand struct {
	PatientID     uuid.UUID
	AppointmentID *uuid.UUID
	DoctorID      uuid.UUID
	Type          RecordType
	Diagnoses     []string
	Notes         string
	CreatedBy     uuid.UUID
}

type AddAddendumCommand struct {
	RecordID  uuid.UUID
	Content   string
	CreatedBy uuid.UUID
}

type ListRecordsQuery struct {
	PatientID     *uuid.UUID
	DoctorID      *uuid.UUID
	Type          *RecordType
	AppointmentID *uuid.UUID
	Page          int
	PageSize      int
}

type PagedRecords struct {
	Records    []*ClinicalRecord
	TotalCount int64
	Page       int
	PageSize   int
	TotalPages int
}
