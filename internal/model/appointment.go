package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AppointmentStatus string

const (
	AppointmentPending   AppointmentStatus = "PENDING"
	AppointmentConfirmed AppointmentStatus = "CONFIRMED"
	AppointmentCancelled AppointmentStatus = "CANCELLED"
	AppointmentCompleted AppointmentStatus = "COMPLETED"
	AppointmentNoShow    AppointmentStatus = "NO_SHOW"
)

func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentPending, AppointmentConfirmed, AppointmentCancelled, AppointmentCompleted, AppointmentNoShow:
		return true
	}
	return false
}

// Appointment is a viewing or consultation request from a visitor.
type Appointment struct {
	ID          uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	PropertyID  *uuid.UUID        `gorm:"type:uuid;index" json:"propertyId"`
	Property    *PropertyListing  `gorm:"foreignKey:PropertyID" json:"property,omitempty"`
	Name        string            `gorm:"type:varchar(255);not null" json:"name"`
	Email       string            `gorm:"type:varchar(255);not null" json:"email"`
	Phone       string            `gorm:"type:varchar(30);not null" json:"phone"`
	PreferredAt time.Time         `gorm:"not null" json:"preferredAt"`
	Message     string            `gorm:"type:text" json:"message"`
	Status      AppointmentStatus `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	CreatedAt   time.Time         `gorm:"index" json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt    `gorm:"index" json:"-"`
}
