package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	ActionLogin  = "LOGIN"
	ActionLogout = "LOGOUT"

	ActionApproveProperty  = "APPROVE_PROPERTY"
	ActionRejectProperty   = "REJECT_PROPERTY"
	ActionRequestEdit      = "REQUEST_PROPERTY_EDIT"
	ActionRevertProperty   = "REVERT_PROPERTY_REVIEW"
	ActionUpdateProperty   = "UPDATE_PROPERTY"
	ActionDeleteProperty   = "DELETE_PROPERTY"
	ActionCreateAdmin      = "CREATE_ADMIN"
	ActionUpdateAdmin      = "UPDATE_ADMIN"
	ActionDeleteAdmin      = "DELETE_ADMIN"
	ActionTerminateSession = "TERMINATE_SESSION"

	ActionUpdateAppointment = "UPDATE_APPOINTMENT"
	ActionDeleteAppointment = "DELETE_APPOINTMENT"
)

// AdminActivity tracks who did what and when in the admin console. Rows are
// written in the same transaction as the change they describe.
type AdminActivity struct {
	ID         uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	AdminID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"adminId"`
	Admin      *Admin         `gorm:"foreignKey:AdminID" json:"admin,omitempty"`
	Action     string         `gorm:"type:varchar(50);not null;index" json:"action"`
	Module     string         `gorm:"type:varchar(30);index" json:"module"`
	EntityID   string         `gorm:"type:varchar(50);index" json:"entityId"`
	EntityName string         `gorm:"type:varchar(255)" json:"entityName,omitempty"`
	Details    datatypes.JSON `gorm:"type:jsonb" json:"details"`
	IPAddress  string         `gorm:"type:varchar(64)" json:"ipAddress"`
	CreatedAt  time.Time      `gorm:"index" json:"createdAt"`
}
