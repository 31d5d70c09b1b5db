package model

import (
	"time"

	"estatehub/internal/permission"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Admin is a console operator. Permissions are stored as jsonb and are
// ignored for SUPER_ADMIN accounts.
type Admin struct {
	ID          uuid.UUID                                  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name        string                                     `gorm:"type:varchar(255);not null" json:"name"`
	Email       string                                     `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Password    string                                     `gorm:"type:varchar(255);not null" json:"-"`
	Role        permission.Role                            `gorm:"type:varchar(20);not null;index" json:"role"`
	Permissions datatypes.JSONType[permission.Permissions] `gorm:"type:jsonb;not null" json:"permissions"`
	IsActive    bool                                       `gorm:"not null;default:true" json:"isActive"`
	LastLoginAt *time.Time                                 `json:"lastLoginAt"`
	CreatedAt   time.Time                                  `json:"createdAt"`
	UpdatedAt   time.Time                                  `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt                             `gorm:"index" json:"-"`
}

func (a Admin) Principal() permission.Principal {
	return permission.Principal{
		ID:          a.ID,
		Role:        a.Role,
		Permissions: a.Permissions.Data(),
	}
}

// AdminSession records one signed-in console session.
type AdminSession struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	AdminID      uuid.UUID `gorm:"type:uuid;not null;index" json:"adminId"`
	Admin        *Admin    `gorm:"foreignKey:AdminID;constraint:OnDelete:CASCADE" json:"admin,omitempty"`
	IPAddress    string    `gorm:"type:varchar(64)" json:"ipAddress"`
	Device       string    `gorm:"type:varchar(100)" json:"device"`
	Browser      string    `gorm:"type:varchar(100)" json:"browser"`
	OS           string    `gorm:"type:varchar(100)" json:"os"`
	LastActivity time.Time `gorm:"not null;index" json:"lastActivity"`
	IsActive     bool      `gorm:"not null;default:true;index" json:"isActive"`
	ExpiresAt    time.Time `gorm:"not null" json:"expiresAt"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Live reports whether the session can still authenticate requests.
func (s AdminSession) Live(now time.Time) bool {
	return s.IsActive && now.Before(s.ExpiresAt)
}
