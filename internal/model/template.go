package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Template is a tenant-owned document. Items is an opaque serialized payload
// the service never interprets.
type Template struct {
	ID        string         `json:"id" gorm:"primaryKey;type:varchar(64)"`
	Title     string         `json:"title" gorm:"type:varchar(255);not null"`
	Items     string         `json:"items" gorm:"type:text"`
	TenantID  string         `json:"tenantId" gorm:"type:varchar(64);index;not null"`
	UserID    string         `json:"userId" gorm:"type:varchar(64);index;not null"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `json:"deletedAt,omitempty" gorm:"index"`

	Tenant *Tenant `json:"-" gorm:"foreignKey:TenantID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	User   *User   `json:"-" gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

// BeforeCreate assigns a UUID when the caller did not pick an id
func (t *Template) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}
