package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// StringList stores an ordered string slice as a JSON column.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		l = StringList{}
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = StringList{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("unsupported type for StringList: %T", value)
	}
}

// Contains reports whether s is an element of the list.
func (l StringList) Contains(s string) bool {
	for _, e := range l {
		if e == s {
			return true
		}
	}
	return false
}

// Role is a permission bundle scoped to one application. The (name,
// app_id) pair is unique; lookups use the same key. Only the owning admin
// may mutate or delete a role. Soft-delete flips is_active.
type Role struct {
	ID          uint           `gorm:"primarykey" json:"id"`
	CreatedAt   time.Time      `json:"creation_date"`
	UpdatedAt   time.Time      `json:"mod_date"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	Name        string         `gorm:"uniqueIndex:idx_role_name_app;not null" json:"name"`
	AppID       uint           `gorm:"uniqueIndex:idx_role_name_app;not null" json:"app_id"`
	Description string         `json:"description"`
	Permissions StringList     `gorm:"type:text" json:"permissions"`
	Screens     StringList     `gorm:"type:text" json:"screens"`
	IsActive    bool           `gorm:"default:true" json:"is_active"`
	IsDefault   bool           `gorm:"default:false" json:"default_role"`
	AdminID     uint           `gorm:"index;not null" json:"admin_id"`
}
