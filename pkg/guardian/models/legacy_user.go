package models

import (
	"strconv"
	"time"

	"gorm.io/gorm"
)

// LegacyUser is the single-app user shape from before multi-tenancy: one
// flat role and session state on the record itself. It is kept as its own
// table so the login flow can query both shapes and branch, rather than
// silently merging the schemas.
type LegacyUser struct {
	ID           uint           `gorm:"primarykey" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	Email        string         `gorm:"uniqueIndex;not null" json:"email"`
	Name         string         `gorm:"not null" json:"name"`
	PasswordHash string         `json:"-"`
	Status       UserStatus     `gorm:"type:varchar(20);default:'Pending'" json:"status"`
	Role         string         `json:"role"`

	Code          string     `json:"-"`
	CodeExpiresAt *time.Time `json:"-"`
	Token         string     `json:"-"`
	SessionActive bool       `gorm:"default:false" json:"is_session_active"`
	LastLogin     *time.Time `json:"last_login,omitempty"`
}

func (u *LegacyUser) PrincipalID() string       { return strconv.FormatUint(uint64(u.ID), 10) }
func (u *LegacyUser) EmailAddress() string      { return u.Email }
func (u *LegacyUser) DisplayName() string       { return u.Name }
func (u *LegacyUser) CredentialHash() string    { return u.PasswordHash }
func (u *LegacyUser) AccountStatus() UserStatus { return u.Status }

// ResolveRole ignores the requested app: legacy users carry a single role
// and access is implicitly granted for any app. Inherited behavior.
func (u *LegacyUser) ResolveRole(string) (string, bool) {
	return u.Role, true
}
