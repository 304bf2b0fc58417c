package models

import (
	"strconv"
	"time"

	"gorm.io/gorm"
)

// UserStatus represents a user's lifecycle state
type UserStatus string

const (
	UserStatusPending UserStatus = "Pending"
	UserStatusActive  UserStatus = "Active"
	UserStatusBlocked UserStatus = "Blocked"
)

// Principal is any identity capable of authenticating. Both user shapes
// implement it so the login flow can branch on which variant it loaded.
type Principal interface {
	PrincipalID() string
	EmailAddress() string
	DisplayName() string
	CredentialHash() string
	AccountStatus() UserStatus
	// ResolveRole returns the role name applicable to the given app and
	// whether the principal has access to that app at all.
	ResolveRole(app string) (string, bool)
}

// User is the multi-app user shape. Per-app state (role, verification
// code, session token) lives on its AppMemberships.
type User struct {
	ID           uint           `gorm:"primarykey" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	Email        string         `gorm:"uniqueIndex;not null" json:"email"`
	Name         string         `gorm:"not null" json:"name"`
	PasswordHash string         `json:"-"`
	Status       UserStatus     `gorm:"type:varchar(20);default:'Pending'" json:"status"`

	Memberships []AppMembership `gorm:"foreignKey:UserID" json:"memberships,omitempty"`
}

// AppMembership associates a user with one tenant application, carrying
// the role and per-app session state.
type AppMembership struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	AppID     uint      `gorm:"index;not null" json:"app_id"`
	AppName   string    `gorm:"not null" json:"app"`
	RoleName  string    `gorm:"not null" json:"role"`
	Status    UserStatus `gorm:"type:varchar(20);default:'Pending'" json:"status"`

	Code          string     `json:"-"`
	CodeExpiresAt *time.Time `json:"-"`
	Token         string     `json:"-"`
	SessionActive bool       `gorm:"default:false" json:"is_session_active"`
	LastLogin     *time.Time `json:"last_login,omitempty"`
}

func (u *User) PrincipalID() string        { return strconv.FormatUint(uint64(u.ID), 10) }
func (u *User) EmailAddress() string       { return u.Email }
func (u *User) DisplayName() string        { return u.Name }
func (u *User) CredentialHash() string     { return u.PasswordHash }
func (u *User) AccountStatus() UserStatus  { return u.Status }

func (u *User) ResolveRole(app string) (string, bool) {
	for _, m := range u.Memberships {
		if m.AppName == app {
			return m.RoleName, true
		}
	}
	return "", false
}

// Membership returns the membership for the given app name, if any.
func (u *User) Membership(app string) *AppMembership {
	for i := range u.Memberships {
		if u.Memberships[i].AppName == app {
			return &u.Memberships[i]
		}
	}
	return nil
}
