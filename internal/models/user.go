package models

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string

const (
	RoleBasic UserRole = "BASIC"
	RoleAdmin UserRole = "ADMIN"
)

// Rank orders roles so a higher role satisfies a lower requirement.
func (r UserRole) Rank() int {
	switch r {
	case RoleAdmin:
		return 2
	case RoleBasic:
		return 1
	default:
		return 0
	}
}

// Satisfies reports whether r meets the minimum role.
func (r UserRole) Satisfies(min UserRole) bool {
	return r.Rank() > 0 && r.Rank() >= min.Rank()
}

func (r UserRole) Valid() bool {
	return r == RoleBasic || r == RoleAdmin
}

type User struct {
	ID         uint     `json:"id" gorm:"primaryKey"`
	EmployeeID string   `json:"employee_id" gorm:"uniqueIndex;not null;size:50"`
	FullName   string   `json:"full_name" gorm:"not null;size:150"`
	Role       UserRole `json:"role" gorm:"not null;size:10;default:BASIC;index"`

	// Sealed with security.FieldCipher; plaintext never touches the table.
	EmailEnc  *string `json:"-" gorm:"column:email;type:text"`
	MobileEnc *string `json:"-" gorm:"column:mobile;type:text"`

	// nil means the account is pending and cannot log in.
	PasswordHash *string `json:"-" gorm:"size:255"`

	LinkedParentID *uint `json:"linked_parent_id,omitempty" gorm:"index"`

	TeamID            *uint   `json:"team_id,omitempty" gorm:"index"`
	DesignationID     *uint   `json:"designation_id,omitempty" gorm:"index"`
	LocationID        *uint   `json:"location_id,omitempty" gorm:"index"`
	PreferredLanguage *string `json:"preferred_language,omitempty" gorm:"size:5"`

	LastLoginAt *time.Time     `json:"last_login_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`

	Team        *Team        `json:"team,omitempty" gorm:"foreignKey:TeamID"`
	Designation *Designation `json:"designation,omitempty" gorm:"foreignKey:DesignationID"`
	Location    *Location    `json:"location,omitempty" gorm:"foreignKey:LocationID"`
}

func (User) TableName() string {
	return "users"
}

// IsPending reports whether no password has been set yet.
func (u *User) IsPending() bool {
	return u.PasswordHash == nil || *u.PasswordHash == ""
}

// IsShadow reports whether the account is a test account owned by an admin.
func (u *User) IsShadow() bool {
	return u.LinkedParentID != nil
}

// UserProfile is the decrypted view of a user returned to callers.
type UserProfile struct {
	ID                uint       `json:"id"`
	EmployeeID        string     `json:"employee_id"`
	FullName          string     `json:"full_name"`
	Role              UserRole   `json:"role"`
	Email             *string    `json:"email,omitempty"`
	Mobile            *string    `json:"mobile,omitempty"`
	Pending           bool       `json:"pending"`
	Shadow            bool       `json:"shadow"`
	LinkedParentID    *uint      `json:"linked_parent_id,omitempty"`
	TeamID            *uint      `json:"team_id,omitempty"`
	TeamName          string     `json:"team_name,omitempty"`
	DesignationID     *uint      `json:"designation_id,omitempty"`
	DesignationName   string     `json:"designation_name,omitempty"`
	LocationID        *uint      `json:"location_id,omitempty"`
	LocationName      string     `json:"location_name,omitempty"`
	PreferredLanguage *string    `json:"preferred_language,omitempty"`
	LastLoginAt       *time.Time `json:"last_login_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}
