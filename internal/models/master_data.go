package models

import "time"

// MasterDataKind names one of the lookup tables users reference.
type MasterDataKind string

const (
	KindTeam        MasterDataKind = "teams"
	KindDesignation MasterDataKind = "designations"
	KindLocation    MasterDataKind = "locations"
)

func (k MasterDataKind) Valid() bool {
	switch k {
	case KindTeam, KindDesignation, KindLocation:
		return true
	}
	return false
}

type Team struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"uniqueIndex;not null;size:100"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Team) TableName() string { return "teams" }

type Designation struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"uniqueIndex;not null;size:100"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Designation) TableName() string { return "designations" }

type Location struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"uniqueIndex;not null;size:100"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Location) TableName() string { return "locations" }

// MasterDataItem is the kind-agnostic shape returned by list endpoints.
type MasterDataItem struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	UserCount int64     `json:"user_count"`
	CreatedAt time.Time `json:"created_at"`
}
