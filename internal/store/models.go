package store

import (
	"time"

	"gorm.io/datatypes"
)

// GORM models used for persistence.
type UserModel struct {
	ID             uint   `gorm:"primaryKey"`
	Email          string `gorm:"uniqueIndex;not null"`
	PasswordHash   string `gorm:"not null"`
	Name           string
	Bio            string `gorm:"type:text"`
	ProfilePhoto   string
	Role           string    `gorm:"not null;default:user"`
	Plan           string    `gorm:"not null;default:Free"`
	AIUsageCount   int       `gorm:"not null;default:0"`
	YouTubeChannel string    `gorm:"column:youtube_channel"`
	CreatedAt      time.Time `gorm:"not null"`
}

func (UserModel) TableName() string { return "users" }

type NoteModel struct {
	ID             uint   `gorm:"primaryKey"`
	UserID         uint   `gorm:"not null;index"`
	Title          string `gorm:"not null"`
	Content        string `gorm:"type:text;not null"`
	IsSecret       bool   `gorm:"not null;default:false"`
	SecretPassword string
	Kind           string    `gorm:"column:type;not null;default:note"`
	CreatedAt      time.Time `gorm:"not null;index"`
}

func (NoteModel) TableName() string { return "notes" }

type ActivityModel struct {
	ID        uint           `gorm:"primaryKey"`
	UserID    uint           `gorm:"not null;index"`
	Action    string         `gorm:"not null"`
	Details   string         `gorm:"type:text"`
	Metadata  datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt time.Time      `gorm:"not null;index"`
}

func (ActivityModel) TableName() string { return "activities" }

type FriendLinkModel struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uint      `gorm:"not null;index;uniqueIndex:idx_friend_pair"`
	FriendID  uint      `gorm:"not null;index;uniqueIndex:idx_friend_pair"`
	Status    string    `gorm:"not null;default:pending"`
	CreatedAt time.Time `gorm:"not null"`
}

func (FriendLinkModel) TableName() string { return "friend_links" }

// SchemaMigrationModel records applied migration versions.
type SchemaMigrationModel struct {
	Version   int       `gorm:"primaryKey"`
	Name      string    `gorm:"not null"`
	AppliedAt time.Time `gorm:"not null"`
}

func (SchemaMigrationModel) TableName() string { return "schema_migrations" }
