package models

import "time"

// Profile is created on first sign-in and carries the privilege flag.
type Profile struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	Email     string    `json:"email" gorm:"uniqueIndex;not null"`
	Username  string    `json:"username"`
	FullName  string    `json:"fullName"`
	AvatarURL string    `json:"avatarUrl"`
	Password  *string   `json:"-"`
	GoogleID  *string   `json:"-" gorm:"uniqueIndex"`
	Provider  string    `json:"provider" gorm:"type:varchar(16);default:email"`
	IsAdmin   bool      `json:"isAdmin" gorm:"default:false"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type UserFavorite struct {
	ID         uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID     uint      `json:"userId" gorm:"not null;uniqueIndex:idx_user_favorite"`
	LocationID uint      `json:"locationId" gorm:"not null;uniqueIndex:idx_user_favorite"`
	Location   Location  `json:"location" gorm:"foreignKey:LocationID;constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time `json:"createdAt"`
}
