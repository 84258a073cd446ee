package project

import "time"

type Project struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Title       string    `gorm:"type:varchar(255);not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	Code        string    `gorm:"type:text" json:"code"`
	Language    string    `gorm:"type:varchar(64);default:javascript" json:"language"`
	CreatedAt   time.Time `json:"created_at"`
}

func (Project) TableName() string { return "projects" }
