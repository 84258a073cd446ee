package song

import "time"

type Song struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Title     string    `gorm:"type:varchar(255);not null" json:"title"`
	Lyrics    string    `gorm:"type:text;not null" json:"lyrics"`
	Genre     string    `gorm:"type:varchar(64)" json:"genre"`
	CreatedAt time.Time `json:"created_at"`
}

func (Song) TableName() string { return "songs" }
