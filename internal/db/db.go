package db

import (
	"context"
	"log"

	"github.com/azuradaemon/hati/internal/chat"
	"github.com/azuradaemon/hati/internal/project"
	"github.com/azuradaemon/hati/internal/song"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Connect opens the Postgres pool and migrates the schema.
func Connect(dsn string) *gorm.DB {
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("db: connect: %v", err)
	}
	if err := Migrate(gdb); err != nil {
		log.Fatalf("db: migrate: %v", err)
	}
	return gdb
}

func Migrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(
		&chat.Conversation{},
		&chat.Message{},
		&chat.Job{},
		&project.Project{},
		&song.Song{},
	)
}

// Seed inserts the starter projects and songs once, on an empty database.
func Seed(ctx context.Context, gdb *gorm.DB) error {
	projects := project.NewRepo(gdb)
	if n, err := projects.Count(ctx); err != nil {
		return err
	} else if n == 0 {
		seedProjects := []project.Project{
			{
				Title:       "Hello Hati",
				Description: "A simple introduction project",
				Code:        "console.log('Hello from Hati!');",
				Language:    "javascript",
			},
			{
				Title:       "Xhosa Greeting",
				Description: "A cultural greeting app",
				Code:        "function greet() { return 'Molo, unjani?'; }",
				Language:    "javascript",
			},
		}
		for i := range seedProjects {
			if err := projects.Create(ctx, &seedProjects[i]); err != nil {
				return err
			}
		}
		log.Println("db: seeded projects")
	}

	songs := song.NewRepo(gdb)
	if n, err := songs.Count(ctx); err != nil {
		return err
	} else if n == 0 {
		if err := songs.Create(ctx, &song.Song{
			Title:  "Camagu",
			Lyrics: "Camagu livumile\nCamagu lisavakala\nSiyabulela kwizinyanya\nNgokusikhusela usuku lonke.",
			Genre:  "Traditional",
		}); err != nil {
			return err
		}
		log.Println("db: seeded songs")
	}

	return nil
}
