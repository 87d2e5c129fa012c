package main

import (
	"fmt"
	"log"
	"time"

	"github.com/closehq/close-api/internal/config"
	"github.com/closehq/close-api/internal/model"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Seeds two demo users sharing one demo room, for local development.
func main() {
	cfg := config.Load()

	db, err := gorm.Open(postgres.Open(cfg.DB.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		log.Fatalf("[seeder] failed to connect to database: %v", err)
	}
	log.Println("[seeder] connected to database")

	password := "password123"
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("[seeder] failed to hash password: %v", err)
	}

	log.Println("[seeder] seeding 2 demo users...")
	users := make([]model.User, 0, 2)
	for i := 1; i <= 2; i++ {
		email := fmt.Sprintf("demo%d@close.local", i)

		var existing model.User
		if err := db.Where("email = ?", email).First(&existing).Error; err == nil {
			users = append(users, existing)
			continue
		}

		user := model.User{
			ID:           uuid.New(),
			Name:         fmt.Sprintf("Demo User %d", i),
			Email:        &email,
			PasswordHash: string(passwordHash),
		}
		if err := db.Create(&user).Error; err != nil {
			log.Fatalf("[seeder] failed to create user %s: %v", email, err)
		}
		users = append(users, user)
		log.Printf("[seeder] created user %s (password: %s)", email, password)
	}

	log.Println("[seeder] seeding demo room...")
	var existingRoom model.Room
	if err := db.Where("name = ?", "Demo Room").First(&existingRoom).Error; err == nil {
		log.Printf("[seeder] demo room already exists: %s", existingRoom.ID)
		return
	}

	roomPassword := "love"
	roomHash, err := bcrypt.GenerateFromPassword([]byte(roomPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("[seeder] failed to hash room password: %v", err)
	}

	now := time.Now()
	room := model.Room{
		ID:           uuid.New(),
		Name:         "Demo Room",
		PasswordHash: string(roomHash),
		CurrentEmoji: model.DefaultEmoji,
		LastActivity: now,
	}
	for _, u := range users {
		room.Members = append(room.Members, model.RoomMember{
			ID:       uuid.New(),
			RoomID:   room.ID,
			UserID:   u.ID,
			JoinedAt: now,
		})
	}

	if err := db.Create(&room).Error; err != nil {
		log.Fatalf("[seeder] failed to create demo room: %v", err)
	}

	log.Printf("[seeder] created room %q id=%s (password: %s)", room.Name, room.ID, roomPassword)
	log.Println("[seeder] done")
}
