package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"gamehub/internal/config"
	"gamehub/internal/ledger"
	"gamehub/internal/models"
	"gamehub/internal/ranking"
	"gamehub/internal/repository"
	"gamehub/internal/service"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	totalUsers         = 500
	batchSize          = 100
	submissionsPerUser = 5
	maxScore           = 10000
)

var games = []string{"neon-racer", "block-blitz", "sky-duel"}

// one shared bcrypt hash ("password123", cost 12) so seeding does not
// spend minutes hashing; seeded accounts are for local development only
const seededPasswordHash = "$2a$12$R9h/cIPz0gi.URNNX3kh2OPST9/PgBkqquzi.Ss7KIUgO2t0jWMUW"

func main() {
	log.Println("🌱 Starting GameHub seeder...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := gorm.Open(postgres.Open(cfg.GetDSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	log.Println("✓ Connected to PostgreSQL")

	postgresRepo := repository.NewPostgresRepository(db)
	if err := postgresRepo.AutoMigrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	ctx := context.Background()

	log.Printf("🌱 Generating %d users...", totalUsers)
	users := generateUsers(totalUsers)

	log.Println("📦 Inserting users into PostgreSQL...")
	if err := postgresRepo.BulkInsertUsers(ctx, users, batchSize); err != nil {
		log.Fatalf("Failed to seed users: %v", err)
	}

	// Submissions go through the real orchestrator so the ledger and
	// index obey the same keep-max rule as live traffic
	ledgerStore := ledger.New(db)
	index := ranking.NewIndex()
	leaderboardService := service.NewLeaderboardService(postgresRepo, ledgerStore, index, nil)

	seeded, err := postgresRepo.GetAllUsers(ctx)
	if err != nil {
		log.Fatalf("Failed to load seeded users: %v", err)
	}

	log.Printf("⚡ Submitting %d scores per user across %d games...", submissionsPerUser, len(games))
	submitted := 0
	for _, user := range seeded {
		for i := 0; i < submissionsPerUser; i++ {
			game := games[rand.Intn(len(games))]
			score := rand.Intn(maxScore + 1)
			if _, err := leaderboardService.SubmitScore(ctx, user.ID, game, score); err != nil {
				log.Fatalf("Failed to submit score for %s: %v", user.Username, err)
			}
			submitted++
		}
	}

	log.Printf("✅ Seeding completed: %d users, %d submissions", len(seeded), submitted)

	for _, game := range games {
		top, err := leaderboardService.GetTop(ctx, game, 10)
		if err != nil {
			log.Fatalf("Failed to get top users for %s: %v", game, err)
		}
		log.Printf("\n📊 Top 10 — %s:", game)
		for _, entry := range top.Entries {
			log.Printf("   %d. %s — %d", entry.Rank, entry.Username, entry.Score)
		}
	}

	postgresRepo.Close()
	log.Println("\n🎉 Seeder finished!")
}

// generateUsers creates verified fake accounts
func generateUsers(count int) []models.User {
	faker := gofakeit.New(uint64(time.Now().UnixNano()))

	users := make([]models.User, count)
	for i := 0; i < count; i++ {
		users[i] = models.User{
			UserCode:     uuid.NewString(),
			Username:     fmt.Sprintf("%s_%04d", faker.Gamertag(), i),
			Email:        fmt.Sprintf("seed%04d_%s", i, faker.Email()),
			PhoneNumber:  faker.Phone(),
			PasswordHash: seededPasswordHash,
			IsVerified:   true,
			IsActive:     true,
		}
	}
	return users
}
