// Command migrate prepares the configured storage backend (tables or
// indexes) and can seed a user with starting experience for local runs.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/titto/titto-backend/internal/auth"
	"github.com/titto/titto-backend/internal/config"
	"github.com/titto/titto-backend/internal/models"
	"github.com/titto/titto-backend/internal/store"
	"github.com/titto/titto-backend/pkg/logger"
)

func main() {
	logger.Init(os.Getenv("LOG_LEVEL"))

	var (
		driver     = flag.String("driver", "", "storage driver override (mongo|postgres|sqlite)")
		email      = flag.String("seed-email", "", "create or top up this user")
		name       = flag.String("seed-name", "", "display name of the seeded user")
		department = flag.String("seed-department", "", "department of the seeded user")
		exp        = flag.Int("seed-experience", 100, "experience granted to the seeded user")
		printToken = flag.Bool("token", false, "print a development access token for the seeded user (needs JWT_SECRET)")
	)
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	if *driver != "" {
		cfg.Storage.Driver = strings.ToLower(*driver)
		if err := cfg.Validate(); err != nil {
			logger.Fatalf("invalid config: %v", err)
		}
	}
	if cfg.Storage.Driver == config.DriverMemory {
		logger.Fatalf("nothing to migrate for the memory driver")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	backend, err := store.Open(ctx, cfg)
	if err != nil {
		logger.Fatalf("migration failed: %v", err)
	}
	defer func() { _ = backend.Close(context.Background()) }()
	logger.Infof("%s storage is up to date", cfg.Storage.Driver)

	if *email == "" {
		return
	}
	u, err := seedUser(ctx, backend, *email, *name, *department, *exp)
	if err != nil {
		logger.Fatalf("seed failed: %v", err)
	}
	logger.Infow("user seeded", "id", u.ID, "email", u.Email, "current", u.CurrentExperience, "total", u.TotalExperience)

	if *printToken {
		tok, err := auth.GenerateAccessToken(cfg.JWT.Secret, u, cfg.JWT.AccessTokenTTL)
		if err != nil {
			logger.Fatalf("token: %v", err)
		}
		fmt.Println(tok)
	}
}

// seedUser creates the user if needed and raises both balances by amount.
func seedUser(ctx context.Context, backend store.Backend, email, name, department string, amount int) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" {
		name, _, _ = strings.Cut(email, "@")
	}
	repo := backend.Users()
	u, err := repo.UpsertByEmail(ctx, &models.User{ID: uuid.NewString(), Email: email, Name: name, Nickname: name})
	if err != nil {
		return nil, err
	}
	if department != "" {
		d, err := models.ParseDepartment(department)
		if err != nil {
			return nil, err
		}
		u.Department = string(d)
	}
	u.CurrentExperience += amount
	u.TotalExperience += amount
	if err := repo.Save(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}
