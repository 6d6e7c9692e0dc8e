// Command seedusers loads user display profiles from a CSV file into the
// store so the leaderboard join has data to show.
package main

import (
	"context"
	"flag"
	"log" // Use standard log only for initial fatal errors before logger is set up

	"tradeboard/config"
	"tradeboard/internal/adapters/logger"
	"tradeboard/internal/adapters/sqlite"
	"tradeboard/internal/utils"
)

func main() {
	csvPath := flag.String("csv", "users.csv", "Path to the users CSV file (id,display_name,avatar_url,handle)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	appLogger, err := logger.NewZapLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize logger: %v", err)
	}
	defer appLogger.Sync()

	repo, err := sqlite.NewRepository(sqlite.Config{
		DBPath: cfg.DBPath,
		Logger: appLogger,
	})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize database repository: %v", err)
	}
	defer repo.Close()

	users, err := utils.ReadUsersFromCSV(*csvPath)
	if err != nil {
		log.Fatalf("FATAL: Failed to read users from %s: %v", *csvPath, err)
	}

	ctx := context.Background()
	for _, u := range users {
		if err := repo.Upsert(ctx, u); err != nil {
			log.Fatalf("FATAL: Failed to upsert user %s: %v", u.ID, err)
		}
	}
	appLogger.Info(ctx, "User profiles seeded", map[string]interface{}{"count": len(users), "csv": *csvPath})
}
