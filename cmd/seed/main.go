// Seed replaces the contents of the posts table with the demonstration rows.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/rs/zerolog"

	"posts-api/config"
	"posts-api/db"
)

func main() {
	var migrate bool
	flag.BoolVar(&migrate, "migrate", true, "apply migrations before seeding")
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("Error loading config")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	conn, err := db.Open(ctx, cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("Error opening database")
	}
	defer conn.Close()

	if migrate {
		if err := db.Migrate(ctx, conn, logger); err != nil {
			logger.Fatal().Err(err).Msg("Error migrating database")
		}
	}

	if err := db.Seed(ctx, conn); err != nil {
		logger.Fatal().Err(err).Msg("Error seeding posts")
	}
	logger.Info().Int("rows", len(db.SeedPosts)).Msg("Seeded posts")
}
