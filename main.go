package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/labs/internal/db"
	"github.com/robalobadob/labs/internal/hanoi"
	"github.com/robalobadob/labs/internal/httpserver"
	"github.com/robalobadob/labs/internal/store"
	"github.com/robalobadob/labs/internal/wallet"
)

func main() {
	_ = godotenv.Load()
	if lvl, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info")); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	conn, err := db.OpenMigrated(getEnv("DB_PATH", "./data/app.db"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer conn.Close()

	srv := httpserver.New(
		httpserver.ConfigFromEnv(),
		store.NewMemoryStore[*hanoi.Game](),
		store.NewMemoryStore[*wallet.Wallet](),
		conn,
	)
	port := getEnv("PORT", "5175")
	log.Info().Str("port", port).Msg("starting go-server")
	if err := srv.Start(":" + port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
