package main

import (
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/babylonlabs-io/staking-ledger/cmd/staking-ledger/cli"
	"github.com/babylonlabs-io/staking-ledger/pkg"
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("failed to load .env file")
	}

	level, err := zerolog.ParseLevel(pkg.Getenv("LOG_LEVEL", zerolog.InfoLevel.String()))
	if err != nil {
		log.Warn().Err(err).Msg("invalid LOG_LEVEL, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}

func main() {
	if err := cli.Setup(); err != nil {
		log.Fatal().Err(err).Msg("staking ledger exited with error")
	}
}
