package main

import (
	"net/http"

	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/0x0d01/simple-bank/cmd/httpserver"
	"github.com/0x0d01/simple-bank/internal/middleware"
	"github.com/0x0d01/simple-bank/pkg/configpkg"
	"github.com/0x0d01/simple-bank/pkg/dbpkg"
)

func main() {
	config, err := configpkg.Load("./configs")
	if err != nil {
		log.Fatal().Err(err).Msg("cannot load config")
	}

	logger := middleware.GetLogger(config)

	conn, err := dbpkg.Setup(config.DBDriver, config.DBSource)
	if err != nil {
		logger.Fatal().Err(err).Msg("cannot connect to db")
	}

	rdb := redis.NewClient(&redis.Options{Addr: config.RedisAddress})

	server, err := httpserver.New(conn, rdb, logger, config)
	if err != nil {
		logger.Fatal().Err(err).Msg("cannot create server")
	}

	logger.Info().Str("address", config.ServerAddress).Msg("starting server")

	if err := http.ListenAndServe(config.ServerAddress, server); err != nil {
		logger.Fatal().Err(err).Msg("cannot start server")
	}
}
