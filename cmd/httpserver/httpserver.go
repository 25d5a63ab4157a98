// Package httpserver manages server creation and api routing.
package httpserver

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	"github.com/0x0d01/simple-bank/internal/accountdelivery"
	"github.com/0x0d01/simple-bank/internal/accountrepo"
	"github.com/0x0d01/simple-bank/internal/accountservice"
	"github.com/0x0d01/simple-bank/internal/balancecache"
	"github.com/0x0d01/simple-bank/internal/hashchain"
	"github.com/0x0d01/simple-bank/internal/middleware"
	"github.com/0x0d01/simple-bank/internal/statementservice"
	"github.com/0x0d01/simple-bank/internal/transactiondelivery"
	"github.com/0x0d01/simple-bank/internal/transactionrepo"
	"github.com/0x0d01/simple-bank/internal/transactionservice"
	"github.com/0x0d01/simple-bank/internal/userdelivery"
	"github.com/0x0d01/simple-bank/internal/userrepo"
	"github.com/0x0d01/simple-bank/internal/userservice"
	"github.com/0x0d01/simple-bank/pkg/configpkg"
	"github.com/0x0d01/simple-bank/pkg/tokenpkg"
)

// Server holds db connection, handlers router and configuration.
type Server struct {
	DB     *sql.DB
	Engine *gin.Engine
	Config configpkg.Config
}

// ServeHTTP implements the http.Handler interface for the Server type.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Engine.ServeHTTP(w, r)
}

// New creates Server type with instantiated domains and routes.
func New(conn *sql.DB, rdb *redis.Client, logger zerolog.Logger, config configpkg.Config) (*Server, error) {
	userRepo := userrepo.NewRepoPGS(conn)
	accountRepo := accountrepo.NewRepoPGS(conn)
	transactionRepo := transactionrepo.NewRepoPGS(conn)

	tokenMaker, err := tokenpkg.NewPasetoMaker(config.TokenSymmetricKey)
	if err != nil {
		return nil, errors.New("cannot create token maker")
	}

	signer, err := hashchain.NewSignerFromFile(config.SigningPrivateKeyPath)
	if err != nil {
		return nil, err
	}

	cache := balancecache.New(rdb)

	userService := userservice.New(userRepo)
	accountService := accountservice.New(accountRepo)
	transactionService := transactionservice.New(transactionRepo, accountRepo, signer, cache)
	statementService := statementservice.New(transactionRepo, accountRepo)

	userHandler := userdelivery.NewHandler(userService, tokenMaker, config.AccessTokenDuration)
	accountHandler := accountdelivery.NewHandler(accountService, transactionService, statementService, userService)
	transactionHandler := transactiondelivery.NewHandler(transactionService, accountService, userService)

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(middleware.RequestLogger(logger))
	engine.Use(gin.Recovery())

	engine.POST("/users", userHandler.Create)
	engine.POST("/users/login", userHandler.Login)

	authRoutes := engine.Group("/").Use(middleware.Auth(tokenMaker))

	authRoutes.POST("/accounts", accountHandler.Create)
	authRoutes.GET("/accounts", accountHandler.List)
	authRoutes.GET("/accounts/:id", accountHandler.Get)
	authRoutes.POST("/accounts/:id/statement", accountHandler.Statement)

	authRoutes.POST("/transactions", transactionHandler.Create)
	authRoutes.POST("/deposits", transactionHandler.Deposit)
	authRoutes.POST("/transfers", transactionHandler.Transfer)

	server := &Server{
		DB:     conn,
		Engine: engine,
		Config: config,
	}

	return server, nil
}
