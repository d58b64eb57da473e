// Command resort-admin runs one-off account maintenance against the resort
// database.
//
//	resort-admin init
//	resort-admin set-active -username jane -active=false
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/iliyamo/resort-backend/internal/config"
	"github.com/iliyamo/resort-backend/internal/database"
	"github.com/iliyamo/resort-backend/internal/logging"
	"github.com/iliyamo/resort-backend/internal/repository"
	"github.com/iliyamo/resort-backend/internal/service"
	"github.com/iliyamo/resort-backend/internal/utils"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage: resort-admin <init | set-active -username NAME -active=BOOL>")
	os.Exit(2)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := logging.New(cfg.IsProd())
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.Open(ctx, cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		logger.Fatal("schema migration failed", zap.Error(err))
	}

	users := service.NewUserService(
		repository.NewUserRepo(db, cfg.BcryptCost),
		utils.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL),
		logger,
	)

	switch os.Args[1] {
	case "init":
		err = initAdmin(ctx, users, cfg, logger)
	case "set-active":
		err = setActive(ctx, users, os.Args[2:], logger)
	default:
		usage()
	}
	if err != nil {
		logger.Fatal(os.Args[1]+" failed", zap.Error(err))
	}
}

// initAdmin creates the first admin from ADMIN_INIT_* unless one exists.
func initAdmin(ctx context.Context, users *service.UserService, cfg config.Config, logger *zap.Logger) error {
	res, u, err := users.BootstrapAdmin(ctx, service.RegisterInput{
		Name:     cfg.AdminInitName,
		Username: cfg.AdminInitUsername,
		Email:    cfg.AdminInitEmail,
		Phone:    cfg.AdminInitPhone,
		Password: cfg.AdminInitPassword,
	})
	if err != nil {
		return err
	}
	if u == nil {
		logger.Info("admin already present", zap.String("result", string(res)))
		return nil
	}
	logger.Info("admin ready", zap.String("result", string(res)), zap.Uint64("user_id", u.ID), zap.String("email", u.Email))
	return nil
}

func setActive(ctx context.Context, users *service.UserService, args []string, logger *zap.Logger) error {
	fs := flag.NewFlagSet("set-active", flag.ExitOnError)
	login := fs.String("username", "", "username or email of the account")
	active := fs.Bool("active", true, "whether the account may sign in")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *login == "" {
		fs.Usage()
		os.Exit(2)
	}

	u, err := users.SetActive(ctx, *login, *active)
	if err != nil {
		return err
	}
	logger.Info("account updated", zap.Uint64("user_id", u.ID), zap.String("username", u.Username), zap.Bool("active", u.IsActive))
	return nil
}
