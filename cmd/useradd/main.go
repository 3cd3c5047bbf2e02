// Command useradd creates a login for the order API.
//
//	useradd -email ops@brand.example -name "Ops" -role BRAND_ADMIN -brand <brand-id>
//
// The password is read from FAIRWAY_NEW_USER_PASSWORD so it stays out of
// shell history.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/example/fairway-commerce/internal/auth"
	"github.com/example/fairway-commerce/internal/config"
	"github.com/example/fairway-commerce/internal/domain/user"
	"github.com/example/fairway-commerce/internal/infrastructure/store"
	"github.com/example/fairway-commerce/internal/logging"
)

const passwordEnv = "FAIRWAY_NEW_USER_PASSWORD"

func main() {
	var (
		configPath = flag.String("config", "", "path to a YAML config file")
		email      = flag.String("email", "", "login email")
		name       = flag.String("name", "", "display name")
		role       = flag.String("role", string(auth.RoleBrandAdmin), "BUYER, BRAND_ADMIN or ADMIN")
		brandID    = flag.String("brand", "", "brand id (BRAND_ADMIN only)")
	)
	flag.Parse()

	if err := run(*configPath, *email, *name, auth.Role(*role), *brandID); err != nil {
		fmt.Fprintf(os.Stderr, "useradd: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, email, name string, role auth.Role, brandID string) error {
	if !role.Valid() {
		return fmt.Errorf("unknown role %q", role)
	}
	if role == auth.RoleBrandAdmin && brandID == "" {
		return fmt.Errorf("-brand is required for %s", auth.RoleBrandAdmin)
	}
	password := os.Getenv(passwordEnv)
	if password == "" {
		return fmt.Errorf("%s is not set", passwordEnv)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Log, "useradd")
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := store.ConnectPostgres(ctx, cfg.Database.URL, store.PoolConfig{MaxOpenConns: 1})
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close()

	u, err := user.NewService(store.NewPostgresStore(db)).Create(ctx, email, password, name, role, brandID)
	if err != nil {
		return err
	}

	logger.Info("user created",
		zap.String("user_id", u.ID),
		zap.String("email", u.Email),
		zap.String("role", string(u.Role)),
	)
	return nil
}
