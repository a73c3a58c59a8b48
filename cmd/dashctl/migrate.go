package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marsesrobotics/dashboard/internal/config"
	"github.com/marsesrobotics/dashboard/internal/database"
	"github.com/marsesrobotics/dashboard/internal/user"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Prepare the configured user store",
		Long:  "Applies the PostgreSQL migrations when USER_STORE=postgres, or creates the unique email index when USER_STORE=mongo.",
		RunE:  runMigrate,
	}
}

func runMigrate(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx := context.Background()

	switch cfg.Auth.UserStore {
	case config.UserStorePostgres:
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := database.Migrate(ctx, db); err != nil {
			return err
		}
		printSuccess("PostgreSQL migrations applied")

	case config.UserStoreMongo:
		mongoDB, err := database.NewMongo(ctx, cfg.Mongo)
		if err != nil {
			return err
		}
		defer mongoDB.Close(ctx)

		if err := user.NewMongoRepository(mongoDB.Database()).EnsureIndexes(ctx); err != nil {
			return err
		}
		printSuccess("MongoDB user indexes ensured")

	default:
		printDetail("user store", cfg.Auth.UserStore)
		printSuccess("nothing to migrate")
	}
	return nil
}
