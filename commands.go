package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/amirphl/staybook/app/services"
	businessflow "github.com/amirphl/staybook/business_flow"
	"github.com/amirphl/staybook/config"
	"github.com/amirphl/staybook/models"
	"github.com/amirphl/staybook/pricing"
	"github.com/amirphl/staybook/utils"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			logger, closer, err := utils.NewLogger(cfg.Logging)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			defer closeLogger(logger, closer)

			db, err := initializeDatabase(cfg.Database, logger)
			if err != nil {
				return err
			}
			defer func() {
				if sqlDB, err := db.DB(); err == nil {
					_ = sqlDB.Close()
				}
			}()

			if err := db.WithContext(cmd.Context()).AutoMigrate(models.All()...); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			logger.Info("Database schema is up to date", zap.Int("tables", len(models.All())))
			return nil
		},
	}
}

func quoteCmd() *cobra.Command {
	var (
		propertyID string
		checkIn    string
		checkOut   string
		guests     int
		pets       int
		estimate   bool
	)

	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Price a stay and print the breakdown as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := parseQuoteFlags(propertyID, checkIn, checkOut, guests, pets)
			if err != nil {
				return err
			}

			cfg, err := config.LoadConfig()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			// stdout carries the quote
			cfg.Logging.Output = "stderr"
			logger, closer, err := utils.NewLogger(cfg.Logging)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			logger = logger.WithOptions(zap.IncreaseLevel(zap.WarnLevel))
			defer closeLogger(logger, closer)

			db, err := initializeDatabase(cfg.Database, logger)
			if err != nil {
				return err
			}
			defer func() {
				if sqlDB, err := db.DB(); err == nil {
					_ = sqlDB.Close()
				}
			}()

			repos := newRepositories(db)
			engine := newEngine(pricing.NewRepositorySource(repos.properties, repos.seasons, repos.fees, repos.rules), cfg.Pricing, logger)

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			bd, err := engine.Price(ctx, req)
			if errors.Is(err, pricing.ErrTimeout) && estimate {
				bd, err = engine.Estimate(ctx, req)
			}
			if err != nil {
				return fmt.Errorf("pricing failed: %w", err)
			}

			out, err := json.MarshalIndent(businessflow.ToPriceQuoteResponse(bd, cfg.Pricing.Currency), "", "  ")
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return err
		},
	}

	cmd.Flags().StringVar(&propertyID, "property", "", "property UUID")
	cmd.Flags().StringVar(&checkIn, "check-in", "", "check-in date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&checkOut, "check-out", "", "check-out date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&guests, "guests", 1, "number of guests")
	cmd.Flags().IntVar(&pets, "pets", 0, "number of pets")
	cmd.Flags().BoolVar(&estimate, "estimate", false, "fall back to a base-price estimate when supporting data times out")
	_ = cmd.MarkFlagRequired("property")
	_ = cmd.MarkFlagRequired("check-in")
	_ = cmd.MarkFlagRequired("check-out")

	return cmd
}

func parseQuoteFlags(propertyID, checkIn, checkOut string, guests, pets int) (pricing.Request, error) {
	id, err := uuid.Parse(propertyID)
	if err != nil {
		return pricing.Request{}, fmt.Errorf("invalid --property: %w", err)
	}
	in, err := utils.ParseDate(checkIn)
	if err != nil {
		return pricing.Request{}, fmt.Errorf("invalid --check-in: %w", err)
	}
	out, err := utils.ParseDate(checkOut)
	if err != nil {
		return pricing.Request{}, fmt.Errorf("invalid --check-out: %w", err)
	}
	return pricing.Request{
		PropertyID: id,
		CheckIn:    in,
		CheckOut:   out,
		GuestCount: guests,
		PetCount:   pets,
	}, nil
}

func adminTokenCmd() *cobra.Command {
	var adminID uint

	cmd := &cobra.Command{
		Use:   "admin-token",
		Short: "Mint an access token for the admin pricing API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if adminID == 0 {
				return errors.New("--admin-id must be positive")
			}
			cfg, err := config.LoadConfig()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			tokens, err := services.NewTokenService(
				cfg.JWT.AccessTokenTTL,
				cfg.JWT.Issuer,
				cfg.JWT.Audience,
				cfg.JWT.UseRSAKeys,
				cfg.JWT.PrivateKey,
				cfg.JWT.PublicKey,
				cfg.JWT.SecretKey,
			)
			if err != nil {
				return fmt.Errorf("failed to initialize token service: %w", err)
			}
			token, err := tokens.GenerateAdminToken(adminID)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}

	cmd.Flags().UintVar(&adminID, "admin-id", 0, "admin identifier embedded in the token")
	_ = cmd.MarkFlagRequired("admin-id")
	return cmd
}
