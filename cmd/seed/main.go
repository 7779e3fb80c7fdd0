// Package main provides a CLI tool for seeding the database with a demo
// congregation.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/shopspring/decimal"

	"parish/internal/core/entity"
	"parish/internal/domain"
	"parish/internal/infrastructure/audit"
	"parish/internal/infrastructure/storage/postgres"
	"parish/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	churchID := os.Getenv("CHURCH_ID")
	if churchID == "" {
		churchID = "demo-church"
	}

	poolCfg := postgres.DefaultPoolConfig(dbURL)
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	store := postgres.NewStore(pool)
	if err := store.Migrate(ctx); err != nil {
		log.Fatalw("failed to migrate records table", "error", err)
	}

	emitter, err := audit.NewPostgresEmitter(pool.Unwrap())
	if err != nil {
		log.Fatalw("failed to create audit emitter", "error", err)
	}
	if err := emitter.Migrate(ctx); err != nil {
		log.Fatalw("failed to migrate audit table", "error", err)
	}

	if err := seedCongregation(ctx, store, churchID, log); err != nil {
		log.Fatalw("failed to seed demo congregation", "error", err)
	}

	log.Info("seeding completed successfully")
}

func seedCongregation(ctx context.Context, store domain.Store, churchID string, log *logger.Logger) error {
	save := func(rec *entity.Record) error {
		return store.Save(ctx, rec, 0)
	}

	// Roles: the built-in admin role is system-protected.
	adminRole := entity.New(entity.TypeRole, churchID).
		SetAttribute("name", "Admin").
		SetAttribute("slug", "admin")
	adminRole.Protected = true
	memberRole := entity.New(entity.TypeRole, churchID).
		SetAttribute("name", "Member").
		SetAttribute("slug", "member")
	for _, rec := range []*entity.Record{adminRole, memberRole} {
		if err := save(rec); err != nil {
			return err
		}
	}

	household := entity.New(entity.TypeHousehold, churchID).
		SetAttribute("name", "The Okafor Family")
	if err := save(household); err != nil {
		return err
	}

	members := []*entity.Record{
		entity.New(entity.TypeMember, churchID).
			SetAttribute("firstName", "Ada").
			SetAttribute("lastName", "Okafor").
			SetAttribute("email", "ada@example.org"),
		entity.New(entity.TypeMember, churchID).
			SetAttribute("firstName", "Chidi").
			SetAttribute("lastName", "Okafor").
			SetAttribute("email", "chidi@example.org"),
	}
	for _, m := range members {
		m.SetForeignKey(entity.RelationHousehold, household.ID)
		m.SetForeignKey(entity.RelationRole, memberRole.ID)
		if err := save(m); err != nil {
			return err
		}
	}

	child := entity.New(entity.TypeChild, churchID).
		SetAttribute("firstName", "Ngozi").
		SetAttribute("lastName", "Okafor")
	child.SetForeignKey(entity.RelationHousehold, household.ID)
	if err := save(child); err != nil {
		return err
	}

	group := entity.New(entity.TypeGroup, churchID).
		SetAttribute("name", "Youth Group")
	if err := save(group); err != nil {
		return err
	}
	event := entity.New(entity.TypeEvent, churchID).
		SetAttribute("title", "Sunday Youth Meetup")
	event.SetForeignKey(entity.RelationGroup, group.ID)
	if err := save(event); err != nil {
		return err
	}

	fund := entity.New(entity.TypeFund, churchID).
		SetAttribute("name", "General Fund")
	if err := save(fund); err != nil {
		return err
	}
	amounts := []decimal.Decimal{
		decimal.NewFromFloat(50.00),
		decimal.NewFromFloat(125.50),
	}
	for i, amount := range amounts {
		contribution := entity.New(entity.TypeContribution, churchID).
			SetAttribute("amount", amount.String()).
			SetAttribute("currency", "USD")
		contribution.SetForeignKey(entity.RelationFund, fund.ID)
		contribution.SetForeignKey(entity.RelationContributor, members[i%len(members)].ID)
		if err := save(contribution); err != nil {
			return err
		}
	}

	log.Infow("seeded demo congregation",
		"church_id", churchID,
		"household_id", household.ID.String(),
		"admin_role_id", adminRole.ID.String(),
	)
	return nil
}
