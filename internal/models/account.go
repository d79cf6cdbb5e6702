package models

import (
	"context"
	"fmt"

	"github.com/alexedwards/argon2id"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/quillfight/contest-api/internal/config"
	"github.com/quillfight/contest-api/internal/contest"
)

type Account struct {
	Token string // argon2id hash
	Note  string // will be logged nonsensitive
	Role  string
	Model
	System bool
	Active datatypes.Null[bool]
}

func (Account) TableName() string {
	return "account"
}

func (a Account) GetID() uuid.UUID {
	return a.ID
}

func (a *Account) IsActive() bool {
	return a.Active.Valid && a.Active.V
}

// Actor is the identity this account acts as once its token checks out.
func (a *Account) Actor() contest.Actor {
	return contest.Actor{
		ID:            a.ID,
		Role:          contest.Role(a.Role),
		System:        a.System,
		Authenticated: true,
	}
}

// Config is the authoritative account list
//
// 1. Upsert account data
// 2. Disable accounts not currently contained in the config
func SyncAccounts(ctx context.Context, db *gorm.DB, accounts []config.Account) error {
	ctx, span := tracer.Start(ctx, "SyncAccounts")
	defer span.End()

	db = db.WithContext(ctx)

	toUpsert := make([]*Account, len(accounts))
	inConfig := make([]uuid.UUID, len(accounts))
	for i, account := range accounts {
		id, err := uuid.Parse(account.ID)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "error parsing account id")
			span.SetAttributes(attribute.String("failedAccount", account.ID))
			return err
		}

		hash, err := argon2id.CreateHash(account.Token, argon2id.DefaultParams)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "error creating hash for account token")
			span.SetAttributes(attribute.String("failedAccount", account.ID))
			return err
		}

		toUpsert[i] = &Account{
			Model:  Model{ID: id},
			Token:  hash,
			Note:   account.Note,
			Role:   account.Role,
			System: account.System,
			Active: NewNull(account.Active),
		}
		inConfig[i] = id
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		//nolint:govet // shadow: intentionally shadow ctx and span to avoid using the incorrect one.
		ctx, span := tracer.Start(ctx, "SyncAccounts/Transaction")
		defer span.End()

		tx = tx.WithContext(ctx)

		if len(toUpsert) != 0 {
			span.AddEvent("upserting configured accounts")
			result := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(toUpsert)
			if result.Error != nil {
				span.RecordError(result.Error)
				span.SetStatus(codes.Error, "failed to upsert configured accounts")
				return fmt.Errorf("failed to upsert configured accounts: %w", result.Error)
			}
		} else {
			span.AddEvent("no configured accounts to upsert")
		}

		span.AddEvent("deactivating accounts missing from the config")

		query := tx.Model(&Account{})
		if len(inConfig) != 0 {
			query = query.Where("id NOT IN ?", inConfig)
		} else {
			query = query.Where("1 = 1")
		}
		result := query.Update("active", false)
		if result.Error != nil {
			span.RecordError(result.Error)
			span.SetStatus(codes.Error, "failed to deactivate accounts missing from the config")
			return fmt.Errorf("failed to deactivate accounts missing from the config: %w", result.Error)
		}

		span.SetAttributes(attribute.Int64("deactivated", result.RowsAffected))
		span.RecordError(nil)
		span.SetStatus(codes.Ok, "synced accounts")
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to sync accounts")
		return fmt.Errorf("failed to sync accounts: %w", err)
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "synced accounts")
	return nil
}
