package models

import (
	"github.com/alexedwards/argon2id"
	"github.com/google/uuid"

	"github.com/quillfight/contest-api/internal/config"
	"github.com/quillfight/contest-api/internal/contest"
)

func (s *StoreSuite) TestSyncAccounts() {
	ctx := s.T().Context()
	active := true

	admin := config.Account{
		ID:     uuid.NewString(),
		Note:   "ops",
		Token:  "admin-token-0123456789",
		Role:   "admin",
		Active: &active,
	}
	pipeline := config.Account{
		ID:     uuid.NewString(),
		Note:   "ai pipeline",
		Token:  "pipeline-token-0123456789",
		Role:   "user",
		System: true,
		Active: &active,
	}

	s.Require().NoError(SyncAccounts(ctx, s.db, []config.Account{admin, pipeline}))

	stored, err := ByID[Account](ctx, s.db, admin.ParsedID())
	s.Require().NoError(err)
	s.True(stored.IsActive())
	s.Equal("ops", stored.Note)
	match, err := argon2id.ComparePasswordAndHash(admin.Token, stored.Token)
	s.Require().NoError(err)
	s.True(match, "token is stored hashed")
	s.NotEqual(admin.Token, stored.Token)

	actor := stored.Actor()
	s.Equal(contest.RoleAdmin, actor.Role)
	s.True(actor.IsAdmin())
	s.False(actor.System)

	admin.Note = "ops team"
	s.Require().NoError(SyncAccounts(ctx, s.db, []config.Account{admin}))

	stored, err = ByID[Account](ctx, s.db, admin.ParsedID())
	s.Require().NoError(err)
	s.Equal("ops team", stored.Note)
	s.True(stored.IsActive())

	removed, err := ByID[Account](ctx, s.db, pipeline.ParsedID())
	s.Require().NoError(err)
	s.False(removed.IsActive(), "accounts missing from the config are deactivated")
	s.True(removed.Actor().System)

	s.Require().NoError(SyncAccounts(ctx, s.db, nil))
	stored, err = ByID[Account](ctx, s.db, admin.ParsedID())
	s.Require().NoError(err)
	s.False(stored.IsActive())
}
