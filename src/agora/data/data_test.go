package data

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/opencivic/agora/src/agora/types"
)

// openTestDB gives each test its own in-memory database with the full schema.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(types.Models()...))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, name string, role types.Role) types.User {
	t.Helper()
	u := types.User{
		Name:     name,
		Email:    name + "@example.org",
		Password: "x",
		Location: "Springfield",
		Role:     role,
	}
	require.NoError(t, CreateUser(db, &u))
	return u
}

func seedPetition(t *testing.T, db *gorm.DB, author types.User) types.Petition {
	t.Helper()
	p := types.Petition{
		AuthorID:      author.ID,
		Title:         "Fix the bridge",
		Description:   "The bridge on Main St needs repairs.",
		Category:      "infrastructure",
		Location:      "Springfield",
		SignatureGoal: 2,
	}
	require.NoError(t, CreatePetition(db, &p))
	return p
}

func seedPoll(t *testing.T, db *gorm.DB, creator types.User, options ...string) types.Poll {
	t.Helper()
	if len(options) == 0 {
		options = []string{"A", "B"}
	}
	p := types.Poll{
		CreatedBy:      creator.ID,
		Title:          "New park location",
		TargetLocation: "Springfield",
	}
	require.NoError(t, CreatePoll(db, &p, options))
	return p
}
