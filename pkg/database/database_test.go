package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/likefeed/config"
	"github.com/d60-Lab/likefeed/internal/model"
)

func memoryConfig() *config.Config {
	return &config.Config{Database: config.DatabaseConfig{
		Driver:      "sqlite",
		DSN:         ":memory:",
		AutoMigrate: true,
		Seed:        true,
	}}
}

func TestInitDBSeedsDemoData(t *testing.T) {
	db, err := InitDB(memoryConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })

	var users []model.User
	require.NoError(t, db.Order("id").Find(&users).Error)
	require.Len(t, users, 2)
	assert.Equal(t, "john", users[0].Username)
	assert.Equal(t, "jane", users[1].Username)

	var post model.Post
	require.NoError(t, db.First(&post, 1).Error)
	assert.Equal(t, int64(1), post.UserID)
	assert.Equal(t, "Hello World!", post.Content)
}

func TestSeedIsIdempotent(t *testing.T) {
	db, err := InitDB(memoryConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })

	require.NoError(t, Seed(db))
	var n int64
	require.NoError(t, db.Model(&model.Post{}).Count(&n).Error)
	assert.Equal(t, int64(2), n)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(config.DatabaseConfig{Driver: "oracle", DSN: "x"})
	require.Error(t, err)
}
