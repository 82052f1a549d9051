package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"blackmarket-trader/internal/models"
)

func TestInitialize_Migrates(t *testing.T) {
	db, err := Initialize("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	require.NoError(t, err)

	for _, model := range []interface{}{
		&models.ItemTemplate{},
		&models.Profile{},
		&models.InventoryItem{},
		&models.TraderStanding{},
		&models.Trader{},
		&models.Locale{},
		&models.TraderLocale{},
		&models.TraderUpdateTime{},
	} {
		assert.True(t, db.Migrator().HasTable(model), "%T", model)
	}
}

func TestLoadSeed_BundledFile(t *testing.T) {
	seed, err := LoadSeed(filepath.Join("..", "..", "database", "seed.json"))
	require.NoError(t, err)

	assert.NotEmpty(t, seed.Items)
	assert.Contains(t, seed.Locales, "en")
	require.Len(t, seed.Profiles, 1)
	assert.Equal(t, "player", seed.Profiles[0].Username)
}

func TestLoadSeed_Errors(t *testing.T) {
	_, err := LoadSeed(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0644))
	_, err = LoadSeed(path)
	assert.Error(t, err)
}

func TestSeed_Idempotent(t *testing.T) {
	db, err := Initialize("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	require.NoError(t, err)

	seed := &SeedFile{
		Items: []models.ItemTemplate{
			{ID: "abc", Name: "Widget", CanSellOnMarket: true, StackMaxSize: 1},
		},
		Locales: []string{"en", "ru"},
		Profiles: []SeedProfile{{
			ID:         "pmc1",
			SessionID:  "sess1",
			Username:   "player",
			Password:   "secret",
			StashSlots: 10,
			Items: []models.InventoryItem{
				{ID: "i1", TemplateID: "abc", Upd: &models.ItemUpd{SpawnedInSession: true}},
			},
		}},
	}

	ctx := context.Background()
	require.NoError(t, Seed(ctx, db, seed))
	require.NoError(t, Seed(ctx, db, seed))

	var items, locales, profiles, inventory int64
	require.NoError(t, db.Model(&models.ItemTemplate{}).Count(&items).Error)
	require.NoError(t, db.Model(&models.Locale{}).Count(&locales).Error)
	require.NoError(t, db.Model(&models.Profile{}).Count(&profiles).Error)
	require.NoError(t, db.Model(&models.InventoryItem{}).Count(&inventory).Error)
	assert.Equal(t, int64(1), items)
	assert.Equal(t, int64(2), locales)
	assert.Equal(t, int64(1), profiles)
	assert.Equal(t, int64(1), inventory)

	var profile models.Profile
	require.NoError(t, db.First(&profile, "id = ?", "pmc1").Error)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte("secret")))
}

func TestInitRedis_EmptyAddr(t *testing.T) {
	assert.Nil(t, InitRedis("", "", 0))
}
