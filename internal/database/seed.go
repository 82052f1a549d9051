package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"blackmarket-trader/internal/models"
)

// SeedFile is the JSON document used to populate an empty database.
// Prices doubles as the static market feed when no market URL is configured.
type SeedFile struct {
	Items    []models.ItemTemplate `json:"items"`
	Locales  []string              `json:"locales"`
	Prices   map[string]float64    `json:"prices"`
	Profiles []SeedProfile         `json:"profiles"`
}

type SeedProfile struct {
	ID         string                 `json:"_id"`
	SessionID  string                 `json:"sessionId"`
	Username   string                 `json:"username"`
	Password   string                 `json:"password"`
	StashSlots int                    `json:"stashSlots"`
	Items      []models.InventoryItem `json:"items"`
}

func LoadSeed(path string) (*SeedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	var seed SeedFile
	if err := json.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	return &seed, nil
}

// Seed inserts catalog templates, locales and profiles that are not present yet.
func Seed(ctx context.Context, db *gorm.DB, seed *SeedFile) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(seed.Items) > 0 {
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(&seed.Items, 200).Error; err != nil {
				return fmt.Errorf("seed items: %w", err)
			}
		}

		for _, code := range seed.Locales {
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.Locale{Code: code}).Error; err != nil {
				return fmt.Errorf("seed locale %s: %w", code, err)
			}
		}

		for _, sp := range seed.Profiles {
			var existing models.Profile
			err := tx.Where("username = ?", sp.Username).First(&existing).Error
			if err == nil {
				continue
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("lookup profile %s: %w", sp.Username, err)
			}

			hash, err := bcrypt.GenerateFromPassword([]byte(sp.Password), bcrypt.DefaultCost)
			if err != nil {
				return fmt.Errorf("hash password: %w", err)
			}

			profile := models.Profile{
				ID:           sp.ID,
				SessionID:    sp.SessionID,
				Username:     sp.Username,
				PasswordHash: string(hash),
				StashSlots:   sp.StashSlots,
				Inventory:    sp.Items,
			}
			if err := tx.Create(&profile).Error; err != nil {
				return fmt.Errorf("seed profile %s: %w", sp.Username, err)
			}
		}
		return nil
	})
}
