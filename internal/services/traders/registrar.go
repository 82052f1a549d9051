package traders

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"blackmarket-trader/internal/models"
)

const (
	lockedFirstName   = "Unknown"
	lockedDescription = "Error 401: Not authorized"
	avatarFile        = "blackmarket.jpg"
)

//go:embed base.json
var baseJSON []byte

// Base is the static description of the blackmarket trader.
type Base struct {
	ID       string `json:"_id"`
	Name     string `json:"name"`
	Nickname string `json:"nickname"`
	Location string `json:"location"`
	Avatar   string `json:"avatar"`
	Currency string `json:"currency"`
}

func LoadBase() (Base, error) {
	var base Base
	if err := json.Unmarshal(baseJSON, &base); err != nil {
		return base, fmt.Errorf("decode trader base: %w", err)
	}
	return base, nil
}

// Registrar adds the trader to the host catalog.
type Registrar struct {
	db             *gorm.DB
	base           Base
	avatarDir      string
	refreshSeconds int
	log            logrus.FieldLogger
	now            func() time.Time
}

func NewRegistrar(db *gorm.DB, base Base, avatarDir string, refreshSeconds int, log logrus.FieldLogger) *Registrar {
	return &Registrar{
		db:             db,
		base:           base,
		avatarDir:      avatarDir,
		refreshSeconds: refreshSeconds,
		log:            log,
		now:            time.Now,
	}
}

func (r *Registrar) Base() Base {
	return r.base
}

// Register upserts the trader record, its refresh interval and one locale entry per
// known locale. Running it again only refreshes what is stored.
func (r *Registrar) Register(ctx context.Context) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		trader := models.Trader{
			ID:           r.base.ID,
			Name:         r.base.Name,
			Nickname:     r.base.Nickname,
			Location:     r.base.Location,
			Avatar:       r.base.Avatar,
			Currency:     r.base.Currency,
			NextResupply: r.now().Add(time.Duration(r.refreshSeconds) * time.Second).Unix(),
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "nickname", "location", "avatar", "currency", "next_resupply", "updated_at"}),
		}).Create(&trader).Error; err != nil {
			return fmt.Errorf("register trader: %w", err)
		}

		updateTime := models.TraderUpdateTime{TraderID: r.base.ID, Seconds: r.refreshSeconds}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "trader_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"seconds"}),
		}).Create(&updateTime).Error; err != nil {
			return fmt.Errorf("register update time: %w", err)
		}

		var locales []models.Locale
		if err := tx.Order("code ASC").Find(&locales).Error; err != nil {
			return fmt.Errorf("list locales: %w", err)
		}

		for _, locale := range locales {
			entry := models.TraderLocale{
				Locale:      locale.Code,
				TraderID:    r.base.ID,
				FullName:    r.base.Name,
				FirstName:   lockedFirstName,
				Nickname:    r.base.Nickname,
				Location:    r.base.Location,
				Description: lockedDescription,
			}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "locale"}, {Name: "trader_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"full_name", "first_name", "nickname", "location", "description"}),
			}).Create(&entry).Error; err != nil {
				return fmt.Errorf("register locale %s: %w", locale.Code, err)
			}
		}

		r.log.Infof("Registered trader %s in %d locales", r.base.ID, len(locales))
		return nil
	})
}

// AvatarRoute is the image route key for the trader avatar and the file it serves.
func (r *Registrar) AvatarRoute() (string, string) {
	return strings.TrimSuffix(r.base.Avatar, ".jpg"), filepath.Join(r.avatarDir, avatarFile)
}
