package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"blackmarket-trader/internal/models"
	"blackmarket-trader/internal/services/inventory"
)

const defaultStackMax = 500000

var (
	ErrNotEnoughSpace = errors.New("not enough space in stash for money")
	ErrNotEnoughMoney = errors.New("not enough money")
)

// TemplateLookup finds item templates by id.
type TemplateLookup interface {
	Template(id string) (models.ItemTemplate, bool)
}

// PaymentService moves roubles in and out of a profile's stash and keeps the
// per-trader sales totals.
type PaymentService struct {
	db        *gorm.DB
	templates TemplateLookup
	log       logrus.FieldLogger
}

func NewPaymentService(db *gorm.DB, templates TemplateLookup, log logrus.FieldLogger) *PaymentService {
	return &PaymentService{db: db, templates: templates, log: log}
}

type stackUpdate struct {
	index int
	count int
}

// Credit pays amount roubles into the stash for a sale to req.TID. Existing stacks
// are topped up first; the rest goes into new stacks, which must fit into free stash
// slots. Nothing is changed when they do not.
func (s *PaymentService) Credit(ctx context.Context, profile *models.Profile, amount int, req *models.SellRequest, output *models.ItemEventResponse, sessionID string) (*models.ItemEventResponse, error) {
	if amount <= 0 {
		return output, nil
	}

	stackMax := s.stackMax()
	remaining := amount
	var updates []stackUpdate
	for i := range profile.Inventory {
		if remaining == 0 {
			break
		}
		item := &profile.Inventory[i]
		if !isMoneyStack(item) {
			continue
		}
		room := stackMax - item.StackCount()
		if room <= 0 {
			continue
		}
		add := min(room, remaining)
		updates = append(updates, stackUpdate{index: i, count: item.StackCount() + add})
		remaining -= add
	}

	var fresh []models.InventoryItem
	for remaining > 0 {
		add := min(stackMax, remaining)
		fresh = append(fresh, models.InventoryItem{
			ID:         uuid.NewString(),
			ProfileID:  profile.ID,
			TemplateID: models.RoublesTpl,
			SlotID:     "hideout",
			Upd:        &models.ItemUpd{StackObjectsCount: add},
		})
		remaining -= add
	}

	if len(fresh) > inventory.FreeSlots(profile) {
		return nil, ErrNotEnoughSpace
	}

	var standing models.TraderStanding
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, u := range updates {
			item := &profile.Inventory[u.index]
			if err := saveCount(tx, item, u.count); err != nil {
				return err
			}
		}
		if len(fresh) > 0 {
			if err := tx.Create(&fresh).Error; err != nil {
				return err
			}
		}
		var err error
		standing, err = addSales(tx, profile.ID, req.TID, int64(amount))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("credit %d roubles: %w", amount, err)
	}

	changes := output.ChangesFor(profile.ID)
	for _, u := range updates {
		item := &profile.Inventory[u.index]
		item.Upd = withCount(item, u.count)
		changes.Items.Change = append(changes.Items.Change, *item)
	}
	profile.Inventory = append(profile.Inventory, fresh...)
	changes.Items.New = append(changes.Items.New, fresh...)
	setStanding(profile, standing)
	changes.TraderRelations[req.TID] = models.TraderRelation{SalesSum: standing.SalesSum}

	s.log.WithField("session", sessionID).Debugf("Credited %d roubles for trader %s", amount, req.TID)
	return output, nil
}

// Charge takes amount roubles out of the stash for a purchase from traderID.
// Emptied stacks are removed.
func (s *PaymentService) Charge(ctx context.Context, profile *models.Profile, amount int, traderID string, output *models.ItemEventResponse, sessionID string) (*models.ItemEventResponse, error) {
	if amount <= 0 {
		return output, nil
	}

	available := 0
	for i := range profile.Inventory {
		if isMoneyStack(&profile.Inventory[i]) {
			available += profile.Inventory[i].StackCount()
		}
	}
	if available < amount {
		return nil, fmt.Errorf("%w: need %d, have %d", ErrNotEnoughMoney, amount, available)
	}

	remaining := amount
	var updates []stackUpdate
	for i := range profile.Inventory {
		if remaining == 0 {
			break
		}
		item := &profile.Inventory[i]
		if !isMoneyStack(item) {
			continue
		}
		take := min(item.StackCount(), remaining)
		updates = append(updates, stackUpdate{index: i, count: item.StackCount() - take})
		remaining -= take
	}

	var standing models.TraderStanding
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, u := range updates {
			item := profile.Inventory[u.index]
			if u.count == 0 {
				if err := tx.Delete(&models.InventoryItem{}, "id = ?", item.ID).Error; err != nil {
					return err
				}
				continue
			}
			if err := saveCount(tx, &item, u.count); err != nil {
				return err
			}
		}
		var err error
		standing, err = addSales(tx, profile.ID, traderID, int64(amount))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("charge %d roubles: %w", amount, err)
	}

	changes := output.ChangesFor(profile.ID)
	emptied := make(map[string]struct{})
	for _, u := range updates {
		item := &profile.Inventory[u.index]
		if u.count == 0 {
			emptied[item.ID] = struct{}{}
			changes.Items.Del = append(changes.Items.Del, models.InventoryItem{ID: item.ID})
			continue
		}
		item.Upd = withCount(item, u.count)
		changes.Items.Change = append(changes.Items.Change, *item)
	}
	if len(emptied) > 0 {
		kept := profile.Inventory[:0]
		for _, item := range profile.Inventory {
			if _, ok := emptied[item.ID]; !ok {
				kept = append(kept, item)
			}
		}
		profile.Inventory = kept
	}
	setStanding(profile, standing)
	changes.TraderRelations[traderID] = models.TraderRelation{SalesSum: standing.SalesSum}

	s.log.WithField("session", sessionID).Debugf("Charged %d roubles for trader %s", amount, traderID)
	return output, nil
}

func (s *PaymentService) stackMax() int {
	if s.templates != nil {
		if tpl, ok := s.templates.Template(models.RoublesTpl); ok && tpl.StackMaxSize > 0 {
			return tpl.StackMaxSize
		}
	}
	return defaultStackMax
}

func addSales(tx *gorm.DB, profileID, traderID string, amount int64) (models.TraderStanding, error) {
	row := models.TraderStanding{ProfileID: profileID, TraderID: traderID, SalesSum: amount}
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "profile_id"}, {Name: "trader_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"sales_sum": gorm.Expr("trader_standings.sales_sum + ?", amount)}),
	}).Create(&row).Error
	if err != nil {
		return row, err
	}

	var standing models.TraderStanding
	err = tx.Where("profile_id = ? AND trader_id = ?", profileID, traderID).First(&standing).Error
	return standing, err
}

func setStanding(profile *models.Profile, standing models.TraderStanding) {
	for i := range profile.TraderInfo {
		if profile.TraderInfo[i].TraderID == standing.TraderID {
			profile.TraderInfo[i] = standing
			return
		}
	}
	profile.TraderInfo = append(profile.TraderInfo, standing)
}

func saveCount(tx *gorm.DB, item *models.InventoryItem, count int) error {
	return tx.Model(&models.InventoryItem{ID: item.ID}).
		Select("upd").
		Updates(models.InventoryItem{Upd: withCount(item, count)}).Error
}

func withCount(item *models.InventoryItem, count int) *models.ItemUpd {
	next := models.ItemUpd{StackObjectsCount: count}
	if item.Upd != nil {
		next.SpawnedInSession = item.Upd.SpawnedInSession
	}
	return &next
}

func isMoneyStack(item *models.InventoryItem) bool {
	return item.TemplateID == models.RoublesTpl && item.ParentID == ""
}
