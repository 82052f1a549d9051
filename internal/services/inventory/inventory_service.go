package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"blackmarket-trader/internal/models"
)

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrItemNotFound    = errors.New("item not found")
)

// InventoryService mutates profile inventories, keeping the loaded profile and the
// database in step.
type InventoryService struct {
	db  *gorm.DB
	log logrus.FieldLogger
}

func NewInventoryService(db *gorm.DB, log logrus.FieldLogger) *InventoryService {
	return &InventoryService{db: db, log: log}
}

// Profile loads the profile bound to a session with its items and trader standings.
func (s *InventoryService) Profile(ctx context.Context, sessionID string) (*models.Profile, error) {
	var profile models.Profile
	err := s.db.WithContext(ctx).
		Preload("Inventory").
		Preload("TraderInfo").
		Where("session_id = ?", sessionID).
		First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	return &profile, nil
}

// Remove deletes an item and everything nested inside it, and records the removal
// in output.
func (s *InventoryService) Remove(ctx context.Context, profile *models.Profile, itemID, sessionID string, output *models.ItemEventResponse) (*models.ItemEventResponse, error) {
	if _, ok := profile.FindItem(itemID); !ok {
		return output, fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
	}

	ids := collectTree(profile.Inventory, itemID)
	if err := s.db.WithContext(ctx).
		Where("profile_id = ? AND id IN ?", profile.ID, ids).
		Delete(&models.InventoryItem{}).Error; err != nil {
		return output, fmt.Errorf("remove item %s: %w", itemID, err)
	}

	remove := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		remove[id] = struct{}{}
	}

	changes := output.ChangesFor(profile.ID)
	kept := profile.Inventory[:0]
	for _, item := range profile.Inventory {
		if _, ok := remove[item.ID]; ok {
			if item.ID == itemID {
				changes.Items.Del = append(changes.Items.Del, models.InventoryItem{ID: item.ID})
			}
			continue
		}
		kept = append(kept, item)
	}
	profile.Inventory = kept

	s.log.WithField("session", sessionID).Debugf("Removed item %s (%d entries)", itemID, len(ids))
	return output, nil
}

// Add creates a new item in the stash and records it in output.
func (s *InventoryService) Add(ctx context.Context, profile *models.Profile, tpl string, upd *models.ItemUpd, output *models.ItemEventResponse) (*models.InventoryItem, error) {
	item := models.InventoryItem{
		ID:         uuid.NewString(),
		ProfileID:  profile.ID,
		TemplateID: tpl,
		SlotID:     "hideout",
		Upd:        upd,
	}
	if err := s.db.WithContext(ctx).Create(&item).Error; err != nil {
		return nil, fmt.Errorf("add item %s: %w", tpl, err)
	}

	profile.Inventory = append(profile.Inventory, item)
	changes := output.ChangesFor(profile.ID)
	changes.Items.New = append(changes.Items.New, item)
	return &profile.Inventory[len(profile.Inventory)-1], nil
}

// FreeSlots is the number of stash slots not taken by a top level item.
func FreeSlots(profile *models.Profile) int {
	used := 0
	for _, item := range profile.Inventory {
		if item.ParentID == "" {
			used++
		}
	}
	if free := profile.StashSlots - used; free > 0 {
		return free
	}
	return 0
}

// collectTree returns rootID followed by the ids of all of its descendants.
func collectTree(items []models.InventoryItem, rootID string) []string {
	children := make(map[string][]string)
	for _, item := range items {
		if item.ParentID != "" {
			children[item.ParentID] = append(children[item.ParentID], item.ID)
		}
	}

	ids := []string{rootID}
	for i := 0; i < len(ids); i++ {
		ids = append(ids, children[ids[i]]...)
	}
	return ids
}
