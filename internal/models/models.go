package models

import (
	"time"
)

// RoublesTpl is the template id of the currency every trader in the catalog settles in.
const RoublesTpl = "5449016a4bdc2d6f028b456f"

// ItemTemplate represents a catalog entry for a class of tradable item
type ItemTemplate struct {
	ID              string `json:"_id" gorm:"primaryKey"`
	Name            string `json:"_name" gorm:"not null"`
	ParentID        string `json:"_parent"`
	CanSellOnMarket bool   `json:"CanSellOnRagfair"`
	BasePrice       int    `json:"basePrice"`
	StackMaxSize    int    `json:"StackMaxSize" gorm:"default:1"`
}

// ItemUpd is the mutable metadata record of an owned item
type ItemUpd struct {
	SpawnedInSession  bool `json:"SpawnedInSession"`
	StackObjectsCount int  `json:"StackObjectsCount,omitempty"`
}

// InventoryItem represents a concrete item owned by a profile.
// Items with an empty ParentID sit directly in the stash and take one slot each.
type InventoryItem struct {
	ID         string   `json:"_id" gorm:"primaryKey"`
	ProfileID  string   `json:"-" gorm:"index;not null"`
	TemplateID string   `json:"_tpl" gorm:"not null"`
	ParentID   string   `json:"parentId,omitempty" gorm:"index"`
	SlotID     string   `json:"slotId,omitempty"`
	Upd        *ItemUpd `json:"upd,omitempty" gorm:"serializer:json"`
}

// StackCount returns the number of objects in the stack, 1 for unstacked items.
func (i *InventoryItem) StackCount() int {
	if i.Upd == nil || i.Upd.StackObjectsCount <= 0 {
		return 1
	}
	return i.Upd.StackObjectsCount
}

// Profile represents a player's account and character state
type Profile struct {
	ID           string           `json:"_id" gorm:"primaryKey"`
	SessionID    string           `json:"sessionId" gorm:"uniqueIndex;not null"`
	Username     string           `json:"username" gorm:"uniqueIndex;not null"`
	PasswordHash string           `json:"-"`
	StashSlots   int              `json:"stashSlots" gorm:"default:100"`
	Inventory    []InventoryItem  `json:"items" gorm:"foreignKey:ProfileID"`
	TraderInfo   []TraderStanding `json:"tradersInfo" gorm:"foreignKey:ProfileID"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// FindItem returns the inventory item with the given instance id.
func (p *Profile) FindItem(itemID string) (*InventoryItem, bool) {
	for i := range p.Inventory {
		if p.Inventory[i].ID == itemID {
			return &p.Inventory[i], true
		}
	}
	return nil, false
}

// TraderStanding tracks a profile's running totals with one trader
type TraderStanding struct {
	ID        uint   `json:"-" gorm:"primaryKey"`
	ProfileID string `json:"-" gorm:"uniqueIndex:idx_standing_profile_trader;not null"`
	TraderID  string `json:"traderId" gorm:"uniqueIndex:idx_standing_profile_trader;not null"`
	SalesSum  int64  `json:"salesSum"`
}

// Trader represents a counterparty registered in the host catalog
type Trader struct {
	ID           string    `json:"_id" gorm:"primaryKey"`
	Name         string    `json:"name"`
	Nickname     string    `json:"nickname"`
	Location     string    `json:"location"`
	Avatar       string    `json:"avatar"`
	Currency     string    `json:"currency"`
	NextResupply int64     `json:"nextResupply"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Locale is a language the host serves trader texts in
type Locale struct {
	Code string `json:"code" gorm:"primaryKey"`
}

// TraderLocale holds the per-language display texts of a trader
type TraderLocale struct {
	ID          uint   `json:"-" gorm:"primaryKey"`
	Locale      string `json:"locale" gorm:"uniqueIndex:idx_locale_trader;not null"`
	TraderID    string `json:"traderId" gorm:"uniqueIndex:idx_locale_trader;not null"`
	FullName    string `json:"FullName"`
	FirstName   string `json:"FirstName"`
	Nickname    string `json:"Nickname"`
	Location    string `json:"Location"`
	Description string `json:"Description"`
}

// TraderUpdateTime is the host's stock refresh interval for one trader
type TraderUpdateTime struct {
	TraderID string `json:"traderId" gorm:"primaryKey"`
	Seconds  int    `json:"seconds" gorm:"not null"`
}
