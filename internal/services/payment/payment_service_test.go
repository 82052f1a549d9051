package payment

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"blackmarket-trader/internal/database"
	"blackmarket-trader/internal/models"
)

type fakeTemplates map[string]models.ItemTemplate

func (f fakeTemplates) Template(id string) (models.ItemTemplate, bool) {
	tpl, ok := f[id]
	return tpl, ok
}

func quietLogger() logrus.FieldLogger {
	log, _ := test.NewNullLogger()
	return log
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Initialize("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	return db
}

func money(id string, count int) models.InventoryItem {
	return models.InventoryItem{ID: id, TemplateID: models.RoublesTpl, Upd: &models.ItemUpd{StackObjectsCount: count}}
}

func newProfile(t *testing.T, db *gorm.DB, slots int, items ...models.InventoryItem) *models.Profile {
	t.Helper()
	profile := &models.Profile{ID: "pmc1", SessionID: "sess1", Username: "player", StashSlots: slots, Inventory: items}
	require.NoError(t, db.Create(profile).Error)
	return profile
}

func newService(db *gorm.DB, stackMax int) *PaymentService {
	return NewPaymentService(db, fakeTemplates{models.RoublesTpl: {ID: models.RoublesTpl, StackMaxSize: stackMax}}, quietLogger())
}

func sale(tid string) *models.SellRequest {
	return &models.SellRequest{Type: models.TradeTypeSell, TID: tid}
}

func stackCounts(profile *models.Profile) []int {
	var counts []int
	for i := range profile.Inventory {
		if profile.Inventory[i].TemplateID == models.RoublesTpl {
			counts = append(counts, profile.Inventory[i].StackCount())
		}
	}
	return counts
}

func TestCredit_TopsUpExistingStack(t *testing.T) {
	db := newTestDB(t)
	profile := newProfile(t, db, 10, money("m1", 100))
	svc := newService(db, 1000)

	output, err := svc.Credit(context.Background(), profile, 250, sale("blackmarket"), models.NewItemEventResponse(), "sess1")
	require.NoError(t, err)

	assert.Equal(t, []int{350}, stackCounts(profile))
	changes := output.ProfileChanges["pmc1"]
	require.Len(t, changes.Items.Change, 1)
	assert.Empty(t, changes.Items.New)
	assert.Equal(t, int64(250), changes.TraderRelations["blackmarket"].SalesSum)

	var stored models.InventoryItem
	require.NoError(t, db.First(&stored, "id = ?", "m1").Error)
	assert.Equal(t, 350, stored.StackCount())
}

func TestCredit_OpensNewStacks(t *testing.T) {
	db := newTestDB(t)
	profile := newProfile(t, db, 10, money("m1", 900))
	svc := newService(db, 1000)

	output, err := svc.Credit(context.Background(), profile, 2300, sale("blackmarket"), models.NewItemEventResponse(), "sess1")
	require.NoError(t, err)

	assert.Equal(t, []int{1000, 1000, 1000, 200}, stackCounts(profile))
	assert.Len(t, output.ProfileChanges["pmc1"].Items.New, 3)

	var count int64
	require.NoError(t, db.Model(&models.InventoryItem{}).Where("template_id = ?", models.RoublesTpl).Count(&count).Error)
	assert.Equal(t, int64(4), count)
}

func TestCredit_NotEnoughSpace(t *testing.T) {
	db := newTestDB(t)
	profile := newProfile(t, db, 1, money("m1", 1000))
	svc := newService(db, 1000)

	_, err := svc.Credit(context.Background(), profile, 500, sale("blackmarket"), models.NewItemEventResponse(), "sess1")
	assert.ErrorIs(t, err, ErrNotEnoughSpace)

	assert.Equal(t, []int{1000}, stackCounts(profile))
	var count int64
	require.NoError(t, db.Model(&models.TraderStanding{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCredit_AccumulatesSalesSum(t *testing.T) {
	db := newTestDB(t)
	profile := newProfile(t, db, 10)
	svc := newService(db, 1000)
	ctx := context.Background()

	_, err := svc.Credit(ctx, profile, 300, sale("blackmarket"), models.NewItemEventResponse(), "sess1")
	require.NoError(t, err)
	output, err := svc.Credit(ctx, profile, 200, sale("blackmarket"), models.NewItemEventResponse(), "sess1")
	require.NoError(t, err)

	assert.Equal(t, int64(500), output.ProfileChanges["pmc1"].TraderRelations["blackmarket"].SalesSum)
	require.Len(t, profile.TraderInfo, 1)
	assert.Equal(t, int64(500), profile.TraderInfo[0].SalesSum)
}

func TestCredit_ZeroIsNoop(t *testing.T) {
	db := newTestDB(t)
	profile := newProfile(t, db, 10, money("m1", 100))
	svc := newService(db, 1000)

	output, err := svc.Credit(context.Background(), profile, 0, sale("blackmarket"), models.NewItemEventResponse(), "sess1")
	require.NoError(t, err)
	assert.Empty(t, output.ProfileChanges)
	assert.Equal(t, []int{100}, stackCounts(profile))
}

func TestCharge_NotEnoughMoney(t *testing.T) {
	db := newTestDB(t)
	profile := newProfile(t, db, 10, money("m1", 100))
	svc := newService(db, 1000)

	_, err := svc.Charge(context.Background(), profile, 101, "prapor", models.NewItemEventResponse(), "sess1")
	assert.ErrorIs(t, err, ErrNotEnoughMoney)
	assert.Equal(t, []int{100}, stackCounts(profile))
}

func TestCharge_RemovesEmptiedStacks(t *testing.T) {
	db := newTestDB(t)
	profile := newProfile(t, db, 10, money("m1", 100), money("m2", 500))
	svc := newService(db, 1000)

	output, err := svc.Charge(context.Background(), profile, 300, "prapor", models.NewItemEventResponse(), "sess1")
	require.NoError(t, err)

	assert.Equal(t, []int{300}, stackCounts(profile))
	changes := output.ProfileChanges["pmc1"]
	assert.Equal(t, []models.InventoryItem{{ID: "m1"}}, changes.Items.Del)
	require.Len(t, changes.Items.Change, 1)
	assert.Equal(t, "m2", changes.Items.Change[0].ID)

	var count int64
	require.NoError(t, db.Model(&models.InventoryItem{}).Where("id = ?", "m1").Count(&count).Error)
	assert.Zero(t, count)
}

func TestStackMax_DefaultsWithoutTemplate(t *testing.T) {
	svc := NewPaymentService(nil, fakeTemplates{}, quietLogger())
	assert.Equal(t, defaultStackMax, svc.stackMax())
}
