package trading

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blackmarket-trader/internal/models"
	"blackmarket-trader/internal/services/price"
)

type fakeCatalog []models.ItemTemplate

func (c fakeCatalog) Templates() []models.ItemTemplate { return c }

type fakeSource map[string]int

func (s fakeSource) PriceFor(tpl string) (int, bool) {
	p, ok := s[tpl]
	return p, ok
}

type fakeInventory struct {
	removed []string
	err     error
}

func (f *fakeInventory) Remove(ctx context.Context, profile *models.Profile, itemID, sessionID string, output *models.ItemEventResponse) (*models.ItemEventResponse, error) {
	if f.err != nil {
		return output, f.err
	}
	for i, item := range profile.Inventory {
		if item.ID == itemID {
			profile.Inventory = append(profile.Inventory[:i], profile.Inventory[i+1:]...)
			break
		}
	}
	f.removed = append(f.removed, itemID)
	changes := output.ChangesFor(profile.ID)
	changes.Items.Del = append(changes.Items.Del, models.InventoryItem{ID: itemID})
	return output, nil
}

type fakePayment struct {
	credited []int
	err      error
}

func (f *fakePayment) Credit(ctx context.Context, profile *models.Profile, amount int, req *models.SellRequest, output *models.ItemEventResponse, sessionID string) (*models.ItemEventResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.credited = append(f.credited, amount)
	return output, nil
}

type fakeOutputs struct{}

func (fakeOutputs) Output(sessionID string) *models.ItemEventResponse {
	return models.NewItemEventResponse()
}

func quietLogger() logrus.FieldLogger {
	log, _ := test.NewNullLogger()
	return log
}

func newResolver(ignoreEligibility bool) *price.Resolver {
	catalog := fakeCatalog{
		{ID: "widget", Name: "Widget", CanSellOnMarket: true},
		{ID: "gadget", Name: "Gadget", CanSellOnMarket: true},
		{ID: "junk", Name: "Junk", CanSellOnMarket: true},
	}
	source := fakeSource{"widget": 1000, "gadget": 250}
	return price.NewResolver(catalog, source, price.Options{IgnoreMarketEligibility: ignoreEligibility}, quietLogger())
}

func fir(found bool) *models.ItemUpd {
	return &models.ItemUpd{SpawnedInSession: found}
}

func sellRequest(ids ...string) *models.SellRequest {
	req := &models.SellRequest{Type: models.TradeTypeSell, TID: "blackmarket"}
	for _, id := range ids {
		req.Items = append(req.Items, models.SellItem{ID: id, Count: 1})
	}
	return req
}

func newSellService(inv *fakeInventory, pay *fakePayment, opts SellOptions) *SellService {
	return NewSellService(newResolver(false), inv, pay, fakeOutputs{}, opts, quietLogger())
}

func TestConfirmSell_MixedBatch(t *testing.T) {
	profile := &models.Profile{
		ID: "pmc1",
		Inventory: []models.InventoryItem{
			{ID: "i1", TemplateID: "widget", Upd: fir(true)},
			{ID: "i2", TemplateID: "widget"},
		},
	}
	inv := &fakeInventory{}
	pay := &fakePayment{}
	svc := newSellService(inv, pay, SellOptions{})

	output, result, err := svc.ConfirmSell(context.Background(), profile, sellRequest("i1", "i2", "ghost"), "sess1")
	require.NoError(t, err)

	assert.Equal(t, 1, result.Accepted)
	assert.Equal(t, 1000, result.Total)
	assert.Equal(t, 3, result.Requested)
	assert.Equal(t, []int{1000}, pay.credited)
	assert.Equal(t, []string{"i1"}, inv.removed)

	require.Contains(t, output.ProfileChanges, "pmc1")
	assert.Len(t, output.ProfileChanges["pmc1"].Items.Del, 1)

	_, stillThere := profile.FindItem("i2")
	assert.True(t, stillThere)
}

func TestConfirmSell_MissingMetadataNeverAccepted(t *testing.T) {
	profile := &models.Profile{
		ID:        "pmc1",
		Inventory: []models.InventoryItem{{ID: "i1", TemplateID: "widget"}},
	}
	inv := &fakeInventory{}
	pay := &fakePayment{}
	svc := NewSellService(newResolver(true), inv, pay, fakeOutputs{}, SellOptions{IgnoreFoundInRaidRequirement: true}, quietLogger())

	_, result, err := svc.ConfirmSell(context.Background(), profile, sellRequest("i1"), "sess1")
	require.NoError(t, err)

	assert.Equal(t, 0, result.Accepted)
	assert.Equal(t, 0, result.Total)
	assert.Empty(t, inv.removed)
	assert.Equal(t, []int{0}, pay.credited)
}

func TestConfirmSell_FoundInRaidRequirement(t *testing.T) {
	tests := []struct {
		name         string
		ignoreFIR    bool
		wantAccepted int
		wantTotal    int
	}{
		{name: "enforced", ignoreFIR: false, wantAccepted: 0, wantTotal: 0},
		{name: "ignored", ignoreFIR: true, wantAccepted: 1, wantTotal: 250},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile := &models.Profile{
				ID:        "pmc1",
				Inventory: []models.InventoryItem{{ID: "i1", TemplateID: "gadget", Upd: fir(false)}},
			}
			inv := &fakeInventory{}
			pay := &fakePayment{}
			svc := newSellService(inv, pay, SellOptions{IgnoreFoundInRaidRequirement: tt.ignoreFIR})

			_, result, err := svc.ConfirmSell(context.Background(), profile, sellRequest("i1"), "sess1")
			require.NoError(t, err)

			assert.Equal(t, tt.wantAccepted, result.Accepted)
			assert.Equal(t, tt.wantTotal, result.Total)
		})
	}
}

func TestConfirmSell_UnpricedTypeRejected(t *testing.T) {
	profile := &models.Profile{
		ID: "pmc1",
		Inventory: []models.InventoryItem{
			{ID: "i1", TemplateID: "junk", Upd: fir(true)},
			{ID: "i2", TemplateID: "gadget", Upd: fir(true)},
		},
	}
	inv := &fakeInventory{}
	pay := &fakePayment{}
	svc := newSellService(inv, pay, SellOptions{})

	_, result, err := svc.ConfirmSell(context.Background(), profile, sellRequest("i1", "i2"), "sess1")
	require.NoError(t, err)

	assert.Equal(t, 1, result.Accepted)
	assert.Equal(t, 250, result.Total)
	assert.Equal(t, []string{"i2"}, inv.removed)
}

func TestConfirmSell_TotalMatchesAcceptedPrices(t *testing.T) {
	var items []models.InventoryItem
	var ids []string
	want := 0
	for i, tpl := range []string{"widget", "gadget", "junk", "widget", "gadget", "gadget"} {
		id := tpl + string(rune('a'+i))
		items = append(items, models.InventoryItem{ID: id, TemplateID: tpl, Upd: fir(i%2 == 0)})
		ids = append(ids, id)
		if i%2 == 0 && tpl != "junk" {
			want += map[string]int{"widget": 1000, "gadget": 250}[tpl]
		}
	}
	ids = append(ids, "missing-1", "missing-2")

	profile := &models.Profile{ID: "pmc1", Inventory: items}
	inv := &fakeInventory{}
	pay := &fakePayment{}
	svc := newSellService(inv, pay, SellOptions{})

	_, result, err := svc.ConfirmSell(context.Background(), profile, sellRequest(ids...), "sess1")
	require.NoError(t, err)

	assert.LessOrEqual(t, result.Accepted, len(ids))
	assert.Equal(t, len(inv.removed), result.Accepted)
	assert.Equal(t, want, result.Total)
	assert.Equal(t, []int{want}, pay.credited)
}

func TestConfirmSell_PaymentFailureKeepsRemovals(t *testing.T) {
	profile := &models.Profile{
		ID: "pmc1",
		Inventory: []models.InventoryItem{
			{ID: "i1", TemplateID: "widget", Upd: fir(true)},
			{ID: "i2", TemplateID: "gadget", Upd: fir(true)},
		},
	}
	payErr := errors.New("not enough space for money")
	inv := &fakeInventory{}
	pay := &fakePayment{err: payErr}
	svc := newSellService(inv, pay, SellOptions{})

	_, result, err := svc.ConfirmSell(context.Background(), profile, sellRequest("i1", "i2"), "sess1")
	assert.Same(t, payErr, err)

	assert.Equal(t, 2, result.Accepted)
	assert.Equal(t, []string{"i1", "i2"}, inv.removed)
	assert.Empty(t, profile.Inventory)
}

func TestConfirmSell_InventoryErrorAbortsBatch(t *testing.T) {
	profile := &models.Profile{
		ID:        "pmc1",
		Inventory: []models.InventoryItem{{ID: "i1", TemplateID: "widget", Upd: fir(true)}},
	}
	inv := &fakeInventory{err: errors.New("disk gone")}
	pay := &fakePayment{}
	svc := newSellService(inv, pay, SellOptions{})

	_, _, err := svc.ConfirmSell(context.Background(), profile, sellRequest("i1"), "sess1")
	assert.Error(t, err)
	assert.Empty(t, pay.credited)
}

func TestConfirmSell_ReadsFreshPrices(t *testing.T) {
	source := fakeSource{"widget": 1000}
	resolver := price.NewResolver(fakeCatalog{{ID: "widget", Name: "Widget", CanSellOnMarket: true}}, source, price.Options{}, quietLogger())

	profile := &models.Profile{
		ID: "pmc1",
		Inventory: []models.InventoryItem{
			{ID: "i1", TemplateID: "widget", Upd: fir(true)},
			{ID: "i2", TemplateID: "widget", Upd: fir(true)},
		},
	}
	pay := &fakePayment{}
	svc := NewSellService(resolver, &fakeInventory{}, pay, fakeOutputs{}, SellOptions{}, quietLogger())

	_, _, err := svc.ConfirmSell(context.Background(), profile, sellRequest("i1"), "sess1")
	require.NoError(t, err)

	source["widget"] = 1500
	_, result, err := svc.ConfirmSell(context.Background(), profile, sellRequest("i2"), "sess1")
	require.NoError(t, err)

	assert.Equal(t, 1500, result.Total)
	assert.Equal(t, []int{1000, 1500}, pay.credited)
}
