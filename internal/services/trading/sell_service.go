package trading

import (
	"context"

	"github.com/sirupsen/logrus"

	"blackmarket-trader/internal/models"
	"blackmarket-trader/internal/services/price"
)

// PriceResolver rebuilds the price table and returns the snapshot it built.
type PriceResolver interface {
	ResolveAll() (*price.Table, error)
}

// InventoryMutator removes an owned item (and everything inside it) from a profile.
type InventoryMutator interface {
	Remove(ctx context.Context, profile *models.Profile, itemID, sessionID string, output *models.ItemEventResponse) (*models.ItemEventResponse, error)
}

// PaymentSettler credits the seller for a completed sale.
type PaymentSettler interface {
	Credit(ctx context.Context, profile *models.Profile, amount int, req *models.SellRequest, output *models.ItemEventResponse, sessionID string) (*models.ItemEventResponse, error)
}

// OutputHolder hands out the response envelope of the request being processed.
type OutputHolder interface {
	Output(sessionID string) *models.ItemEventResponse
}

// SettlementResult summarizes one sell batch
type SettlementResult struct {
	Requested int `json:"requested"`
	Accepted  int `json:"accepted"`
	Total     int `json:"total"`
}

type SellOptions struct {
	IgnoreFoundInRaidRequirement bool
}

// SellService confirms sells to the blackmarket trader at live market prices.
type SellService struct {
	prices    PriceResolver
	inventory InventoryMutator
	payment   PaymentSettler
	outputs   OutputHolder
	opts      SellOptions
	log       logrus.FieldLogger
}

func NewSellService(prices PriceResolver, inventory InventoryMutator, payment PaymentSettler, outputs OutputHolder, opts SellOptions, log logrus.FieldLogger) *SellService {
	return &SellService{
		prices:    prices,
		inventory: inventory,
		payment:   payment,
		outputs:   outputs,
		opts:      opts,
		log:       log,
	}
}

// ConfirmSell sells every acceptable item of the batch and credits the total.
//
// Each item is handled on its own: items missing from the inventory are skipped,
// items without metadata, without found-in-raid provenance or without a market price
// are rejected, and none of these stop the rest of the batch. Removals already made
// stay in place when the final credit fails; that error is returned as is.
func (s *SellService) ConfirmSell(ctx context.Context, profile *models.Profile, req *models.SellRequest, sessionID string) (*models.ItemEventResponse, SettlementResult, error) {
	result := SettlementResult{Requested: len(req.Items)}

	table, err := s.prices.ResolveAll()
	if err != nil {
		return nil, result, err
	}

	output := s.outputs.Output(sessionID)

	for _, tradeItem := range req.Items {
		item, ok := profile.FindItem(tradeItem.ID)
		if !ok {
			continue
		}
		s.log.Debugf("Selling item: %s", item.TemplateID)

		if item.Upd == nil {
			s.log.Debugf("Cannot sell item %s: item has no upd", item.ID)
			continue
		}

		if !item.Upd.SpawnedInSession && !s.opts.IgnoreFoundInRaidRequirement {
			s.log.Debugf("Cannot sell item %s: item is not found in raid", item.ID)
			continue
		}

		itemPrice, ok := table.Price(item.TemplateID)
		if !ok {
			s.log.Debugf("Cannot sell item %s: price is not found", item.ID)
			continue
		}

		// Remove invalidates item, keep what is needed afterwards
		tpl := item.TemplateID
		output, err = s.inventory.Remove(ctx, profile, tradeItem.ID, sessionID, output)
		if err != nil {
			return output, result, err
		}
		s.log.Infof("Sold item: %s for %d", tpl, itemPrice)

		result.Total += itemPrice
		result.Accepted++
	}

	s.log.Infof("Sold %d items", result.Accepted)

	output, err = s.payment.Credit(ctx, profile, result.Total, req, output, sessionID)
	return output, result, err
}
