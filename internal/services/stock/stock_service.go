package stock

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"blackmarket-trader/internal/models"
)

var ErrUnknownTemplate = errors.New("unknown item template")

type TemplateLookup interface {
	Template(id string) (models.ItemTemplate, bool)
}

type Inventory interface {
	Remove(ctx context.Context, profile *models.Profile, itemID, sessionID string, output *models.ItemEventResponse) (*models.ItemEventResponse, error)
	Add(ctx context.Context, profile *models.Profile, tpl string, upd *models.ItemUpd, output *models.ItemEventResponse) (*models.InventoryItem, error)
}

type Payment interface {
	Credit(ctx context.Context, profile *models.Profile, amount int, req *models.SellRequest, output *models.ItemEventResponse, sessionID string) (*models.ItemEventResponse, error)
	Charge(ctx context.Context, profile *models.Profile, amount int, traderID string, output *models.ItemEventResponse, sessionID string) (*models.ItemEventResponse, error)
}

type OutputHolder interface {
	Output(sessionID string) *models.ItemEventResponse
}

// StockService is the host's regular trader handling: buys at catalog base price
// and sells at whatever price the client quoted.
type StockService struct {
	templates TemplateLookup
	inventory Inventory
	payment   Payment
	outputs   OutputHolder
	log       logrus.FieldLogger
}

func NewStockService(templates TemplateLookup, inventory Inventory, payment Payment, outputs OutputHolder, log logrus.FieldLogger) *StockService {
	return &StockService{
		templates: templates,
		inventory: inventory,
		payment:   payment,
		outputs:   outputs,
		log:       log,
	}
}

func (s *StockService) BuyItem(ctx context.Context, profile *models.Profile, req *models.BuyRequest, sessionID string) (*models.ItemEventResponse, error) {
	output := s.outputs.Output(sessionID)

	tpl, ok := s.templates.Template(req.ItemID)
	if !ok {
		return output, fmt.Errorf("%w: %s", ErrUnknownTemplate, req.ItemID)
	}

	count := req.Count
	if count <= 0 {
		count = 1
	}

	output, err := s.payment.Charge(ctx, profile, tpl.BasePrice*count, req.TID, output, sessionID)
	if err != nil {
		return output, err
	}

	for i := 0; i < count; i++ {
		if _, err := s.inventory.Add(ctx, profile, tpl.ID, &models.ItemUpd{}, output); err != nil {
			return output, err
		}
	}

	s.log.Infof("Bought %d x %s from %s", count, tpl.ID, req.TID)
	return output, nil
}

func (s *StockService) SellItem(ctx context.Context, profile *models.Profile, req *models.SellRequest, sessionID string) (*models.ItemEventResponse, error) {
	output := s.outputs.Output(sessionID)

	for _, tradeItem := range req.Items {
		var err error
		output, err = s.inventory.Remove(ctx, profile, tradeItem.ID, sessionID, output)
		if err != nil {
			return output, err
		}
	}

	s.log.Infof("Sold %d items to %s for %d", len(req.Items), req.TID, req.Price)
	return s.payment.Credit(ctx, profile, req.Price, req, output, sessionID)
}
