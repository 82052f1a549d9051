package trading

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"blackmarket-trader/internal/models"
)

var ErrUnsupportedTradeType = errors.New("unsupported trade type")

// StockHandler is the host's own trade handling, used for everything this service
// does not take over.
type StockHandler interface {
	BuyItem(ctx context.Context, profile *models.Profile, req *models.BuyRequest, sessionID string) (*models.ItemEventResponse, error)
	SellItem(ctx context.Context, profile *models.Profile, req *models.SellRequest, sessionID string) (*models.ItemEventResponse, error)
}

// Seller confirms sells to the governed trader.
type Seller interface {
	ConfirmSell(ctx context.Context, profile *models.Profile, req *models.SellRequest, sessionID string) (*models.ItemEventResponse, SettlementResult, error)
}

// SaleObserver is told about every settled blackmarket sale.
type SaleObserver interface {
	SaleSettled(sessionID, traderID string, result SettlementResult)
}

// TradingService routes TradingConfirm actions. Only sells to traderID are handled
// here; buys and sells to any other trader go to the stock handler untouched.
type TradingService struct {
	traderID  string
	stock     StockHandler
	seller    Seller
	observers []SaleObserver
	log       logrus.FieldLogger
}

func NewTradingService(traderID string, stock StockHandler, seller Seller, log logrus.FieldLogger) *TradingService {
	return &TradingService{
		traderID: traderID,
		stock:    stock,
		seller:   seller,
		log:      log,
	}
}

func (t *TradingService) AddObserver(o SaleObserver) {
	t.observers = append(t.observers, o)
}

func (t *TradingService) ConfirmTrading(ctx context.Context, profile *models.Profile, req models.TradeRequest, sessionID string) (*models.ItemEventResponse, error) {
	switch r := req.(type) {
	case *models.BuyRequest:
		return t.stock.BuyItem(ctx, profile, r, sessionID)

	case *models.SellRequest:
		if r.TID != t.traderID {
			return t.stock.SellItem(ctx, profile, r, sessionID)
		}

		output, result, err := t.seller.ConfirmSell(ctx, profile, r, sessionID)
		if err != nil {
			t.log.WithError(err).Warnf("Sell batch failed after %d items", result.Accepted)
			return output, err
		}
		for _, o := range t.observers {
			o.SaleSettled(sessionID, r.TID, result)
		}
		return output, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedTradeType, req.TradeType())
	}
}
