package models

import (
	"encoding/json"
	"fmt"
)

const (
	TradeTypeBuy  = "buy_from_trader"
	TradeTypeSell = "sell_to_trader"
)

// TradeRequest is one TradingConfirm action. The concrete type is selected by the
// request's "type" field: *BuyRequest, *SellRequest or *UnknownTradeRequest.
type TradeRequest interface {
	TradeType() string
	Trader() string
}

// BuyRequest asks to buy an item from a trader's assort
type BuyRequest struct {
	Action   string `json:"Action"`
	Type     string `json:"type"`
	TID      string `json:"tid"`
	ItemID   string `json:"item_id"`
	Count    int    `json:"count"`
	SchemeID int    `json:"scheme_id"`
}

func (r *BuyRequest) TradeType() string { return r.Type }
func (r *BuyRequest) Trader() string    { return r.TID }

// SellItem references one owned item instance offered for sale
type SellItem struct {
	ID       string `json:"id"`
	Count    int    `json:"count"`
	SchemeID int    `json:"scheme_id"`
}

// SellRequest asks to sell a batch of owned items to a trader.
// Price is the client's own estimate and is only honored by the stock sell handler.
type SellRequest struct {
	Action string     `json:"Action"`
	Type   string     `json:"type"`
	TID    string     `json:"tid"`
	Items  []SellItem `json:"items"`
	Price  int        `json:"price"`
}

func (r *SellRequest) TradeType() string { return r.Type }
func (r *SellRequest) Trader() string    { return r.TID }

// UnknownTradeRequest carries a TradingConfirm action with an unrecognized type
type UnknownTradeRequest struct {
	Action string `json:"Action"`
	Type   string `json:"type"`
	TID    string `json:"tid"`
}

func (r *UnknownTradeRequest) TradeType() string { return r.Type }
func (r *UnknownTradeRequest) Trader() string    { return r.TID }

// DecodeTradeRequest decodes a raw TradingConfirm action into its concrete request type.
func DecodeTradeRequest(data []byte) (TradeRequest, error) {
	var head UnknownTradeRequest
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("decode trade request: %w", err)
	}

	var req TradeRequest
	switch head.Type {
	case TradeTypeBuy:
		req = &BuyRequest{}
	case TradeTypeSell:
		req = &SellRequest{}
	default:
		return &head, nil
	}

	if err := json.Unmarshal(data, req); err != nil {
		return nil, fmt.Errorf("decode %s request: %w", head.Type, err)
	}
	return req, nil
}
