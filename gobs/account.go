// Copyright (c) 2025 BVK Chaitanya

package gobs

// Account lifecycle statuses.
const (
	StatusRegistered     = "Registered"
	StatusInitialized    = "Initialized"
	StatusDecommissioned = "Decommissioned"
	StatusStopped        = "Stopped"
)

// Grid level statuses.
const (
	LevelIdle         = "Idle"
	LevelAwaitingBuy  = "AwaitingBuy"
	LevelAwaitingSell = "AwaitingSell"
	LevelViolated     = "Violated"
)

// Order sides.
const (
	SideBuy  = "buy"
	SideSell = "sell"
)

type TokenInfo struct {
	Symbol   string `json:"symbol"`
	Mint     string `json:"address"`
	Decimals uint8  `json:"decimals"`
}

// OrderRef summarizes the resting order believed to occupy a grid level.
type OrderRef struct {
	// Price is in quote lots per base lot.
	Price uint64 `json:"price"`

	// Size is in base lots.
	Size uint64 `json:"size"`

	Side string `json:"side"`

	ClientOrderID uint64 `json:"client_order_id"`

	// Owner is the open orders account holding the order. It is empty until
	// the order is observed in the book.
	Owner string `json:"owner"`

	// OrderID is the decimal form of the exchange assigned order id.
	OrderID string `json:"order_id"`

	IsFilled bool `json:"is_filled"`
}

type GridLevel struct {
	Price  uint64    `json:"price"`
	Status string    `json:"status"`
	Order  *OrderRef `json:"order,omitempty"`
}

// TradingAccount is the persisted record of one grid trading account on a
// market. Prices are in quote lots per base lot and balances are in native
// token units.
type TradingAccount struct {
	MarketAddress string    `json:"market_address"`
	BaseToken     TokenInfo `json:"base_token_info"`
	QuoteToken    TokenInfo `json:"quote_token_info"`

	// TraderKeypair is the base58 encoded signing key secret.
	TraderKeypair string `json:"trader_keypair"`

	BaseWallet  string `json:"base_trader_wallet"`
	QuoteWallet string `json:"quote_trader_wallet"`

	// OpenOrders holds the exchange order container accounts. First one is
	// used for trading.
	OpenOrders []string `json:"serum_open_orders"`

	Owner string `json:"owner"`

	Grids         uint64 `json:"grids"`
	AmountPerGrid uint64 `json:"amount_per_grid"`
	UpperPrice    uint64 `json:"upper_price_range"`
	LowerPrice    uint64 `json:"lower_price_range"`
	StopPriceHigh Amount `json:"stopping_price_high"`
	StopPriceLow  Amount `json:"stopping_price_low"`

	StartingPriceBuy     uint64 `json:"starting_price_buy"`
	StartingPriceSell    uint64 `json:"starting_price_sell"`
	StartingBaseBalance  uint64 `json:"starting_base_balance"`
	StartingQuoteBalance uint64 `json:"starting_quote_balance"`
	DepositedBase        Amount `json:"deposited_base_balance"`
	DepositedQuote       Amount `json:"deposited_quote_balance"`
	WithdrawnBase        Amount `json:"withdrawn_base_balance"`
	WithdrawnQuote       Amount `json:"withdrawn_quote_balance"`
	StartingValue        uint64 `json:"starting_value"`

	BaseBalance  uint64 `json:"base_balance"`
	QuoteBalance uint64 `json:"quote_balance"`
	Value        uint64 `json:"value"`

	TotalTxs uint64 `json:"total_txs"`

	// RegisterDate is in unix seconds.
	RegisterDate int64 `json:"register_date"`

	Status string `json:"status"`

	// Revision is incremented on every save.
	Revision uint64 `json:"revision"`

	Levels []*GridLevel `json:"levels"`
}
