// Copyright (c) 2025 BVK Chaitanya

package serum

// Custom error codes returned by the grid trading program.
const (
	ErrUnknownInstruction uint32 = iota
	ErrInvalidInstruction
	ErrMarketAlreadyInitialized
	ErrMarketNotKnown
	ErrUnauthorized
	ErrTraderExists
	ErrInsufficientTokens
	ErrExceededOpenOrdersLimit
	ErrNoTradesFoundOnMarket
	ErrPriceAlreadyTraded
	ErrStopLossLimit
	ErrProfitTooLow
	ErrProgramErr
	ErrUnknownError
)

var errorNames = []string{
	ErrUnknownInstruction:       "UnknownInstruction: instruction is not known by the program",
	ErrInvalidInstruction:       "InvalidInstruction: instruction data is invalid",
	ErrMarketAlreadyInitialized: "MarketAlreadyInitialized: market address is already saved",
	ErrMarketNotKnown:           "MarketNotKnown: market is not initialized",
	ErrUnauthorized:             "Unauthorized: not authorized to perform this action",
	ErrTraderExists:             "TraderExists: trader already exists",
	ErrInsufficientTokens:       "InsufficientTokens: not enough tokens",
	ErrExceededOpenOrdersLimit:  "ExceededOpenOrdersLimit: maximum number of open orders is passed",
	ErrNoTradesFoundOnMarket:    "NoTradesFoundOnMarket: no open trades on the market",
	ErrPriceAlreadyTraded:       "PriceAlreadyTraded: price range already has an unfilled order",
	ErrStopLossLimit:            "StopLossLimit: price is lower than stop loss price",
	ErrProfitTooLow:             "ProfitTooLow: price is too low to place a valid trade",
	ErrProgramErr:               "ProgramErr: program error",
	ErrUnknownError:             "UnknownError: unknown error",
}

// ErrorName returns a readable description for a custom program error code,
// or an empty string if the code is unknown.
func ErrorName(code uint32) string {
	if int(code) < len(errorNames) {
		return errorNames[code]
	}
	return ""
}
