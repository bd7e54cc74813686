package types

import errorsmod "cosmossdk.io/errors"

// Ledger sentinel errors. Codes are part of the external surface (they map to
// ABCI tx result codes), so they must stay stable. Code 1 is left unregistered
// for malformed-transaction failures.
var (
	ErrInvalidAmount        = errorsmod.Register(ModuleName, 2, "invalid amount")
	ErrInsufficientFunds    = errorsmod.Register(ModuleName, 3, "insufficient funds")
	ErrTreasuryInsufficient = errorsmod.Register(ModuleName, 4, "treasury cannot cover payout")
	ErrInvalidBet           = errorsmod.Register(ModuleName, 5, "invalid bet amount")
	ErrInvalidChoice        = errorsmod.Register(ModuleName, 6, "choice outside game domain")
	ErrUnauthorized         = errorsmod.Register(ModuleName, 7, "unauthorized")
	ErrNotFound             = errorsmod.Register(ModuleName, 8, "not found")
	ErrIndexOutOfRange      = errorsmod.Register(ModuleName, 9, "index out of range")
	ErrInvalidRequest       = errorsmod.Register(ModuleName, 10, "invalid request")
)
