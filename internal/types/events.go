package types

// Event type names emitted by the ledger. Indexers and the UI key off these,
// so keep them stable.
const (
	EventTypeAccountRegistered = "AccountRegistered"

	EventTypeFundsDeposited = "FundsDeposited"
	EventTypeFundsWithdrawn = "FundsWithdrawn"

	EventTypeHouseFundsDeposited = "HouseFundsDeposited"
	EventTypeHouseFundsWithdrawn = "HouseFundsWithdrawn"

	EventTypeGameSettled = "GameSettled"
	// BalanceDeltaSealed carries the play's signed balance delta encrypted
	// under the player's registered reveal key; only the owner can open it.
	EventTypeBalanceDeltaSealed = "BalanceDeltaSealed"

	EventTypeRevealRequested = "RevealRequested"
	EventTypeBalanceRevealed = "BalanceRevealed"
)
