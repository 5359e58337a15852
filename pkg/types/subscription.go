package types

type SubscriptionStatus string

const (
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
	SubscriptionStatusExpired   SubscriptionStatus = "expired"
	SubscriptionStatusTrial     SubscriptionStatus = "trial"
)

// SubscriptionChangeType classifies entries in the subscription history ledger.
type SubscriptionChangeType string

const (
	SubscriptionChangeTypeNew       SubscriptionChangeType = "new"
	SubscriptionChangeTypeUpgrade   SubscriptionChangeType = "upgrade"
	SubscriptionChangeTypeDowngrade SubscriptionChangeType = "downgrade"
	SubscriptionChangeTypeCancel    SubscriptionChangeType = "cancel"
	SubscriptionChangeTypeRenew     SubscriptionChangeType = "renew"
)

type LedgerTransactionType string

const (
	LedgerTransactionTypePayment LedgerTransactionType = "payment"
	LedgerTransactionTypeRefund  LedgerTransactionType = "refund"
)

type LedgerTransactionStatus string

const (
	LedgerTransactionStatusPending   LedgerTransactionStatus = "pending"
	LedgerTransactionStatusCompleted LedgerTransactionStatus = "completed"
	LedgerTransactionStatusFailed    LedgerTransactionStatus = "failed"
)

// ProvisionMode selects how a subscription order affects an existing
// subscription. CreateNew mirrors the historical behavior: every subscription
// order inserts a fresh row, accepting overlapping active windows.
// ExtendExisting renews the user's current active subscription instead.
type ProvisionMode string

const (
	ProvisionModeCreateNew      ProvisionMode = "create_new"
	ProvisionModeExtendExisting ProvisionMode = "extend_existing"
)
