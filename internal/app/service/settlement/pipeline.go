package settlement

import (
	"context"
	"time"

	"github.com/coursemint/settlement/internal/models"
	"github.com/coursemint/settlement/pkg/types"
)

// SettleRequest is the payment settlement entry point's wire shape.
type SettleRequest struct {
	CourseID *string `json:"courseId"`
	Amount   float64 `json:"amount"`
	UserID   string  `json:"userId"`
	// OrderNumber is generated when omitted.
	OrderNumber string `json:"orderNumber"`
	// SubscriptionDetails is accepted for forward compatibility and only logged.
	SubscriptionDetails map[string]any `json:"subscriptionDetails"`
	OriginalAmount      *float64       `json:"original_amount"`
	PaymentType         string         `json:"paymentType"`
	Currency            string         `json:"currency"`
}

// StepFailure describes a best-effort step that failed without failing the
// settlement. Discoverable through logs and the diagnostics utility.
type StepFailure struct {
	Step string `json:"step"`
	Err  string `json:"err"`
}

// SettleResult is returned when the order itself settled, regardless of
// downstream partial failures.
type SettleResult struct {
	Order            *models.Order            `json:"order"`
	Subscription     *models.UserSubscription `json:"subscription,omitempty"`
	Currency         string                   `json:"currency"`
	OriginalCurrency string                   `json:"original_currency"`
	Amount           float64                  `json:"amount"`
	OriginalAmount   float64                  `json:"originalAmount"`
	PartialFailures  []StepFailure            `json:"partial_failures,omitempty"`
}

// state is threaded through the pipeline steps.
type state struct {
	req     *SettleRequest
	product types.Product
	order   *models.Order
	sub     *models.UserSubscription
	now     time.Time
}

// step is one stage of the settlement saga. Critical steps abort the pipeline
// on failure; the rest are best-effort with isolated error capture.
type step struct {
	name     string
	critical bool
	run      func(ctx context.Context, st *state) error
}
