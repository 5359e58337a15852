package types

import "strings"

type PaymentMethod string

const (
	PaymentMethodWechat     PaymentMethod = "wechat"
	PaymentMethodAlipay     PaymentMethod = "alipay"
	PaymentMethodCreditCard PaymentMethod = "creditcard"
	// PaymentMethodAdminGrant marks orders created from the back office
	// (free course grants); excluded from revenue statistics.
	PaymentMethodAdminGrant PaymentMethod = "admin-grant"
)

type PlanInterval string

const (
	PlanIntervalMonthly    PlanInterval = "monthly"
	PlanIntervalQuarterly  PlanInterval = "quarterly"
	PlanIntervalYearly     PlanInterval = "yearly"
	PlanIntervalTwoYears   PlanInterval = "2years"
	PlanIntervalThreeYears PlanInterval = "3years"
)

var planIntervals = map[PlanInterval]struct{ months, years int }{
	PlanIntervalMonthly:    {months: 1},
	PlanIntervalQuarterly:  {months: 3},
	PlanIntervalYearly:     {years: 1},
	PlanIntervalTwoYears:   {years: 2},
	PlanIntervalThreeYears: {years: 3},
}

func (i PlanInterval) Valid() bool {
	_, ok := planIntervals[i]
	return ok
}

// Offset returns the calendar offset for one billing period.
func (i PlanInterval) Offset() (months, years int) {
	o := planIntervals[i]
	return o.months, o.years
}

const subscriptionTypePrefix = "subscription-"

// Product is what an order pays for, decoded once at the pipeline boundary.
// A subscription payment type follows the "subscription-<interval>" convention;
// anything else is treated as a single-course purchase when a course id is set.
// CourseID and Interval can both be present: access grants key off the course id
// regardless of payment type.
type Product struct {
	CourseID *string
	Interval *PlanInterval
}

// DecodeProduct parses the free-form payment type string plus the optional
// course id into a Product. An unrecognized interval suffix yields a product
// with no Interval; the settlement pipeline logs that as a provisioning no-op.
func DecodeProduct(paymentType string, courseID *string) Product {
	p := Product{}
	if courseID != nil && *courseID != "" {
		p.CourseID = courseID
	}
	if rest, ok := strings.CutPrefix(paymentType, subscriptionTypePrefix); ok {
		interval := PlanInterval(rest)
		if interval.Valid() {
			p.Interval = &interval
		}
	}
	return p
}

func (p Product) IsCourse() bool { return p.CourseID != nil }

func (p Product) IsSubscription() bool { return p.Interval != nil }
