package portfolio

import (
	"time"

	"github.com/shopspring/decimal"
)

// Fund is an investment fund open for subscription.
type Fund struct {
	ID                  string
	Name                string
	ISIN                string
	Currency            string
	PricePerShare       decimal.Decimal
	MinimumSubscription decimal.Decimal
}

// Portfolio is a customer's holding container.
type Portfolio struct {
	ID            string
	Name          string
	Currency      string
	PurchaseValue decimal.Decimal
	MarketValue   decimal.Decimal
	SecurityIDs   []string
}

// Transaction is a single subscription, redemption or fee event on a
// portfolio.
type Transaction struct {
	ID          string
	PortfolioID string
	Date        time.Time
	Type        string
	Amount      decimal.Decimal
}

// Meeting is a bookable advisor meeting slot.
type Meeting struct {
	ID       string
	Time     time.Time
	Location string
	Booked   bool
}

// Company is an advisor organisation shown alongside meetings.
type Company struct {
	ID   string
	Name string
}

// Publication is a research or newsletter item.
type Publication struct {
	ID          string
	Title       string
	PublishedAt time.Time
	URL         string
}
