// Package demo implements portfolio.DataSource with fabricated data for
// demo sessions. The data is deterministic so demo charts look the same on
// every run.
package demo

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fundfolio/go-portfolio-client/chart"
	"github.com/fundfolio/go-portfolio-client/finance"
	apperrors "github.com/fundfolio/go-portfolio-client/internal/errors"
	"github.com/fundfolio/go-portfolio-client/portfolio"
)

// demoID derives a stable uuid for a demo entity name.
func demoID(name string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("fundfolio/demo/"+name)).String()
}

// Source serves fabricated portfolio data. Safe for concurrent use.
type Source struct {
	mu       sync.Mutex
	funds    []portfolio.Fund
	holdings []portfolio.Portfolio
	meetings []portfolio.Meeting
}

var _ portfolio.DataSource = (*Source)(nil)

func NewSource() *Source {
	now := time.Now()
	return &Source{
		funds: []portfolio.Fund{
			{
				ID:                  demoID("fund/global-equity"),
				Name:                "Demo Global Equity Fund",
				ISIN:                "FI0000000001",
				Currency:            "EUR",
				PricePerShare:       decimal.RequireFromString("143.27"),
				MinimumSubscription: decimal.RequireFromString("1000"),
			},
			{
				ID:                  demoID("fund/fixed-income"),
				Name:                "Demo Fixed Income Fund",
				ISIN:                "FI0000000002",
				Currency:            "EUR",
				PricePerShare:       decimal.RequireFromString("101.88"),
				MinimumSubscription: decimal.RequireFromString("500"),
			},
		},
		holdings: []portfolio.Portfolio{
			{
				ID:            demoID("portfolio/main"),
				Name:          "Demo Portfolio",
				Currency:      "EUR",
				PurchaseValue: decimal.RequireFromString("25000"),
				MarketValue:   decimal.RequireFromString("31250.50"),
				SecurityIDs:   []string{demoID("security/global-equity"), demoID("security/fixed-income")},
			},
		},
		meetings: []portfolio.Meeting{
			{ID: demoID("meeting/1"), Time: now.AddDate(0, 0, 7), Location: "Helsinki office"},
			{ID: demoID("meeting/2"), Time: now.AddDate(0, 0, 14), Location: "Video call"},
			{ID: demoID("meeting/3"), Time: now.AddDate(0, 0, 21), Location: "Helsinki office"},
		},
	}
}

func (s *Source) ListFunds(_ context.Context) ([]portfolio.Fund, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]portfolio.Fund, len(s.funds))
	copy(out, s.funds)
	return out, nil
}

func (s *Source) FindFund(_ context.Context, fundID string) (*portfolio.Fund, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.funds {
		if f.ID == fundID {
			fund := f
			return &fund, nil
		}
	}
	return nil, apperrors.Wrapf(apperrors.ErrRequestFailed, "[FindFund] unknown fund %s", fundID)
}

func (s *Source) ListPortfolios(_ context.Context) ([]portfolio.Portfolio, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]portfolio.Portfolio, len(s.holdings))
	copy(out, s.holdings)
	return out, nil
}

func (s *Source) PortfolioSummaries(_ context.Context) ([]finance.PortfolioSummary, error) {
	return []finance.PortfolioSummary{
		{
			Subscriptions: decimal.RequireFromString("25000"),
			Redemptions:   decimal.RequireFromString("2500"),
		},
	}, nil
}

func (s *Source) ListTransactions(_ context.Context, portfolioID string) ([]portfolio.Transaction, error) {
	now := time.Now()
	return []portfolio.Transaction{
		{
			ID:          demoID("transaction/1"),
			PortfolioID: portfolioID,
			Date:        now.AddDate(0, -6, 0),
			Type:        "subscription",
			Amount:      decimal.RequireFromString("25000"),
		},
		{
			ID:          demoID("transaction/2"),
			PortfolioID: portfolioID,
			Date:        now.AddDate(0, -2, 0),
			Type:        "redemption",
			Amount:      decimal.RequireFromString("2500"),
		},
	}, nil
}

// SecurityValues fabricates one point per day over the window: a security-
// specific base value plus a small repeating wave.
func (s *Source) SecurityValues(_ context.Context, securityID string, window chart.Window) ([]chart.Point, error) {
	base := decimal.NewFromInt(int64(100 + seed(securityID)%100))

	var points []chart.Point
	day := 0
	for d := window.Start; !d.After(window.End); d = d.AddDate(0, 0, 1) {
		wave := decimal.New(int64((day*7)%23-11), -1) // -1.1 .. +1.1
		points = append(points, chart.Point{Date: d, Value: base.Add(wave)})
		day++
	}
	return points, nil
}

func (s *Source) ListMeetings(_ context.Context) ([]portfolio.Meeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]portfolio.Meeting, len(s.meetings))
	copy(out, s.meetings)
	return out, nil
}

func (s *Source) BookMeeting(_ context.Context, meetingID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.meetings {
		if s.meetings[i].ID == meetingID {
			s.meetings[i].Booked = true
			return nil
		}
	}
	return apperrors.Wrapf(apperrors.ErrRequestFailed, "[BookMeeting] unknown meeting %s", meetingID)
}

func (s *Source) ListCompanies(_ context.Context) ([]portfolio.Company, error) {
	return []portfolio.Company{
		{ID: demoID("company/1"), Name: "Fundfolio Asset Management"},
	}, nil
}

func (s *Source) ListPublications(_ context.Context) ([]portfolio.Publication, error) {
	return []portfolio.Publication{
		{
			ID:          demoID("publication/1"),
			Title:       "Quarterly Market Review",
			PublishedAt: time.Now().AddDate(0, -1, 0),
			URL:         "https://example.com/publications/quarterly-review",
		},
		{
			ID:          demoID("publication/2"),
			Title:       "Fund Newsletter",
			PublishedAt: time.Now().AddDate(0, 0, -7),
			URL:         "https://example.com/publications/newsletter",
		},
	}, nil
}

func seed(s string) int {
	sum := 0
	for _, b := range []byte(s) {
		sum += int(b)
	}
	return sum
}
