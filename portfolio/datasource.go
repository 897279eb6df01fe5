// Package portfolio defines the data capability the screens consume: typed
// reads over funds, portfolios, transactions, meetings, companies and
// publications, with a live HTTP implementation and a demo implementation
// serving fabricated data.
package portfolio

import (
	"context"

	"github.com/fundfolio/go-portfolio-client/auth"
	"github.com/fundfolio/go-portfolio-client/chart"
	"github.com/fundfolio/go-portfolio-client/finance"
)

// DataSource is the capability interface consuming code is handed. Every
// call is independent and idempotent; failures surface as ErrRequestFailed
// and are never retried here.
type DataSource interface {
	ListFunds(ctx context.Context) ([]Fund, error)
	FindFund(ctx context.Context, fundID string) (*Fund, error)

	ListPortfolios(ctx context.Context) ([]Portfolio, error)
	PortfolioSummaries(ctx context.Context) ([]finance.PortfolioSummary, error)
	ListTransactions(ctx context.Context, portfolioID string) ([]Transaction, error)

	// SecurityValues returns the historical value series of one security
	// inside the window, ready for chart.MergeSeries.
	SecurityValues(ctx context.Context, securityID string, window chart.Window) ([]chart.Point, error)

	ListMeetings(ctx context.Context) ([]Meeting, error)
	BookMeeting(ctx context.Context, meetingID string) error

	ListCompanies(ctx context.Context) ([]Company, error)
	ListPublications(ctx context.Context) ([]Publication, error)
}

// Select picks the data source once at session start based on the
// authenticated identity. Demo sessions get fabricated data; everything else
// talks to the backend.
func Select(authentication *auth.Authentication, live, demo DataSource) DataSource {
	if authentication != nil && authentication.IsDemo() {
		return demo
	}
	return live
}
