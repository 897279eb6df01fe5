// Package live implements portfolio.DataSource over the backend REST API.
package live

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/fundfolio/go-portfolio-client/chart"
	"github.com/fundfolio/go-portfolio-client/finance"
	"github.com/fundfolio/go-portfolio-client/internal/config"
	apperrors "github.com/fundfolio/go-portfolio-client/internal/errors"
	"github.com/fundfolio/go-portfolio-client/portfolio"
)

const dateLayout = "2006-01-02"

// TokenProvider returns the current bearer token, or empty when logged out.
// auth.Holder.AccessToken satisfies it.
type TokenProvider func() string

// Client talks to the backend REST API with a bearer token from the session
// holder. No retries: failures surface to the caller as ErrRequestFailed.
type Client struct {
	baseURL       string
	httpClient    *http.Client
	tokenProvider TokenProvider
	log           zerolog.Logger
}

var _ portfolio.DataSource = (*Client)(nil)

// Option modifies the Client instance.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client (primarily for testing).
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets the client logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// NewClient creates a live data source against cfg's API base URL.
func NewClient(cfg config.APIConfig, tokenProvider TokenProvider, options ...Option) *Client {
	c := &Client{
		baseURL:       cfg.GetAPIBaseURL(),
		httpClient:    &http.Client{Timeout: cfg.GetRequestTimeout()},
		tokenProvider: tokenProvider,
		log:           zerolog.Nop(),
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

type fundDTO struct {
	ID                  string          `json:"id"`
	Name                string          `json:"name"`
	ISIN                string          `json:"isin"`
	Currency            string          `json:"currency"`
	PricePerShare       decimal.Decimal `json:"pricePerShare"`
	MinimumSubscription decimal.Decimal `json:"minimumSubscription"`
}

func (d fundDTO) toModel() portfolio.Fund {
	return portfolio.Fund(d)
}

type portfolioDTO struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Currency      string          `json:"currency"`
	PurchaseValue decimal.Decimal `json:"purchaseValue"`
	MarketValue   decimal.Decimal `json:"marketValue"`
	SecurityIDs   []string        `json:"securityIds"`
}

type summaryDTO struct {
	Subscriptions decimal.Decimal `json:"subscriptions"`
	Redemptions   decimal.Decimal `json:"redemptions"`
}

type transactionDTO struct {
	ID          string          `json:"id"`
	PortfolioID string          `json:"portfolioId"`
	Date        string          `json:"date"`
	Type        string          `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
}

type historicalValueDTO struct {
	Date  string          `json:"date"`
	Value decimal.Decimal `json:"value"`
}

type meetingDTO struct {
	ID       string    `json:"id"`
	Time     time.Time `json:"time"`
	Location string    `json:"location"`
	Booked   bool      `json:"booked"`
}

type companyDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type publicationDTO struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	PublishedAt time.Time `json:"publishedAt"`
	URL         string    `json:"url"`
}

func (c *Client) ListFunds(ctx context.Context) ([]portfolio.Fund, error) {
	var dtos []fundDTO
	if err := c.get(ctx, "/funds", nil, &dtos); err != nil {
		return nil, err
	}
	funds := make([]portfolio.Fund, 0, len(dtos))
	for _, d := range dtos {
		funds = append(funds, d.toModel())
	}
	return funds, nil
}

func (c *Client) FindFund(ctx context.Context, fundID string) (*portfolio.Fund, error) {
	var dto fundDTO
	if err := c.get(ctx, "/funds/"+url.PathEscape(fundID), nil, &dto); err != nil {
		return nil, err
	}
	fund := dto.toModel()
	return &fund, nil
}

func (c *Client) ListPortfolios(ctx context.Context) ([]portfolio.Portfolio, error) {
	var dtos []portfolioDTO
	if err := c.get(ctx, "/portfolios", nil, &dtos); err != nil {
		return nil, err
	}
	portfolios := make([]portfolio.Portfolio, 0, len(dtos))
	for _, d := range dtos {
		portfolios = append(portfolios, portfolio.Portfolio(d))
	}
	return portfolios, nil
}

func (c *Client) PortfolioSummaries(ctx context.Context) ([]finance.PortfolioSummary, error) {
	var dtos []summaryDTO
	if err := c.get(ctx, "/portfolios/summaries", nil, &dtos); err != nil {
		return nil, err
	}
	summaries := make([]finance.PortfolioSummary, 0, len(dtos))
	for _, d := range dtos {
		summaries = append(summaries, finance.PortfolioSummary(d))
	}
	return summaries, nil
}

func (c *Client) ListTransactions(ctx context.Context, portfolioID string) ([]portfolio.Transaction, error) {
	var dtos []transactionDTO
	path := "/portfolios/" + url.PathEscape(portfolioID) + "/transactions"
	if err := c.get(ctx, path, nil, &dtos); err != nil {
		return nil, err
	}
	transactions := make([]portfolio.Transaction, 0, len(dtos))
	for _, d := range dtos {
		date, err := time.Parse(dateLayout, d.Date)
		if err != nil {
			return nil, apperrors.Wrapf(apperrors.ErrRequestFailed, "[ListTransactions] bad date %q (%v)", d.Date, err)
		}
		transactions = append(transactions, portfolio.Transaction{
			ID:          d.ID,
			PortfolioID: d.PortfolioID,
			Date:        date,
			Type:        d.Type,
			Amount:      d.Amount,
		})
	}
	return transactions, nil
}

func (c *Client) SecurityValues(ctx context.Context, securityID string, window chart.Window) ([]chart.Point, error) {
	query := url.Values{}
	query.Set("startDate", window.Start.Format(dateLayout))
	query.Set("endDate", window.End.Format(dateLayout))

	var dtos []historicalValueDTO
	path := "/securities/" + url.PathEscape(securityID) + "/values"
	if err := c.get(ctx, path, query, &dtos); err != nil {
		return nil, err
	}

	points := make([]chart.Point, 0, len(dtos))
	for _, d := range dtos {
		date, err := time.Parse(dateLayout, d.Date)
		if err != nil {
			return nil, apperrors.Wrapf(apperrors.ErrRequestFailed, "[SecurityValues] bad date %q (%v)", d.Date, err)
		}
		points = append(points, chart.Point{Date: date, Value: d.Value})
	}
	return points, nil
}

func (c *Client) ListMeetings(ctx context.Context) ([]portfolio.Meeting, error) {
	var dtos []meetingDTO
	if err := c.get(ctx, "/meetings", nil, &dtos); err != nil {
		return nil, err
	}
	meetings := make([]portfolio.Meeting, 0, len(dtos))
	for _, d := range dtos {
		meetings = append(meetings, portfolio.Meeting(d))
	}
	return meetings, nil
}

func (c *Client) BookMeeting(ctx context.Context, meetingID string) error {
	path := "/meetings/" + url.PathEscape(meetingID) + "/book"
	return c.post(ctx, path)
}

func (c *Client) ListCompanies(ctx context.Context) ([]portfolio.Company, error) {
	var dtos []companyDTO
	if err := c.get(ctx, "/companies", nil, &dtos); err != nil {
		return nil, err
	}
	companies := make([]portfolio.Company, 0, len(dtos))
	for _, d := range dtos {
		companies = append(companies, portfolio.Company(d))
	}
	return companies, nil
}

func (c *Client) ListPublications(ctx context.Context) ([]portfolio.Publication, error) {
	var dtos []publicationDTO
	if err := c.get(ctx, "/publications", nil, &dtos); err != nil {
		return nil, err
	}
	publications := make([]portfolio.Publication, 0, len(dtos))
	for _, d := range dtos {
		publications = append(publications, portfolio.Publication(d))
	}
	return publications, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	resp, err := c.do(ctx, http.MethodGet, path, query)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.Wrapf(apperrors.ErrRequestFailed, "[get] decode %s (%v)", path, err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string) error {
	resp, err := c.do(ctx, http.MethodPost, path, nil)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values) (*http.Response, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint = fmt.Sprintf("%s?%s", endpoint, query.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrRequestFailed, "[do] request %s (%v)", path, err)
	}
	req.Header.Set("Accept", "application/json")
	if bearer := c.tokenProvider(); bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrRequestFailed, "[do] %s %s (%v)", method, path, err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		resp.Body.Close()
		c.log.Debug().Str("path", path).Int("status", resp.StatusCode).Msg("backend request failed")
		return nil, apperrors.Wrapf(apperrors.ErrRequestFailed, "[do] %s %s status %d", method, path, resp.StatusCode)
	}
	return resp, nil
}
