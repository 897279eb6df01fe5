package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/rs/zerolog"

	"github.com/fundfolio/go-portfolio-client/auth"
	"github.com/fundfolio/go-portfolio-client/auth/keeper"
	"github.com/fundfolio/go-portfolio-client/chart"
	"github.com/fundfolio/go-portfolio-client/finance"
	"github.com/fundfolio/go-portfolio-client/internal/config"
	"github.com/fundfolio/go-portfolio-client/portfolio"
	"github.com/fundfolio/go-portfolio-client/portfolio/demo"
	"github.com/fundfolio/go-portfolio-client/portfolio/live"
	"github.com/fundfolio/go-portfolio-client/tokenstore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	demoLogin := flag.Bool("demo", false, "use the demo login")
	strongAuth := flag.Bool("strong", false, "use strong authentication")
	flag.Parse()

	c := config.New()
	displayAppname(c.GetAppName())

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	store, err := tokenstore.NewFileStore(c.GetDataFolder(), []byte(config.GetEnv("DEVICE_SECRET", "dev-device-secret")))
	if err != nil {
		return err
	}

	session, err := auth.NewSessionService(c, store, auth.WithLogger(log))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	resolveCtx, resolveCancel := context.WithTimeout(ctx, 10*time.Second)
	defer resolveCancel()
	if err := session.ResolveConfiguration(resolveCtx); err != nil {
		return err
	}

	holder := auth.NewHolder()
	authentication, err := login(ctx, session, *strongAuth, *demoLogin, log)
	if err != nil {
		return err
	}
	holder.Replace(authentication)
	log.Info().Str("userId", authentication.UserID).Msg("logged in")

	sessionKeeper := keeper.New(session, holder, c.GetRefreshInterval(),
		keeper.WithLogger(log),
		keeper.OnExpired(func() {
			log.Warn().Msg("session expired, please log in again")
			cancel()
		}),
	)
	sessionKeeper.Start(ctx)

	source := portfolio.Select(authentication, live.NewClient(c, holder.AccessToken, live.WithLogger(log)), demo.NewSource())
	if err := printOverview(ctx, source, log); err != nil {
		log.Error().Err(err).Msg("failed to load portfolio overview")
	}

	waitForStopSignal(ctx)
	return nil
}

// login restores the previous session when an offline token is stored,
// otherwise walks the authorization-code flow on the terminal.
func login(ctx context.Context, session *auth.SessionService, strongAuth, demoLogin bool, log zerolog.Logger) (*auth.Authentication, error) {
	if restored, err := session.Restore(ctx); err == nil && restored != nil {
		log.Info().Msg("session restored from offline token")
		return restored, nil
	}

	loginURL, err := session.AuthorizationURL(strongAuth, demoLogin)
	if err != nil {
		return nil, err
	}

	fmt.Printf("Open the following URL in a browser and log in:\n\n  %s\n\n", loginURL)
	fmt.Print("Paste the authorization code: ")

	reader := bufio.NewReader(os.Stdin)
	code, err := reader.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("reading authorization code: %w", err)
	}

	return session.Exchange(ctx, strings.TrimSpace(code))
}

func printOverview(ctx context.Context, source portfolio.DataSource, log zerolog.Logger) error {
	portfolios, err := source.ListPortfolios(ctx)
	if err != nil {
		return err
	}

	summaries, err := source.PortfolioSummaries(ctx)
	if err != nil {
		return err
	}
	totals := finance.SummaryTotals(summaries)
	fmt.Printf("Subscriptions: %s  Redemptions: %s\n", totals.Subscriptions.StringFixed(2), totals.Redemptions.StringFixed(2))

	window := chart.WindowFor(chart.Year)
	for _, p := range portfolios {
		fmt.Printf("\n%s (%s)\n", p.Name, p.Currency)
		fmt.Printf("  market value: %s  change: %s%%\n", p.MarketValue.StringFixed(2), finance.ChangePercentage(p.PurchaseValue, p.MarketValue))

		series := make([][]chart.Point, 0, len(p.SecurityIDs))
		for _, securityID := range p.SecurityIDs {
			points, err := source.SecurityValues(ctx, securityID, window)
			if err != nil {
				log.Warn().Err(err).Str("securityId", securityID).Msg("skipping security series")
				continue
			}
			series = append(series, points)
		}

		merged := chart.Downsample(chart.MergeSeries(series), chart.SkipFactor(chart.Year))
		if len(merged) == 0 {
			continue
		}
		first, last := merged[0], merged[len(merged)-1]
		fmt.Printf("  %s: %s ... %s: %s (%d points, change %s%%)\n",
			first.Date.Format("2006-01-02"), first.Value.StringFixed(2),
			last.Date.Format("2006-01-02"), last.Value.StringFixed(2),
			len(merged), finance.ChangePercentage(first.Value, last.Value))
	}
	return nil
}

func waitForStopSignal(ctx context.Context) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	select {
	case <-stop:
	case <-ctx.Done():
	}
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
