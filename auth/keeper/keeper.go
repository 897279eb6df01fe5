// Package keeper keeps the session fresh in the background. A periodic
// ticker and app-foreground transitions both feed the same tick; a single
// in-flight guard prevents overlapping refresh calls when the app is rapidly
// backgrounded and foregrounded.
package keeper

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/fundfolio/go-portfolio-client/auth"
)

// Session is the slice of the session manager the keeper drives.
type Session interface {
	NeedsRefresh(authentication *auth.Authentication) bool
	Refresh(ctx context.Context, refreshToken string) (*auth.Authentication, error)
}

// Keeper runs the refresh loop over the Authentication holder.
type Keeper struct {
	session   Session
	holder    *auth.Holder
	interval  time.Duration
	log       zerolog.Logger
	onExpired func()

	foreground chan struct{}
	inFlight   atomic.Bool
}

// Option modifies the Keeper instance.
type Option func(*Keeper)

// WithLogger sets the keeper logger.
func WithLogger(log zerolog.Logger) Option {
	return func(k *Keeper) {
		k.log = log
	}
}

// OnExpired registers the callback invoked when a refresh fails and the
// session is cleared. Typically routes the UI to re-login.
func OnExpired(callback func()) Option {
	return func(k *Keeper) {
		k.onExpired = callback
	}
}

// New creates a Keeper ticking at interval.
func New(session Session, holder *auth.Holder, interval time.Duration, options ...Option) *Keeper {
	k := &Keeper{
		session:    session,
		holder:     holder,
		interval:   interval,
		log:        zerolog.Nop(),
		onExpired:  func() {},
		foreground: make(chan struct{}, 1),
	}
	for _, opt := range options {
		opt(k)
	}
	return k
}

// Start launches the loop. It stops when ctx is cancelled.
func (k *Keeper) Start(ctx context.Context) {
	go k.run(ctx)
}

// Foreground signals an app-foreground transition. Non-blocking; a pending
// signal is enough.
func (k *Keeper) Foreground() {
	select {
	case k.foreground <- struct{}{}:
	default:
	}
}

func (k *Keeper) run(ctx context.Context) {
	ticker := time.NewTicker(k.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			k.Tick(ctx)
		case <-k.foreground:
			k.Tick(ctx)
		}
	}
}

// Tick refreshes the session if it is close to expiry. A refresh failure is
// terminal: the held Authentication is cleared and the expiry callback
// fires; the loop does not back off or retry beyond its normal cadence.
func (k *Keeper) Tick(ctx context.Context) {
	if !k.inFlight.CompareAndSwap(false, true) {
		return
	}
	defer k.inFlight.Store(false)

	current := k.holder.Get()
	if current == nil || !k.session.NeedsRefresh(current) {
		return
	}

	fresh, err := k.session.Refresh(ctx, current.RefreshToken)
	if err != nil {
		k.log.Info().Err(err).Msg("session refresh failed, forcing logout")
		k.holder.Clear()
		k.onExpired()
		return
	}

	k.holder.Replace(fresh)
	k.log.Debug().Time("expiresAt", fresh.ExpiresAt).Msg("session refreshed")
}
