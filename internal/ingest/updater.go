package ingest

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"marketpulse-go/internal/metrics"
)

// Updater runs one incremental download/merge pass over the universe.
type Updater struct {
	log          zerolog.Logger
	client       *Client
	store        *Store
	initialYears int
	pause        time.Duration
}

// NewUpdater wires the download client to the CSV store. initialYears
// bounds the first full-history pull; pause spaces per-ticker requests to
// stay under provider rate limits.
func NewUpdater(log zerolog.Logger, client *Client, store *Store, initialYears int, pause time.Duration) *Updater {
	if initialYears <= 0 {
		initialYears = 10
	}
	return &Updater{log: log, client: client, store: store, initialYears: initialYears, pause: pause}
}

// Run fetches rows after the store's max date for every ticker and rewrites
// the CSV. A ticker whose fetch fails is logged and skipped; the merge
// still proceeds with whatever arrived.
func (u *Updater) Run(ctx context.Context, tickers []string) error {
	existing, err := u.store.Load()
	if err != nil {
		return err
	}

	today := time.Now().Truncate(24 * time.Hour)
	var since time.Time
	if len(existing) == 0 {
		since = today.AddDate(-u.initialYears, 0, 0)
		u.log.Info().Int("years", u.initialYears).Msg("no existing data, pulling full history")
	} else {
		last := LastDate(existing)
		if !last.Before(today) {
			u.log.Info().Str("through", last.Format("2006-01-02")).Msg("price store already up to date")
			return nil
		}
		since = last
		u.log.Info().Str("through", last.Format("2006-01-02")).Msg("fetching rows after existing history")
	}

	merged := existing
	var added int
	for i, ticker := range tickers {
		if err := ctx.Err(); err != nil {
			return err
		}
		if i > 0 && u.pause > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(u.pause):
			}
		}

		bars, err := u.client.DailyHistory(ctx, ticker, since)
		if err != nil {
			u.log.Warn().Err(err).Str("ticker", ticker).Msg("fetch failed, skipping ticker")
			continue
		}
		if len(bars) == 0 {
			continue
		}
		merged = append(merged, bars...)
		added += len(bars)
		metrics.IngestRowsTotal.WithLabelValues(ticker).Add(float64(len(bars)))
	}

	if added == 0 {
		u.log.Info().Msg("no new rows downloaded, store unchanged")
		return nil
	}
	if err := u.store.Write(merged); err != nil {
		return err
	}
	u.log.Info().Int("existing", len(existing)).Int("added", added).Msg("price store updated")
	return nil
}
