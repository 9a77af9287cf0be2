// Command replay runs maintenance against a forecast store without starting
// the HTTP service. It verifies stored forecasts against the live report feed
// or a directory of saved YYMMDD_rpts_filtered.csv files, and rebuilds the
// leaderboard from forecast history.
//
// Store settings come from the same environment variables as the service
// (STORE_BACKEND, STORE_PATH, REDIS_URL).
//
// Usage:
//
//	go run ./cmd/replay -reports-dir testdata/reports -all
//	go run ./cmd/replay -id 3f0c... -reports-dir testdata/reports
//	go run ./cmd/replay -rebuild-leaderboard
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/storm-forecast-verifier/internal/adapter/kvstore"
	"github.com/couchcryptid/storm-forecast-verifier/internal/adapter/spc"
	"github.com/couchcryptid/storm-forecast-verifier/internal/config"
	"github.com/couchcryptid/storm-forecast-verifier/internal/domain"
	"github.com/couchcryptid/storm-forecast-verifier/internal/observability"
	"github.com/couchcryptid/storm-forecast-verifier/internal/session"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	reportsDir := flag.String("reports-dir", "", "directory of saved report CSVs (default: live feed)")
	id := flag.String("id", "", "verify a single forecast by ID")
	all := flag.Bool("all", false, "verify every unverified forecast from a past day")
	rebuild := flag.Bool("rebuild-leaderboard", false, "rebuild the leaderboard from forecast history")
	flag.Parse()

	if *id == "" && !*all && !*rebuild {
		flag.Usage()
		return errors.New("nothing to do: pass -id, -all, or -rebuild-leaderboard")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := kvstore.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.StoreBackend, err)
	}
	defer store.Close()

	var source domain.ReportSource
	if *reportsDir != "" {
		source = spc.NewFileSource(*reportsDir)
	} else {
		source = spc.NewClient(cfg.ReportsBaseURL, cfg.ReportsTimeout, metrics, logger)
	}
	sess := session.New(store, source, nil, logger, metrics)

	var ids []string
	switch {
	case *id != "":
		ids = []string{*id}
	case *all:
		if ids, err = pendingIDs(ctx, sess); err != nil {
			return err
		}
	}

	var s summary
	for _, fid := range ids {
		s.add(fid, verifyOne(ctx, sess, fid))
	}
	if len(ids) > 0 {
		s.print(os.Stdout)
	}

	if *rebuild {
		lb, err := sess.RebuildLeaderboard(ctx)
		if err != nil {
			return fmt.Errorf("rebuild leaderboard: %w", err)
		}
		fmt.Printf("leaderboard rebuilt: %d players\n", len(lb))
	}

	if s.failed > 0 {
		return fmt.Errorf("%d of %d verifications failed", s.failed, len(ids))
	}
	return nil
}

// pendingIDs lists unverified forecasts whose report day has ended.
func pendingIDs(ctx context.Context, sess *session.Session) ([]string, error) {
	history, err := sess.History(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	today := domain.FormatForecastDate(domain.Now())
	var ids []string
	for _, f := range history {
		if !f.Verified && f.ReportDate() < today {
			ids = append(ids, f.ID)
		}
	}
	return ids, nil
}

func verifyOne(ctx context.Context, sess *session.Session, id string) result {
	v, err := sess.Verify(ctx, id)
	switch {
	case errors.Is(err, domain.ErrAlreadyVerified):
		return result{status: "skipped", detail: "already verified"}
	case err != nil:
		return result{status: "failed", detail: err.Error()}
	case v.Simulated:
		return result{status: "failed", detail: "reports unavailable"}
	}
	return result{
		status: "verified",
		detail: fmt.Sprintf("%s %d pts brier=%.3f", v.Forecast.Player, v.Score.TotalPoints, v.Score.BrierScore),
	}
}
