package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"nse_screener_backend/services/archive"
	"nse_screener_backend/services/marketdata"
)

const refreshTimeout = 5 * time.Minute

// Scheduler manages scheduled jobs
type Scheduler struct {
	cron      *gocron.Scheduler
	market    *marketdata.Service
	archiver  *archive.MongoArchiver
	refreshAt string
}

// NewScheduler creates a new scheduler instance. refreshAt is the
// daily refresh time in "HH:MM" form, interpreted in IST.
func NewScheduler(market *marketdata.Service, archiver *archive.MongoArchiver, refreshAt string) *Scheduler {
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		loc = time.UTC
	}
	return &Scheduler{
		cron:      gocron.NewScheduler(loc),
		market:    market,
		archiver:  archiver,
		refreshAt: refreshAt,
	}
}

// Start starts all scheduled jobs
func (s *Scheduler) Start() {
	log.Println("Starting scheduler...")

	// Recompute indicators daily after market close
	s.cron.Every(1).Day().At(s.refreshAt).Do(func() {
		if !isTradingDay() {
			return
		}
		s.runDailyRefresh()
	})

	s.cron.StartAsync()
	log.Printf("Scheduler started, daily refresh at %s IST", s.refreshAt)
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.cron.Stop()
	log.Println("Scheduler stopped")
}

// runDailyRefresh reloads bars, recomputes indicators and archives
// the resulting snapshot.
func (s *Scheduler) runDailyRefresh() {
	log.Println("Running daily indicator refresh...")

	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	if err := s.market.Refresh(ctx); err != nil {
		log.Printf("Error refreshing market data: %v", err)
		return
	}

	summary := s.market.Summary()
	log.Printf("Refresh complete: %d symbols, %d rows", summary.Symbols, summary.Rows)

	if s.archiver == nil || !s.archiver.Enabled() {
		return
	}
	if err := s.archiver.ArchiveSnapshot(ctx, summary, s.market.Snapshot(), s.market.Buckets()); err != nil {
		log.Printf("Error archiving snapshot: %v", err)
	}
}

// isTradingDay checks if NSE trades today. Exchange holidays are not
// tracked; a refresh on a holiday recomputes the same snapshot.
func isTradingDay() bool {
	wd := time.Now().Weekday()
	return wd != time.Saturday && wd != time.Sunday
}
