package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

type likeCountReconciler interface {
	ReconcileLikeCounts(ctx context.Context) (int64, error)
}

// Scheduler runs periodic maintenance. The only job today re-derives
// like_count from the relation rows, repairing any drift the
// non-transactional toggle path can leave behind.
type Scheduler struct {
	cron   *cron.Cron
	emojis likeCountReconciler
	log    zerolog.Logger
}

func NewScheduler(emojis likeCountReconciler, log zerolog.Logger) *Scheduler {
	c := cron.New(cron.WithSeconds())
	return &Scheduler{
		cron:   c,
		emojis: emojis,
		log:    log,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("0 */10 * * * *", s.reconcileLikeCounts); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

// Stop waits briefly for a running job to finish.
func (s *Scheduler) Stop() {
	select {
	case <-s.cron.Stop().Done():
	case <-time.After(5 * time.Second):
	}
}

func (s *Scheduler) reconcileLikeCounts() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	fixed, err := s.emojis.ReconcileLikeCounts(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("like count reconciliation failed")
		return
	}
	if fixed > 0 {
		s.log.Warn().Int64("rows", fixed).Msg("repaired drifted like counts")
	}
}
