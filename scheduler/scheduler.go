package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"inmo_scrooper/config"
	"inmo_scrooper/logging"
)

// Triggerable allows workers to be triggered on schedule or manually
type Triggerable interface {
	Trigger()
}

type Scheduler struct {
	cfg    config.SchedulerConfig
	target Triggerable
	cron   *cron.Cron
	ticker *time.Ticker
	stopCh chan struct{}
}

func New(cfg config.SchedulerConfig, target Triggerable) *Scheduler {
	return &Scheduler{
		cfg:    cfg,
		target: target,
		cron:   cron.New(),
		stopCh: make(chan struct{}),
	}
}

// Start arms the cron expression when set, else the interval ticker. With
// neither configured the target only runs on TriggerNow.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.cfg.Cron != "" {
		logging.Infof("scheduler", "Starting scheduler with cron: %s", s.cfg.Cron)
		if _, err := s.cron.AddFunc(s.cfg.Cron, s.target.Trigger); err != nil {
			return fmt.Errorf("invalid cron expression: %w", err)
		}
		s.cron.Start()
	} else if s.cfg.Interval > 0 {
		logging.Infof("scheduler", "Starting scheduler with interval: %s", s.cfg.Interval)
		s.ticker = time.NewTicker(s.cfg.Interval)
		go func() {
			for {
				select {
				case <-s.ticker.C:
					s.target.Trigger()
				case <-s.stopCh:
					return
				case <-ctx.Done():
					return
				}
			}
		}()
	} else {
		logging.Infof("scheduler", "No schedule configured, saved searches run once at startup")
	}

	return nil
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
	if s.ticker != nil {
		s.ticker.Stop()
	}
	close(s.stopCh)
}

func (s *Scheduler) TriggerNow() {
	s.target.Trigger()
}
