package scheduler

import (
	"context"
	"time"

	"github.com/ikkim/ugcfy-backend/internal/app/service"
	"github.com/ikkim/ugcfy-backend/pkg/logger"
	"github.com/robfig/cron/v3"
)

// syncTimeout bounds a single run
const syncTimeout = 10 * time.Minute

// ChannelSyncScheduler expires stale channel tokens and runs automatic imports
type ChannelSyncScheduler struct {
	cron           *cron.Cron
	spec           string
	channelService service.ChannelService
	now            func() time.Time
}

// NewChannelSyncScheduler runs on spec, a standard five field cron expression
func NewChannelSyncScheduler(channelService service.ChannelService, spec string) *ChannelSyncScheduler {
	return &ChannelSyncScheduler{
		cron:           cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		spec:           spec,
		channelService: channelService,
		now:            time.Now,
	}
}

func (s *ChannelSyncScheduler) Start() error {
	_, err := s.cron.AddFunc(s.spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
		defer cancel()
		s.RunOnce(ctx)
	})
	if err != nil {
		logger.Error("Failed to add cron job for channel sync", err, map[string]interface{}{
			"spec": s.spec,
		})
		return err
	}

	s.cron.Start()
	logger.Info("Channel sync scheduler started", map[string]interface{}{
		"spec": s.spec,
	})

	return nil
}

// RunOnce expires tokens first so auto import skips channels that just lapsed
func (s *ChannelSyncScheduler) RunOnce(ctx context.Context) {
	logger.Info("Starting scheduled channel sync")

	expired, err := s.channelService.ExpireTokens(s.now())
	if err != nil {
		logger.Error("Failed to expire channel tokens", err)
	}

	if err := s.channelService.AutoImportAll(ctx); err != nil {
		logger.Error("Failed to run automatic imports", err)
		return
	}

	logger.Info("Channel sync finished", map[string]interface{}{
		"expired": expired,
	})
}

func (s *ChannelSyncScheduler) Stop() {
	logger.Info("Stopping channel sync scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info("Channel sync scheduler stopped")
}
