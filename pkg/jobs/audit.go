package jobs

import (
	"context"
	"log"

	"github.com/artifacts-gallery/gallery-api/pkg/gallery/services"
	"github.com/artifacts-gallery/gallery-api/pkg/tools"
	"github.com/robfig/cron/v3"
	"github.com/teris-io/shortid"
)

// ScheduleDailyAudit sets up a cron job that repairs like counters every day.
func ScheduleDailyAudit(ctx context.Context, svc *services.GalleryService) *cron.Cron {
	c := cron.New()
	_, _ = c.AddFunc("@daily", func() {
		run := shortid.MustGenerate()
		tools.Dispatch(context.Background(), "like_audit", func(ctx context.Context) error {
			if err := svc.AuditLikeCounters(ctx); err != nil {
				log.Printf("[WARN] like audit %s failed: %v", run, err)
				return err
			}
			return nil
		})
	})
	c.Start()

	go func() {
		<-ctx.Done()
		c.Stop()
	}()
	return c
}
