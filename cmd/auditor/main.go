package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"github.com/vehicletag/registration-node/internal/config"
	"github.com/vehicletag/registration-node/internal/core/event"
	"github.com/vehicletag/registration-node/internal/db"
	"github.com/vehicletag/registration-node/internal/log"
	"github.com/vehicletag/registration-node/internal/pubsub"
	"github.com/vehicletag/registration-node/internal/redis"
)

const summaryInterval = 15 * time.Minute

// stageCount is one row of the periodic activity summary.
type stageCount struct {
	Stage string `db:"stage"`
	Count int    `db:"count"`
}

func main() {
	cfg, err := config.Load("")
	if err != nil {
		log.Error(context.Background(), "cannot load config", "err", err)
		return
	}

	ctx, cancel := context.WithCancel(log.NewContext(context.Background(), cfg.Log.Level, cfg.Log.Mode, os.Stdout))
	defer cancel()

	if cfg.Cache.RedisUrl == "" {
		log.Error(ctx, "the auditor needs a redis url to subscribe to stage events")
		return
	}
	rdb, err := redis.Open(ctx, cfg.Cache.RedisUrl)
	if err != nil {
		log.Error(ctx, "cannot connect to redis", "err", err, "host", cfg.Cache.RedisUrl)
		return
	}

	sqlxConn := db.NewSqlx(cfg.Database.URL)

	ps := pubsub.NewRedis(rdb)
	ps.Subscribe(ctx, event.StageRecordedEvent, onStageRecorded)

	go summaryLoop(ctx, sqlxConn)

	log.Info(ctx, "auditor started", "topic", event.StageRecordedEvent)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info(ctx, "shutting down")
}

// onStageRecorded writes one audit line per stage transition. The service
// already persisted the event row, the auditor is an independent trail for
// operations to tail.
func onStageRecorded(ctx context.Context, msg pubsub.Message) error {
	var ev event.StageRecorded
	if err := ev.Unmarshal(msg); err != nil {
		log.Error(ctx, "cannot unmarshal stage event", "err", err)
		return err
	}
	log.Info(ctx, "stage recorded",
		"registrationId", ev.RegistrationID,
		"stage", ev.Stage,
		"status", ev.Status,
		"sessionId", ev.SessionID,
		"at", ev.Timestamp)
	return nil
}

// summaryLoop periodically reports stage activity of the last day.
func summaryLoop(ctx context.Context, conn *db.Sqlx) {
	ticker := time.NewTicker(summaryInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			var counts []stageCount
			err := conn.DB.SelectContext(ctx, &counts,
				`SELECT stage, COUNT(*) AS count
				 FROM stage_events
				 WHERE created_at > NOW() - INTERVAL '24 hours'
				 GROUP BY stage
				 ORDER BY count DESC`)
			if err != nil {
				log.Error(ctx, "querying stage activity", "err", err)
				continue
			}
			for _, c := range counts {
				log.Info(ctx, "stage activity last 24h", "stage", c.Stage, "count", c.Count)
			}
		}
	}
}
