package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/dmarkin/calendar/internal/logger"
	"github.com/dmarkin/calendar/internal/rabbit"
	"github.com/dmarkin/calendar/internal/storage"
	"github.com/dmarkin/calendar/internal/storagebuilder"
	"github.com/dmarkin/calendar/internal/util"
)

var configFile string

const (
	sweepTimeout = time.Hour * 24
	checkTimeout = time.Hour
)

func newMessage(event storage.Event) rabbit.Message {
	return rabbit.Message{
		ID:        event.ID,
		Title:     event.Title,
		Day:       event.StartDay,
		StartTime: event.StartTime,
	}
}

func init() {
	flag.StringVar(&configFile, "config", "./configs/scheduler_config.yaml", "Path to configuration file")
	log.SetFormatter(&log.TextFormatter{})
	log.SetOutput(os.Stdout)
	log.SetLevel(log.WarnLevel)
}

func main() {
	flag.Parse()

	config, err := NewConfig(configFile)
	if err != nil {
		log.Errorf("failed to start %v", err)
		return
	}
	err = logger.PrepareLogger(config.Logger)
	if err != nil {
		log.Errorf("failed to start %v", err)
		return
	}

	r := rabbit.New(config.Rabbit)
	if err := r.Connect(); err != nil {
		log.Errorf("failed to connect to rabbit: %v", err)
		return
	}
	defer r.Close()

	stor, err := storagebuilder.New(config.Storage)
	if err != nil {
		log.Errorf("failed to start %v", err)
		return
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second*3)
		defer cancel()
		stor.Close(ctx)
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer cancel()

	notified := map[int64]struct{}{}
	checkTicker := time.NewTicker(checkTimeout)
	sweepTicker := time.NewTicker(sweepTimeout)
	for {
		today := util.TruncateToDay(time.Now())

		log.Debugf("get events for %s", today.Format("2006-01-02"))
		events, err := stor.GetEventsForDay(ctx, today)
		if err != nil {
			log.Errorf("failed to get events: %s", err)
		}
		for _, event := range events {
			if _, ok := notified[event.ID]; ok {
				continue
			}
			log.Debugf("send event: %v", event)
			data, _ := json.Marshal(newMessage(event))
			if err := r.Publish(data); err != nil {
				log.Errorf("failed to publish event %d: %v", event.ID, err)
				continue
			}
			notified[event.ID] = struct{}{}
		}

		select {
		case <-ctx.Done():
			return
		case <-checkTicker.C:
		case <-sweepTicker.C:
			// Unwindowed daemon purge; the service's 12-month startup
			// sweep is retention.Sweeper.
			purged, err := stor.RemoveEndedBefore(ctx, util.TruncateToDay(time.Now()))
			if err != nil {
				log.Errorf("failed to purge ended events: %v", err)
			} else if purged > 0 {
				log.Infof("purged %d ended events", purged)
			}
		}
	}
}
