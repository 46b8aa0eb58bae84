package hub

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Sweeper periodically evicts rooms whose clients vanished without a
// clean disconnect. Rooms emptied by normal departures never reach it;
// deletion on the last leave is immediate.
type Sweeper struct {
	Registry *Registry
	Interval time.Duration
	MaxIdle  time.Duration
}

func (s *Sweeper) Run(ctx context.Context) {
	t := time.NewTicker(s.Interval)
	defer t.Stop()
	log.Info().Str("module", "hub.sweeper").Dur("interval", s.Interval).Dur("max_idle", s.MaxIdle).Msg("sweeper started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "hub.sweeper").Msg("sweeper stopped")
			return
		case <-t.C:
			s.sweep()
		}
	}
}

func (s *Sweeper) sweep() {
	for _, ev := range s.Registry.SweepIdle(s.MaxIdle) {
		log.Warn().Str("module", "hub.sweeper").Str("room", string(ev.Code)).Int("zombies", len(ev.Recipients)).Msg("evicted idle room")
		for _, rcp := range ev.Recipients {
			rcp.Sink.Close()
		}
	}
}
