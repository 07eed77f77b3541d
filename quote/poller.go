package quote

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Poller fetches quotes on a cron schedule and hands them over to a callback.
// Errors are logged and retried at the next tick.
type Poller struct {
	src     Source
	codes   func() []string
	deliver func(map[string]Quote)
	timeout time.Duration
	cron    *cron.Cron
	log     zerolog.Logger
}

// NewPoller returns a Poller fetching the codes returned by codes, read
// again at every tick so that new instruments get picked up.
func NewPoller(src Source, codes func() []string, deliver func(map[string]Quote)) *Poller {
	return &Poller{
		src:     src,
		codes:   codes,
		deliver: deliver,
		timeout: 20 * time.Second,
		cron:    cron.New(),
		log:     log.With().Str("component", "poller").Logger(),
	}
}

// Start polls once, then on schedule, a standard cron expression or a
// descriptor like "@every 30s".
func (p *Poller) Start(ctx context.Context, schedule string) error {
	if _, err := p.cron.AddFunc(schedule, func() { p.Poll(ctx) }); err != nil {
		return err
	}
	p.log.Info().Str("schedule", schedule).Msg("poller started")
	p.Poll(ctx)
	p.cron.Start()
	return nil
}

// Stop stops the schedule and waits for a running poll to complete.
func (p *Poller) Stop() {
	<-p.cron.Stop().Done()
	p.log.Info().Msg("poller stopped")
}

// Poll fetches quotes once and delivers them, even partial ones.
func (p *Poller) Poll(ctx context.Context) {
	codes := p.codes()
	if len(codes) == 0 {
		p.log.Debug().Msg("nothing to poll")
		return
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	quotes, err := p.src.Quotes(ctx, codes...)
	if err != nil {
		p.log.Error().Err(err).Int("codes", len(codes)).Msg("quote poll failed")
	}
	if len(quotes) == 0 {
		return
	}
	p.log.Debug().Int("codes", len(codes)).Int("quotes", len(quotes)).Msg("quotes polled")
	p.deliver(quotes)
}
