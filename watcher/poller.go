package watcher

import (
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/nu7hatch/gouuid"
	log "github.com/sirupsen/logrus"
)

// Decision is the output of one planning cycle, consumed by an external
// autoscaling controller.
type Decision struct {
	CycleID       string    `json:"cycleId"`
	RequiredNodes int       `json:"requiredNodes"`
	BusyNodes     int       `json:"busyNodes"`
	Time          time.Time `json:"time"`
}

// Decide runs one full planning cycle and returns the resulting decision.
func (w *Watcher) Decide() (Decision, error) {
	required, err := w.RequiredNodes()
	if err != nil {
		return Decision{}, err
	}
	busy, err := w.BusyNodes()
	if err != nil {
		return Decision{}, err
	}
	d := Decision{
		CycleID:       generateCycleId(),
		RequiredNodes: required,
		BusyNodes:     busy,
		Time:          time.Now(),
	}
	log.Debugf("Planning cycle complete: %s", spew.Sdump(d))
	return d, nil
}

// Poller runs planning cycles on a fixed cadence and publishes each decision
// on its output channel. A failed cycle is logged and skipped; the loop keeps
// going with the next tick.
type Poller struct {
	ticker  *time.Ticker
	watcher *Watcher
	outCh   chan Decision
	closer  chan struct{}
}

func NewPoller(w *Watcher, interval time.Duration) *Poller {
	p := &Poller{
		ticker:  time.NewTicker(interval),
		watcher: w,
		outCh:   make(chan Decision),
		closer:  make(chan struct{}),
	}
	go p.loop()
	return p
}

// Decisions returns the channel decisions are published on. It is closed
// when the poller is closed.
func (p *Poller) Decisions() <-chan Decision {
	return p.outCh
}

func (p *Poller) loop() {
	for {
		select {
		case <-p.ticker.C:
			d, err := p.watcher.Decide()
			if err != nil {
				log.Errorf("Skipping planning cycle: %v", err)
				continue
			}
			p.outCh <- d
		case <-p.closer:
			close(p.outCh)
			return
		}
	}
}

// Close stops the poll loop and closes the decision channel.
func (p *Poller) Close() {
	p.ticker.Stop()
	close(p.closer)
}

func generateCycleId() string {
	id, err := uuid.NewV4()
	for err != nil {
		id, err = uuid.NewV4()
	}
	return id.String()
}
