package server

import (
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
)

// watchdog abandons rounds that stop making progress. One timer covers the
// submission window (PLAYING) and is re-armed for the judging window
// (TSARTURN); entering any other state disarms it.
//
// arm and disarm are only ever called from the service's command loop, so
// the timer field needs no locking. The timer callback itself runs on the
// clock's goroutine and hands off to the command loop via expireRound.
type watchdog struct {
	service *Service
	clock   quartz.Clock
	timeout time.Duration
	logger  *log.Logger
	timer   *quartz.Timer
}

// newWatchdog creates a watchdog. A timeout of zero disables it.
func newWatchdog(service *Service, clock quartz.Clock, timeout time.Duration, logger *log.Logger) *watchdog {
	return &watchdog{
		service: service,
		clock:   clock,
		timeout: timeout,
		logger:  logger.WithPrefix("watchdog"),
	}
}

func (w *watchdog) arm(roundID string) {
	if w.timeout <= 0 {
		return
	}
	w.disarm()
	w.logger.Debug("Armed round timer", "round", roundID, "timeout", w.timeout)
	w.timer = w.clock.AfterFunc(w.timeout, func() {
		w.service.expireRound(roundID)
	})
}

func (w *watchdog) disarm() {
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}
