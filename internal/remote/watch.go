package remote

import (
	"time"
)

// watch polls the transport every half interval and ends s once the engine
// is no longer reachable. It returns when s ends for any reason.
func (c *Client) watch(s *session, interval time.Duration) {
	period := interval / 2
	if period <= 0 {
		period = interval
	}

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			if !c.transport.IsOpen() {
				c.log.Info("Engine is no longer reachable")
				c.sessionEnded(s)
				return
			}
		}
	}
}
