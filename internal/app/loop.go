package app

import (
	"log"
	"time"
)

// runLoop steps the optimizer on every tick while the search is enabled.
func (a *App) runLoop(stopCh, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(time.Second / time.Duration(a.config.FPS))
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			if !a.IsEnabled() {
				continue
			}
			if _, err := a.Step(); err != nil {
				log.Printf("Error stepping optimizer: %v", err)
			}
		}
	}
}
