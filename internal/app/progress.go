package app

import "FlyerScraper/internal/models"

// ProgressChannel returns a ProgressFunc that forwards updates to ch.
// Updates are dropped while the receiver is behind.
func ProgressChannel(ch chan<- models.Progress) models.ProgressFunc {
	return func(p models.Progress) {
		select {
		case ch <- p:
		default:
		}
	}
}
