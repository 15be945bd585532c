package metrics

import "time"

type NoopCollector struct{}

func NewNoopCollector() *NoopCollector {
	return &NoopCollector{}
}

func (nc *NoopCollector) PhaseCompleted(string, time.Duration) {}
func (nc *NoopCollector) LaunchFinished(bool, string)          {}
func (nc *NoopCollector) CacheUpdated(bool, int)               {}
func (nc *NoopCollector) CriticalTaskFailed(string)            {}
