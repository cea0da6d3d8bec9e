package app

// Metrics receives counters from the application layer. Label values are
// short lowercase words such as "ok", "error", "skipped".
type Metrics interface {
	CommandHandled(command string)
	SubscriptionChanged(operation, result string)
	HubRequest(mode, result string)
	HubChallenge(mode, result string)
	Notification(result string)
}

type nopMetrics struct{}

func (nopMetrics) CommandHandled(string)              {}
func (nopMetrics) SubscriptionChanged(string, string) {}
func (nopMetrics) HubRequest(string, string)          {}
func (nopMetrics) HubChallenge(string, string)        {}
func (nopMetrics) Notification(string)                {}

func orNop(m Metrics) Metrics {
	if m == nil {
		return nopMetrics{}
	}
	return m
}
