package metrics

import "github.com/prometheus/client_golang/prometheus"

// BotMetrics counts chat commands, subscription changes, hub traffic and
// notifications. It satisfies app.Metrics.
type BotMetrics struct {
	Commands      *prometheus.CounterVec
	Subscriptions *prometheus.CounterVec
	HubRequests   *prometheus.CounterVec
	HubChallenges *prometheus.CounterVec
	Notifications *prometheus.CounterVec
}

func NewBotMetrics(reg prometheus.Registerer) *BotMetrics {
	m := &BotMetrics{
		Commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Chat commands handled, by command.",
		}, []string{"command"}),
		Subscriptions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "subscriptions_total",
			Help:      "Track and untrack outcomes.",
		}, []string{"operation", "result"}),
		HubRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hub_requests_total",
			Help:      "Subscribe and unsubscribe requests sent to the hub.",
		}, []string{"mode", "result"}),
		HubChallenges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hub_challenges_total",
			Help:      "Hub verification challenges answered.",
		}, []string{"mode", "result"}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Match notifications handed to the chat transport.",
		}, []string{"result"}),
	}

	reg.MustRegister(m.Commands, m.Subscriptions, m.HubRequests, m.HubChallenges, m.Notifications)
	return m
}

func (m *BotMetrics) CommandHandled(command string) {
	m.Commands.WithLabelValues(command).Inc()
}

func (m *BotMetrics) SubscriptionChanged(operation, result string) {
	m.Subscriptions.WithLabelValues(operation, result).Inc()
}

func (m *BotMetrics) HubRequest(mode, result string) {
	m.HubRequests.WithLabelValues(mode, result).Inc()
}

func (m *BotMetrics) HubChallenge(mode, result string) {
	m.HubChallenges.WithLabelValues(mode, result).Inc()
}

func (m *BotMetrics) Notification(result string) {
	m.Notifications.WithLabelValues(result).Inc()
}
