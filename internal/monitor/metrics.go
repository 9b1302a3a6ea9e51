package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bilal/wifiwatch/internal/decision"
	"github.com/bilal/wifiwatch/internal/model"
)

var (
	samplesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wifiwatch_samples_total",
		Help: "Total number of classified samples",
	}, []string{"verdict"})

	ruleHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wifiwatch_rule_hits_total",
		Help: "Number of samples that triggered each classification rule",
	}, []string{"rule"})

	cycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "wifiwatch_cycle_duration_seconds",
		Help:    "Duration of one probe round",
		Buckets: prometheus.DefBuckets,
	})

	signalDbm = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "wifiwatch_signal_dbm",
		Help: "Signal strength of the latest associated sample",
	})

	snrDb = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "wifiwatch_snr_db",
		Help: "Signal to noise ratio of the latest associated sample",
	})

	pingRTT = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "wifiwatch_ping_rtt_ms",
		Help: "Round trip time of the latest successful ping",
	}, []string{"target"})

	pingFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wifiwatch_ping_failures_total",
		Help: "Total number of failed pings",
	}, []string{"target"})
)

func observe(s model.Sample, ev decision.Evaluation) {
	samplesTotal.WithLabelValues(s.Verdict.String()).Inc()
	for _, rule := range ev.Rules {
		ruleHits.WithLabelValues(rule).Inc()
	}

	if s.SignalDbm != nil {
		signalDbm.Set(float64(*s.SignalDbm))
	}
	if s.SNRDb != nil {
		snrDb.Set(float64(*s.SNRDb))
	}

	observePing("gateway", s.GatewayPing)
	observePing("internet", s.InternetPing)
}

func observePing(target string, p model.PingResult) {
	if p.Failed() {
		pingFailures.WithLabelValues(target).Inc()
		return
	}
	pingRTT.WithLabelValues(target).Set(*p.RTTMs)
}
