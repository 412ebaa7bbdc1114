// Package metrics exports training and prediction progress to Prometheus.
package metrics

import "net/http"
import "time"

import "github.com/prometheus/client_golang/prometheus"
import "github.com/prometheus/client_golang/prometheus/promhttp"

var (
	Epochs = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "seqclassifier_epochs_total",
		Help: "Total completed training epochs",
	})
	Batches = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "seqclassifier_batches_total",
		Help: "Total trained batches",
	})
	BatchLoss = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "seqclassifier_batch_loss",
		Help: "Loss of the last trained batch",
	})
	EpochMetrics = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "seqclassifier_epoch_metric",
		Help: "Metrics of the last completed epoch",
	}, []string{"metric"})
	Predictions = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "seqclassifier_predictions_total",
		Help: "Total predicted sequences",
	})
	PredictDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "seqclassifier_predict_duration_seconds",
		Help:    "Prediction duration seconds",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(Epochs, Batches, BatchLoss, EpochMetrics, Predictions, PredictDuration)
}

// Callback publishes the progress of a training run.
type Callback struct{}

// OnEpochEnd records every epoch metric. It never stops training.
func (Callback) OnEpochEnd(epoch int, logs map[string]float64) bool {
	Epochs.Inc()
	for name, v := range logs {
		EpochMetrics.WithLabelValues(name).Set(v)
	}
	return false
}

// OnBatchEnd records the batch loss.
func (Callback) OnBatchEnd(batch int, logs map[string]float64) {
	Batches.Inc()
	if v, ok := logs["loss"]; ok {
		BatchLoss.Set(v)
	}
}

// ObservePredict records one prediction started at start.
func ObservePredict(start time.Time) {
	Predictions.Inc()
	PredictDuration.Observe(time.Since(start).Seconds())
}

// Handler serves the metrics and a health check.
func Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	return mux
}

// StartServer serves Handler on addr (e.g. ":9090") in the background. An
// empty addr starts nothing and returns nil.
func StartServer(addr string) *http.Server {
	if addr == "" {
		return nil
	}
	srv := &http.Server{Addr: addr, Handler: Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
