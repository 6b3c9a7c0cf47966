package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "physique"

var (
	recalculationsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "freshness",
		Name:      "recalculations_total",
		Help:      "Number of full score recalculations.",
	})
	recalculationDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "freshness",
		Name:      "recalculation_duration_seconds",
		Help:      "Time spent rebuilding scores from history.",
		Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
	})
	workoutsScored = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "freshness",
		Name:      "workouts_per_recalculation",
		Help:      "History length passed to each recalculation.",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
	})
	lastRecalculationGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "freshness",
		Name:      "last_recalculation_timestamp_seconds",
		Help:      "Unix timestamp of the most recent recalculation.",
	})

	chunksSent = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "stream",
		Name:      "chunks_sent_total",
		Help:      "Asset chunks sent to render surfaces.",
	})
	transfersTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "stream",
		Name:      "transfers_total",
		Help:      "Asset transfers finished, by outcome.",
	}, []string{"outcome"})

	modelsParsed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "bodymap",
		Name:      "models_total",
		Help:      "Meshes handled by render surfaces, by outcome.",
	}, []string{"outcome"})
	verticesClassified = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "bodymap",
		Name:      "vertices_classified_total",
		Help:      "Vertices run through anatomical classification.",
	})
	tapsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "bodymap",
		Name:      "taps_total",
		Help:      "Muscle taps emitted, by muscle.",
	}, []string{"muscle"})

	workoutsRecorded = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "persistence",
		Name:      "workouts_recorded_total",
		Help:      "Workouts persisted to history.",
	})
	lastWorkoutGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "persistence",
		Name:      "last_workout_recorded_timestamp_seconds",
		Help:      "Unix timestamp of the most recently recorded workout.",
	})
)

func init() {
	prometheus.MustRegister(
		recalculationsTotal,
		recalculationDuration,
		workoutsScored,
		lastRecalculationGauge,
		chunksSent,
		transfersTotal,
		modelsParsed,
		verticesClassified,
		tapsTotal,
		workoutsRecorded,
		lastWorkoutGauge,
	)
}

// RecordRecalculation tracks one score rebuild.
func RecordRecalculation(elapsed time.Duration, workouts int) {
	recalculationsTotal.Inc()
	recalculationDuration.Observe(elapsed.Seconds())
	workoutsScored.Observe(float64(workouts))
	lastRecalculationGauge.SetToCurrentTime()
}

// RecordChunkSent counts one outbound chunk.
func RecordChunkSent() {
	chunksSent.Inc()
}

// RecordTransfer counts a finished transfer. complete is false when
// reassembly found missing chunks.
func RecordTransfer(complete bool) {
	if complete {
		transfersTotal.WithLabelValues("complete").Inc()
		return
	}
	transfersTotal.WithLabelValues("incomplete").Inc()
}

// RecordModelParsed counts a mesh parse and the vertices it classified.
func RecordModelParsed(vertices int) {
	modelsParsed.WithLabelValues("parsed").Inc()
	verticesClassified.Add(float64(vertices))
}

// RecordModelFailed counts a mesh that could not be loaded.
func RecordModelFailed() {
	modelsParsed.WithLabelValues("failed").Inc()
}

// RecordTap counts an emitted muscle tap.
func RecordTap(muscleID string) {
	tapsTotal.WithLabelValues(muscleID).Inc()
}

// RecordWorkoutRecorded updates the ingest counter and watermark.
func RecordWorkoutRecorded(ts time.Time) {
	workoutsRecorded.Inc()
	if ts.IsZero() {
		return
	}
	lastWorkoutGauge.Set(float64(ts.Unix()))
}
