package pipeline

import (
	"math"
	"slices"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"haze-obliterator/internal/debug/timing"
	"haze-obliterator/internal/models"
)

type StageTiming struct {
	Name     string
	Duration time.Duration
}

// RunMetrics summarises one run for logging and the CLI report.
type RunMetrics struct {
	Stages []StageTiming
	Total  time.Duration

	// GuardTriggers counts divisors raised to epsilon.
	GuardTriggers int64

	TransmissionMin  float64
	TransmissionMean float64
	TransmissionMax  float64
	// TransmissionHistogram counts transmission values in equal-width bins
	// spanning the configured transmission range.
	TransmissionHistogram []float64

	// MeanAbsChange is the mean absolute per-sample difference between the
	// hazy and restored images.
	MeanAbsChange float64
	// PSNR of the restored image against the hazy one, in dB. +Inf when they
	// are identical.
	PSNR float64
}

func stageTimings(tracker *timing.Tracker) ([]StageTiming, time.Duration) {
	var total time.Duration
	ops := tracker.Operations()
	stages := make([]StageTiming, 0, len(ops))
	for _, op := range ops {
		d := tracker.GetTotalTime(op)
		stages = append(stages, StageTiming{Name: op, Duration: d})
		total += d
	}
	return stages, total
}

// HistogramBins is the bin count of RunMetrics.TransmissionHistogram.
const HistogramBins = 9

// histogram bins values, all of which lie in [lo, hi].
func histogram(values []float64, lo, hi float64, bins int) []float64 {
	if len(values) == 0 || !(hi > lo) {
		return nil
	}
	dividers := make([]float64, bins+1)
	floats.Span(dividers, lo, hi)
	dividers[bins] = math.Nextafter(hi, math.Inf(1))

	sorted := slices.Clone(values)
	slices.Sort(sorted)
	return stat.Histogram(nil, dividers, sorted, nil)
}

func computeMetrics(hazy, restored *models.Image, t *models.ScalarMap, tRange [2]float64, tracker *timing.Tracker, guardTriggers int64) RunMetrics {
	m := RunMetrics{GuardTriggers: guardTriggers}
	m.Stages, m.Total = stageTimings(tracker)

	if len(t.Data) > 0 {
		m.TransmissionMin = floats.Min(t.Data)
		m.TransmissionMax = floats.Max(t.Data)
		m.TransmissionMean = stat.Mean(t.Data, nil)
		m.TransmissionHistogram = histogram(t.Data, tRange[0], tRange[1], HistogramBins)
	}

	n := float64(len(hazy.Pix))
	if n == 0 || len(hazy.Pix) != len(restored.Pix) {
		return m
	}
	m.MeanAbsChange = floats.Distance(hazy.Pix, restored.Pix, 1) / n
	m.PSNR = PSNR(hazy.Pix, restored.Pix)
	return m
}

// PSNR is the peak signal-to-noise ratio of b against a for samples in [0,1].
func PSNR(a, b []float64) float64 {
	d := floats.Distance(a, b, 2)
	mse := d * d / float64(len(a))
	if mse == 0 {
		return math.Inf(1)
	}
	return 10 * math.Log10(1/mse)
}
