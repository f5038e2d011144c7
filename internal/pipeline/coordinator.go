// Package pipeline wires the dehazing stages into a single run: ingestion,
// atmospheric light on the reduced image, then transmission and restoration
// on the full-resolution image.
package pipeline

import (
	"context"
	"fmt"
	"math"
	"sync/atomic"

	"haze-obliterator/internal/algorithms"
	"haze-obliterator/internal/algorithms/restore"
	"haze-obliterator/internal/algorithms/transmission"
	"haze-obliterator/internal/config"
	"haze-obliterator/internal/debug/timing"
	"haze-obliterator/internal/models"
	"haze-obliterator/internal/numeric"
	"haze-obliterator/internal/processing/chain"
	"haze-obliterator/internal/processing/filters"
	"haze-obliterator/internal/processing/resize"
)

// Result is everything a run produces. Every grid is freshly allocated.
type Result struct {
	Hazy         *models.Image
	Restored     *models.Image
	Transmission *models.ScalarMap
	// Dark is the eroded channel minimum of the reduced image.
	Dark    *models.ScalarMap
	Light   models.AtmosphericLight
	LightAt models.LightEstimate
	Metrics RunMetrics
	// Warning wraps models.ErrNumericGuardTriggered when any divisor was
	// floored. It never fails the run.
	Warning error
}

type Coordinator struct {
	cfg       *config.Config
	logger    Logger
	loader    ImageLoader
	resizer   Resizer
	eroder    Eroder
	estimator algorithms.LightEstimator
	backend   numeric.Backend
	runs      atomic.Uint64
}

type Option func(*Coordinator)

func WithLoader(l ImageLoader) Option {
	return func(c *Coordinator) { c.loader = l }
}

func WithResizer(r Resizer) Option {
	return func(c *Coordinator) { c.resizer = r }
}

func WithEroder(e Eroder) Option {
	return func(c *Coordinator) { c.eroder = e }
}

// New builds a coordinator from a validated configuration. The pure-Go
// components are built here; OpenCV-backed ones must be supplied through
// options when the configuration selects them.
func New(cfg *config.Config, log Logger, opts ...Option) (*Coordinator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	backend, err := numeric.New(cfg.Numeric.Backend, cfg.Numeric.LUTBits, cfg.Numeric.LUTRange)
	if err != nil {
		return nil, err
	}

	workers := cfg.Performance.Workers
	manager := algorithms.NewManager(cfg.Algorithm.LightFloor, cfg.Algorithm.TopFraction, workers)
	estimator, err := manager.GetEstimator(cfg.Algorithm.LightEstimator)
	if err != nil {
		return nil, err
	}

	c := &Coordinator{
		cfg:       cfg,
		logger:    log,
		estimator: estimator,
		backend:   backend,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.loader == nil {
		if cfg.Performance.Decoder != config.DecoderGo {
			return nil, fmt.Errorf("decoder %q needs an injected loader", cfg.Performance.Decoder)
		}
		c.loader = NewGoLoader(log)
	}
	if c.resizer == nil {
		if cfg.Performance.Resizer != resize.ResizerArea {
			return nil, fmt.Errorf("resizer %q needs an injected resizer", cfg.Performance.Resizer)
		}
		c.resizer = resize.NewArea(workers)
	}
	if c.eroder == nil {
		switch cfg.Performance.Erosion {
		case filters.ErosionCascade:
			c.eroder = filters.NewCascadeMinFilter(workers)
		case filters.ErosionDirect:
			c.eroder = filters.NewDirectMinFilter(workers)
		default:
			return nil, fmt.Errorf("erosion %q needs an injected eroder", cfg.Performance.Erosion)
		}
	}

	log.Debug("Coordinator", "pipeline configured", map[string]interface{}{
		"backend":   backend.Name(),
		"estimator": estimator.GetName(),
		"loader":    c.loader.Name(),
		"resizer":   c.resizer.Name(),
		"eroder":    c.eroder.Name(),
		"window":    cfg.Algorithm.WindowSize,
		"factor":    cfg.Algorithm.DownscaleFactor,
		"workers":   workers,
	})
	return c, nil
}

// RunFile loads path and runs the pipeline on it.
func (c *Coordinator) RunFile(ctx context.Context, path string) (*Result, error) {
	hazy, err := c.loader.LoadFile(path)
	if err != nil {
		c.logger.Error("Coordinator", err, map[string]interface{}{"path": path})
		return nil, err
	}
	return c.Run(ctx, hazy)
}

// Run dehazes one image. It is safe to call concurrently: all per-run state,
// the divisor guard included, is created here.
func (c *Coordinator) Run(ctx context.Context, hazy *models.Image) (*Result, error) {
	if hazy == nil || hazy.Shape().Empty() {
		return nil, fmt.Errorf("cannot dehaze an empty image")
	}

	a := c.cfg.Algorithm
	workers := c.cfg.Performance.Workers
	guard := numeric.NewGuard(a.Epsilon)
	params := transmission.Params{
		Epsilon: a.Epsilon,
		Psi:     a.Psi,
		Min:     a.TransmissionMin,
		Max:     a.TransmissionMax,
	}

	stages := &stageSet{
		factor:    a.DownscaleFactor,
		window:    a.WindowSize,
		workers:   workers,
		resizer:   c.resizer,
		eroder:    c.eroder,
		estimator: c.estimator,
		norm:      restore.NewNormalizer(c.backend, guard, workers),
		trans:     transmission.NewEstimator(params, c.backend, guard, workers),
		restorer:  restore.NewRestorer(c.backend, guard, workers),
	}

	tracker := timing.NewTracker()
	pc := chain.NewProcessingChain(stages.steps(), tracker)

	log := c.logger.With(map[string]interface{}{"run": c.runs.Add(1)})

	st := &runState{hazy: hazy}
	log.Info("Coordinator", "run started", map[string]interface{}{
		"width":  hazy.Width,
		"height": hazy.Height,
	})
	if err := pc.Execute(ctx, st); err != nil {
		log.Error("Coordinator", err, nil)
		return nil, err
	}
	for _, name := range pc.GetStepNames() {
		log.Debug("Coordinator", "stage finished", map[string]interface{}{
			"stage":    name,
			"duration": tracker.GetTotalTime(name).String(),
		})
	}

	result := &Result{
		Hazy:         hazy,
		Restored:     st.restored,
		Transmission: st.transmission,
		Dark:         st.dark,
		Light:        st.light.Light,
		LightAt:      st.light,
		Metrics:      computeMetrics(hazy, st.restored, st.transmission, [2]float64{a.TransmissionMin, a.TransmissionMax}, tracker, guard.Triggered()),
	}

	if n := guard.Triggered(); n > 0 {
		result.Warning = fmt.Errorf("%w: %d divisors floored to %g", models.ErrNumericGuardTriggered, n, a.Epsilon)
		log.Warning("Coordinator", "numeric guard triggered", map[string]interface{}{
			"error": models.ErrNumericGuardTriggered.Error(),
			"count": n,
		})
	}

	fields := map[string]interface{}{
		"light":             result.Light.String(),
		"light_x":           st.light.X,
		"light_y":           st.light.Y,
		"transmission_mean": result.Metrics.TransmissionMean,
		"total":             result.Metrics.Total.String(),
	}
	// Identical hazy and restored images give an infinite PSNR.
	if !math.IsInf(result.Metrics.PSNR, 0) {
		fields["psnr"] = result.Metrics.PSNR
	}
	log.Info("Coordinator", "run completed", fields)
	return result, nil
}
