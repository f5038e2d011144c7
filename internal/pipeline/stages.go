package pipeline

import (
	"context"
	"fmt"

	"haze-obliterator/internal/algorithms"
	"haze-obliterator/internal/algorithms/restore"
	"haze-obliterator/internal/algorithms/transmission"
	"haze-obliterator/internal/models"
	"haze-obliterator/internal/processing/chain"
	"haze-obliterator/internal/processing/filters"
	"haze-obliterator/internal/processing/resize"
)

const (
	StageDownsample   = "downsample"
	StageChannelMin   = "channel_min"
	StageErode        = "erode"
	StageLight        = "atmospheric_light"
	StageNormalize    = "normalize"
	StageSaturation   = "saturation"
	StageStretch      = "contrast_stretch"
	StageTransmission = "transmission"
	StageRestore      = "restore"
)

// runState carries every intermediate of one run. Each field is written by
// exactly one stage and only read afterwards.
type runState struct {
	hazy *models.Image

	reduced    *models.Image
	reducedMin *models.ScalarMap
	dark       *models.ScalarMap
	light      models.LightEstimate

	normalized   *models.Image
	saturation   *transmission.SaturationMaps
	stretched    *models.ScalarMap
	transmission *models.ScalarMap

	restored *models.Image
}

// stageSet holds the per-run components the stages close over.
type stageSet struct {
	factor    int
	window    int
	workers   int
	resizer   Resizer
	eroder    Eroder
	estimator algorithms.LightEstimator
	norm      *restore.Normalizer
	trans     *transmission.Estimator
	restorer  *restore.Restorer
}

// reducedShape never collapses to zero so tiny inputs still yield a light.
func reducedShape(s models.Shape, factor int) models.Shape {
	r := resize.DownsampledShape(s, factor)
	return models.Shape{Width: max(r.Width, 1), Height: max(r.Height, 1)}
}

func (s *stageSet) steps() []chain.Step[*runState] {
	return []chain.Step[*runState]{
		chain.NewStep(StageDownsample, s.downsample),
		chain.NewStep(StageChannelMin, s.channelMin),
		chain.NewStep(StageErode, s.erode),
		chain.NewStep(StageLight, s.estimateLight),
		chain.NewStep(StageNormalize, s.normalize),
		chain.NewStep(StageSaturation, s.saturate),
		chain.NewStep(StageStretch, s.stretch),
		chain.NewStep(StageTransmission, s.transmit),
		chain.NewStep(StageRestore, s.restore),
	}
}

func (s *stageSet) downsample(ctx context.Context, st *runState) error {
	target := reducedShape(st.hazy.Shape(), s.factor)
	reduced, err := s.resizer.ResizeImage(ctx, st.hazy, target.Width, target.Height)
	if err != nil {
		return err
	}
	if err := models.CheckShapes(StageDownsample, target, reduced.Shape()); err != nil {
		return err
	}
	st.reduced = reduced
	return nil
}

func (s *stageSet) channelMin(ctx context.Context, st *runState) error {
	m, err := filters.MinChannels(ctx, st.reduced, s.workers)
	if err != nil {
		return err
	}
	st.reducedMin = m
	return nil
}

func (s *stageSet) erode(ctx context.Context, st *runState) error {
	dark, err := s.eroder.Erode(ctx, st.reducedMin, s.window)
	if err != nil {
		return err
	}
	st.dark = dark
	return nil
}

func (s *stageSet) estimateLight(ctx context.Context, st *runState) error {
	est, err := s.estimator.Estimate(ctx, st.reduced, st.dark)
	if err != nil {
		return err
	}
	st.light = est
	return nil
}

func (s *stageSet) normalize(ctx context.Context, st *runState) error {
	hn, err := s.norm.Normalize(ctx, st.hazy, st.light.Light)
	if err != nil {
		return err
	}
	st.normalized = hn
	return nil
}

func (s *stageSet) saturate(ctx context.Context, st *runState) error {
	if err := models.CheckShapes(StageSaturation, st.hazy.Shape(), st.normalized.Shape()); err != nil {
		return err
	}
	maps, err := s.trans.Saturation(ctx, st.normalized)
	if err != nil {
		return err
	}
	st.saturation = maps
	return nil
}

func (s *stageSet) stretch(ctx context.Context, st *runState) error {
	sp, err := s.trans.Stretch(ctx, st.saturation.Saturation)
	if err != nil {
		return err
	}
	st.stretched = sp
	return nil
}

func (s *stageSet) transmit(ctx context.Context, st *runState) error {
	t, err := s.trans.Transmission(ctx, st.saturation.Saturation, st.stretched, st.saturation.Intensity)
	if err != nil {
		return err
	}
	st.transmission = t
	return nil
}

func (s *stageSet) restore(ctx context.Context, st *runState) error {
	d, err := s.restorer.Restore(ctx, st.hazy, st.light.Light, st.transmission)
	if err != nil {
		return err
	}
	if err := models.CheckShapes(StageRestore, st.hazy.Shape(), d.Shape()); err != nil {
		return fmt.Errorf("restored image: %w", err)
	}
	st.restored = d
	return nil
}
