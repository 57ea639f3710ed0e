package denoiser

import (
	"bytes"
	"encoding/binary"

	"github.com/cockroachdb/errors"

	"github.com/spaghettifunk/anima-denoiser/engine/math"
)

// SIGMA shadow transient pool, in declaration order.
const (
	sigmaData1 uint16 = iota
	sigmaData2
	sigmaTemp1
	sigmaTemp2
	sigmaHistory
	sigmaTiles
	sigmaSmoothedTiles
)

// SIGMA shadow passes, in declaration order.
const (
	sigmaPassClassifyTiles = iota
	sigmaPassSmoothTiles
	sigmaPassBlur
	sigmaPassPostBlur
	sigmaPassPostBlurStabilized
	sigmaPassTemporalStabilization
	sigmaPassSplitScreen
)

// sigmaConstants is the constant buffer layout shared by every SIGMA shadow shader.
// Fields are 4 bytes wide and the struct is a multiple of 16 bytes.
type sigmaConstants struct {
	RectSize          [2]uint32
	RectSizePrev      [2]uint32
	ResourceSize      [2]uint32
	InvRectSize       [2]float32
	MotionVectorScale [3]float32
	ViewZScale        float32
	CameraJitter      [2]float32
	DenoisingRange    float32
	SplitScreen       float32
	FrameIndex        uint32
	Reset             uint32
	MVInWorldSpace    uint32
	_                 uint32

	LightDirection           [3]float32
	PlaneDistanceSensitivity float32
	MaxStabilizedFrameNum    float32
	BlurRadiusScale          float32
	Stabilization            uint32
	_                        uint32
}

var sigmaConstantsSize = uint32(binary.Size(sigmaConstants{}))

type sigmaShadow struct{}

func (sigmaShadow) defaultSettings() any {
	return DefaultSigmaSettings()
}

func (sigmaShadow) checkSettings(settings any) error {
	s, ok := settings.(SigmaSettings)
	if !ok {
		return errors.Wrapf(ErrInvalidSettings, "expected SigmaSettings, got %T", settings)
	}
	if s.PlaneDistanceSensitivity < 0 {
		return errors.Wrapf(ErrInvalidSettings, "negative plane distance sensitivity %f", s.PlaneDistanceSensitivity)
	}
	return nil
}

func (sigmaShadow) declare(b *passBuilder) error {
	b.reserveConstants(sigmaConstantsSize)

	b.addTransient(FormatR16Sfloat, 1)
	b.addTransient(FormatR16Sfloat, 1)
	b.addTransient(FormatR8Unorm, 1)
	b.addTransient(FormatR8Unorm, 1)
	b.addTransient(FormatR8Unorm, 1)
	b.addTransient(FormatRGBA8Unorm, 16)
	b.addTransient(FormatRG8Unorm, 16)

	threads := [2]uint16{defaultNumThreads, defaultNumThreads}

	b.pushPass("Classify tiles")
	b.input(InViewZ)
	b.input(InPenumbra)
	b.outputTransient(sigmaTiles)
	if err := b.addDispatch("SIGMA_Shadow_ClassifyTiles", 1, threads); err != nil {
		return err
	}

	b.pushPass("Smooth tiles")
	b.inputTransient(sigmaTiles)
	b.outputTransient(sigmaSmoothedTiles)
	if err := b.addDispatch("SIGMA_Shadow_SmoothTiles", 16, threads); err != nil {
		return err
	}

	b.pushPass("Blur")
	b.input(InViewZ)
	b.input(InNormalRoughness)
	b.input(InPenumbra)
	b.inputTransient(sigmaSmoothedTiles)
	b.input(OutShadowTranslucency)
	b.outputTransient(sigmaData1)
	b.outputTransient(sigmaTemp1)
	b.outputTransient(sigmaHistory)
	if err := b.addDispatch("SIGMA_Shadow_Blur", useMaxDims, threads); err != nil {
		return err
	}

	for _, stabilized := range []bool{false, true} {
		b.pushPass("Post-blur")
		b.input(InViewZ)
		b.input(InNormalRoughness)
		b.inputTransient(sigmaData1)
		b.inputTransient(sigmaSmoothedTiles)
		b.inputTransient(sigmaTemp1)
		b.outputTransient(sigmaData2)
		if stabilized {
			b.outputTransient(sigmaTemp2)
		} else {
			b.output(OutShadowTranslucency)
		}
		if err := b.addDispatch("SIGMA_Shadow_PostBlur", 1, threads); err != nil {
			return err
		}
	}

	b.pushPass("Temporal stabilization")
	b.input(InViewZ)
	b.input(InMV)
	b.inputTransient(sigmaData2)
	b.inputTransient(sigmaTemp2)
	b.inputTransient(sigmaHistory)
	b.inputTransient(sigmaSmoothedTiles)
	b.output(OutShadowTranslucency)
	if err := b.addDispatch("SIGMA_Shadow_TemporalStabilization", 1, threads); err != nil {
		return err
	}

	b.pushPass("Split screen")
	b.input(InViewZ)
	b.input(InPenumbra)
	b.output(OutShadowTranslucency)
	return b.addDispatch("SIGMA_Shadow_SplitScreen", 1, threads)
}

func (sigmaShadow) schedule(common CommonSettings, settings any) []scheduledPass {
	s := settings.(SigmaSettings)
	stabilized := s.MaxStabilizedFrameNum != 0

	base := sigmaConstants{
		RectSize:                 [2]uint32{uint32(common.RectSize[0]), uint32(common.RectSize[1])},
		RectSizePrev:             [2]uint32{uint32(common.RectSizePrev[0]), uint32(common.RectSizePrev[1])},
		ResourceSize:             [2]uint32{uint32(common.ResourceSize[0]), uint32(common.ResourceSize[1])},
		InvRectSize:              [2]float32{1 / float32(math.Max(common.RectSize[0], 1)), 1 / float32(math.Max(common.RectSize[1], 1))},
		MotionVectorScale:        common.MotionVectorScale,
		ViewZScale:               common.ViewZScale,
		CameraJitter:             common.CameraJitter,
		DenoisingRange:           common.DenoisingRange,
		SplitScreen:              common.SplitScreen,
		FrameIndex:               common.FrameIndex,
		LightDirection:           s.LightDirection,
		PlaneDistanceSensitivity: s.PlaneDistanceSensitivity,
		MaxStabilizedFrameNum:    float32(min(s.MaxStabilizedFrameNum, SigmaMaxHistoryFrameNum)),
	}
	if common.AccumulationMode != AccumulationContinue {
		base.Reset = 1
	}
	if common.IsMotionVectorInWorldSpace {
		base.MVInWorldSpace = 1
	}
	if stabilized {
		base.Stabilization = 1
	}

	with := func(p int, radiusScale float32) scheduledPass {
		c := base
		c.BlurRadiusScale = radiusScale
		return scheduledPass{pass: p, constants: encodeConstants(&c)}
	}

	passes := []scheduledPass{
		with(sigmaPassClassifyTiles, 0),
		with(sigmaPassSmoothTiles, 0),
		with(sigmaPassBlur, 1),
	}
	if stabilized {
		passes = append(passes,
			with(sigmaPassPostBlurStabilized, 0.5),
			with(sigmaPassTemporalStabilization, 0),
		)
	} else {
		passes = append(passes, with(sigmaPassPostBlur, 0.5))
	}
	if common.SplitScreen > 0 {
		passes = append(passes, with(sigmaPassSplitScreen, 0))
	}
	return passes
}

func encodeConstants(v any) []byte {
	var buf bytes.Buffer
	// Writing fixed-size data to a bytes.Buffer cannot fail.
	_ = binary.Write(&buf, binary.LittleEndian, v)
	return buf.Bytes()
}
