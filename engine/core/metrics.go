package core

const AVG_COUNT uint8 = 30

// FrameStats counts the GPU work recorded during one frame.
type FrameStats struct {
	Dispatches      uint32
	Barriers        uint32
	ViewsCreated    uint32
	ConstantUploads uint32
	// ViewsEvicted counts view cache keys dropped to make room. The views stay alive until their
	// descriptor pool slot is recycled.
	ViewsEvicted uint32
}

func (fs *FrameStats) add(o FrameStats) {
	fs.Dispatches += o.Dispatches
	fs.Barriers += o.Barriers
	fs.ViewsCreated += o.ViewsCreated
	fs.ConstantUploads += o.ConstantUploads
	fs.ViewsEvicted += o.ViewsEvicted
}

// FrameAverages is the rolling average of FrameStats over AVG_COUNT frames.
type FrameAverages struct {
	Dispatches      float64
	Barriers        float64
	ViewsCreated    float64
	ConstantUploads float64
	FrameMS         float64
}

// Metrics is not safe for concurrent use; it is owned by the recording goroutine.
type Metrics struct {
	FrameAVGCounter    uint8
	Samples            [AVG_COUNT]FrameStats
	MStimes            [AVG_COUNT]float64
	Average            FrameAverages
	Current            FrameStats
	Total              FrameStats
	Frames             int32
	AccumulatedFrameMS float64
	FPS                float64
}

func NewMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) AddDispatch() {
	m.Current.Dispatches++
}

func (m *Metrics) AddBarriers(n int) {
	m.Current.Barriers += uint32(n)
}

func (m *Metrics) AddViewCreated() {
	m.Current.ViewsCreated++
}

func (m *Metrics) AddViewsEvicted(n int) {
	m.Current.ViewsEvicted += uint32(n)
}

func (m *Metrics) AddConstantUpload() {
	m.Current.ConstantUploads++
}

// EndFrame folds the current counters into the rolling window.
// frameElapsedTime is in seconds.
func (m *Metrics) EndFrame(frameElapsedTime float64) {
	frameMS := frameElapsedTime * 1000.0
	m.Samples[m.FrameAVGCounter] = m.Current
	m.MStimes[m.FrameAVGCounter] = frameMS
	m.Total.add(m.Current)
	m.Current = FrameStats{}

	if m.FrameAVGCounter == AVG_COUNT-1 {
		var sum FrameStats
		var ms float64
		for i := uint8(0); i < AVG_COUNT; i++ {
			sum.add(m.Samples[i])
			ms += m.MStimes[i]
		}
		n := float64(AVG_COUNT)
		m.Average = FrameAverages{
			Dispatches:      float64(sum.Dispatches) / n,
			Barriers:        float64(sum.Barriers) / n,
			ViewsCreated:    float64(sum.ViewsCreated) / n,
			ConstantUploads: float64(sum.ConstantUploads) / n,
			FrameMS:         ms / n,
		}
	}
	m.FrameAVGCounter++
	m.FrameAVGCounter %= AVG_COUNT

	// Calculate Frames per second.
	m.AccumulatedFrameMS += frameMS
	if m.AccumulatedFrameMS > 1000 {
		m.FPS = float64(m.Frames)
		m.AccumulatedFrameMS -= 1000
		m.Frames = 0
	}
	m.Frames++
}
