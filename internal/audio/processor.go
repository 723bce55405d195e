package audio

import (
	"math"
	"sync"

	"github.com/gordonklaus/portaudio"
)

// voice is one ringing click in the live mix.
type voice struct {
	freq  float64
	amp   float64
	phase float64
	age   float64
}

// Processor plays impact clicks as they happen. Trigger is safe to call
// from the simulation goroutine while portaudio pulls samples.
type Processor struct {
	Stream *portaudio.Stream

	mu     sync.Mutex
	voices []voice
	bands  Bands

	filterState [2]float64
	analysis    []float64
	decay       float64

	Active bool
}

func NewProcessor() *Processor {
	return &Processor{
		analysis: make([]float64, 0, BufferSize),
		decay:    18,
	}
}

func (p *Processor) Start() error {
	if err := portaudio.Initialize(); err != nil {
		return err
	}
	stream, err := portaudio.OpenDefaultStream(0, 2, SampleRate, BufferSize, p.ProcessAudio)
	if err != nil {
		portaudio.Terminate()
		return err
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return err
	}
	p.Stream = stream
	p.Active = true
	return nil
}

func (p *Processor) Stop() {
	if p.Stream != nil {
		p.Stream.Stop()
		p.Stream.Close()
		p.Stream = nil
	}
	if p.Active {
		portaudio.Terminate()
	}
	p.Active = false
}

// Trigger starts a click for body at the given impact speed.
func (p *Processor) Trigger(body string, speed float64) {
	p.mu.Lock()
	p.voices = append(p.voices, voice{freq: pitchFor(body), amp: Amplitude(speed)})
	p.mu.Unlock()
}

// Levels returns the band levels of the most recent output buffer.
func (p *Processor) Levels() Bands {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.bands
}

// Voices is the number of clicks still ringing.
func (p *Processor) Voices() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.voices)
}

// one-pole low pass
func lpf(sample, cutoff, dt, state float64) float64 {
	rc := 1.0 / (2.0 * math.Pi * cutoff)
	alpha := dt / (rc + dt)
	return state + alpha*(sample-state)
}

// ProcessAudio is the portaudio callback. It can also be driven directly.
func (p *Processor) ProcessAudio(out [][]float32) {
	const cutoff = 4000.0
	dt := 1.0 / float64(SampleRate)

	p.mu.Lock()
	defer p.mu.Unlock()

	p.analysis = p.analysis[:0]
	for i := range out[0] {
		sample := 0.0
		for j := range p.voices {
			v := &p.voices[j]
			sample += v.amp * math.Exp(-v.age*p.decay) * math.Sin(2*math.Pi*v.phase)
			v.phase += v.freq * dt
			v.age += dt
		}

		p.filterState[0] = lpf(sample, cutoff, dt, p.filterState[0])
		p.filterState[1] = lpf(sample, cutoff*0.9, dt, p.filterState[1])
		out[0][i] = float32(p.filterState[0])
		if len(out) > 1 {
			out[1][i] = float32(p.filterState[1])
		}
		p.analysis = append(p.analysis, sample)
	}

	live := p.voices[:0]
	for _, v := range p.voices {
		if v.amp*math.Exp(-v.age*p.decay) > 1e-4 {
			live = append(live, v)
		}
	}
	p.voices = live

	b := Analyze(p.analysis, SampleRate)
	p.bands = Bands{
		Bass: p.bands.Bass*0.9 + b.Bass*0.1,
		Mid:  p.bands.Mid*0.9 + b.Mid*0.1,
		High: p.bands.High*0.9 + b.High*0.1,
	}
}
