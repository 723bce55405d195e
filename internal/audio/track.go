// Package audio turns wall impacts into sound: offline click tracks encoded
// as WAV, and a live portaudio processor for the race view.
package audio

import (
	"math"
	"time"

	"github.com/gopxl/beep"

	"github.com/san-kum/brachisim/internal/dynamo"
)

const (
	SampleRate = 44100
	BufferSize = 1024

	clickLength = 250 * time.Millisecond
	tail        = 500 * time.Millisecond
)

// Pitch per body name; unknown bodies share the default.
var pitches = map[string]float64{
	"Line":     440.00,
	"Parabola": 554.37,
	"Cycloid":  659.25,
}

const defaultPitch = 523.25

func pitchFor(body string) float64 {
	if f, ok := pitches[body]; ok {
		return f
	}
	return defaultPitch
}

// Amplitude maps an impact speed to a click loudness in (0, 0.9].
func Amplitude(speed float64) float64 {
	return 0.9 * (1 - math.Exp(-math.Abs(speed)/3))
}

// click is a damped sine: sharp attack, exponential decay.
type click struct {
	sr    beep.SampleRate
	freq  float64
	amp   float64
	decay float64
	pos   int
}

func NewClick(sr beep.SampleRate, freq, amp float64) beep.Streamer {
	return beep.Take(sr.N(clickLength), &click{sr: sr, freq: freq, amp: amp, decay: 18})
}

func (c *click) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		t := float64(c.pos) / float64(c.sr)
		v := c.amp * math.Exp(-t*c.decay) * math.Sin(2*math.Pi*c.freq*t)
		samples[i][0] = v
		samples[i][1] = v
		c.pos++
	}
	return len(samples), true
}

func (c *click) Err() error { return nil }

func audible(e dynamo.Event) bool {
	switch e.Kind {
	case dynamo.EventImpact, dynamo.EventRebound, dynamo.EventStop:
		return true
	}
	return false
}

// ImpactTrack renders a click at every far-wall contact in events, placed at
// the event's simulation time. Velocities are post-contact, so the click of
// a rebound is louder than the stop that ends the run.
func ImpactTrack(events []dynamo.Event, sr beep.SampleRate) beep.Streamer {
	streams := make([]beep.Streamer, 0, len(events)+1)
	end := 0.0
	for _, e := range events {
		if !audible(e) {
			continue
		}
		amp := Amplitude(e.Velocity)
		if e.Kind == dynamo.EventStop {
			amp = 0.2
		}
		offset := sr.N(time.Duration(e.Time * float64(time.Second)))
		streams = append(streams, beep.Seq(beep.Silence(offset), NewClick(sr, pitchFor(e.Body), amp)))
		end = math.Max(end, e.Time)
	}
	total := sr.N(time.Duration(end*float64(time.Second)) + tail)
	streams = append(streams, beep.Silence(total))
	return beep.Mix(streams...)
}

// Render drains s into a mono float slice.
func Render(s beep.Streamer) []float64 {
	out := make([]float64, 0, SampleRate)
	buf := make([][2]float64, 512)
	for {
		n, ok := s.Stream(buf)
		for i := 0; i < n; i++ {
			out = append(out, (buf[i][0]+buf[i][1])/2)
		}
		if !ok {
			return out
		}
	}
}
