package audio

import (
	"os"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"

	"github.com/san-kum/brachisim/internal/dynamo"
)

func Format() beep.Format {
	return beep.Format{SampleRate: SampleRate, NumChannels: 2, Precision: 2}
}

// WriteWAV encodes the impact track of events to path.
func WriteWAV(path string, events []dynamo.Event) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	format := Format()
	if err := wav.Encode(f, ImpactTrack(events, format.SampleRate), format); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
