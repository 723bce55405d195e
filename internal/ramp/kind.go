package ramp

import (
	"fmt"
	"strings"

	"github.com/san-kum/brachisim/internal/dynamo"
)

// Kind selects one of the three track shapes.
type Kind int

const (
	Line Kind = iota
	Parabola
	Cycloid
)

// Kinds returns every track shape in race-lane order.
func Kinds() []Kind {
	return []Kind{Line, Parabola, Cycloid}
}

func (k Kind) String() string {
	switch k {
	case Line:
		return "line"
	case Parabola:
		return "parabola"
	case Cycloid:
		return "cycloid"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Title is the display name of the track.
func (k Kind) Title() string {
	switch k {
	case Line:
		return "Line"
	case Parabola:
		return "Parabola"
	case Cycloid:
		return "Cycloid"
	default:
		return k.String()
	}
}

func (k Kind) Valid() bool {
	return k >= Line && k <= Cycloid
}

func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "line", "straight", "recta":
		return Line, nil
	case "parabola":
		return Parabola, nil
	case "cycloid", "brachistochrone":
		return Cycloid, nil
	default:
		return 0, fmt.Errorf("%w: %q", dynamo.ErrUnknownCurve, s)
	}
}

func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: %d", dynamo.ErrUnknownCurve, int(k))
	}
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
