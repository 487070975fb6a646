package datasets

import (
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// DefaultScale maps 8-bit pixel intensities into [0,1].
const DefaultScale = 255

// LineCodec converts between one line of whitespace separated intensities and
// a Record. The first InputSize tokens form the input vector and the next
// TargetSize tokens form the target vector.
type LineCodec struct {
	InputSize  int
	TargetSize int

	// Scale is the largest raw intensity. Decoded values are token/Scale.
	Scale float64
}

// NewLineCodec returns a codec for 8-bit intensities.
func NewLineCodec(inputSize, targetSize int) LineCodec {
	return LineCodec{InputSize: inputSize, TargetSize: targetSize, Scale: DefaultScale}
}

// Width is the number of tokens a conforming line must contain.
func (c LineCodec) Width() int {
	return c.InputSize + c.TargetSize
}

// Decode parses a line into a Record. Lines with fewer than Width() tokens,
// non-numeric tokens or intensities outside [0, Scale] fail with
// ErrMalformedLine. Tokens past Width() are ignored.
func (c LineCodec) Decode(line string) (Record, error) {
	tokens := strings.Fields(line)
	if len(tokens) < c.Width() {
		return Record{}, errors.Wrapf(ErrMalformedLine, "expected %d tokens, got %d", c.Width(), len(tokens))
	}

	input, err := c.decodeVector(tokens[:c.InputSize], 0)
	if err != nil {
		return Record{}, err
	}
	target, err := c.decodeVector(tokens[c.InputSize:c.Width()], c.InputSize)
	if err != nil {
		return Record{}, err
	}
	return Record{Input: input, Target: target}, nil
}

func (c LineCodec) decodeVector(tokens []string, offset int) ([]float64, error) {
	scale := c.scale()
	out := make([]float64, len(tokens))
	for i, tok := range tokens {
		v, err := parseToken(tok)
		if err != nil {
			return nil, errors.Wrapf(ErrMalformedLine, "token %d: %v", offset+i, err)
		}
		if math.IsNaN(v) || v < 0 || v > scale {
			return nil, errors.Wrapf(ErrMalformedLine, "token %d: value %v outside [0, %v]", offset+i, v, scale)
		}
		out[i] = v / scale
	}
	return out, nil
}

// Encode formats a Record back into the line format, writing every value as
// the nearest integer intensity.
func (c LineCodec) Encode(r Record) string {
	scale := c.scale()
	var sb strings.Builder
	sb.Grow(4 * (len(r.Input) + len(r.Target)))
	write := func(vs []float64) {
		for _, v := range vs {
			if sb.Len() > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(strconv.FormatInt(int64(math.Round(v*scale)), 10))
		}
	}
	write(r.Input)
	write(r.Target)
	return sb.String()
}

func (c LineCodec) scale() float64 {
	if c.Scale <= 0 {
		return DefaultScale
	}
	return c.Scale
}
