// Package sentiment smooths raw per-sentence sentiment scores into a running track.
package sentiment

// ChangeRate is the share of a new raw score blended into the running value.
const ChangeRate = 0.2

// Smooth blends raw into prev with exponential smoothing.
func Smooth(prev, raw float64) float64 {
	return prev*(1-ChangeRate) + raw*ChangeRate
}

// SmoothSeries smooths a series of raw scores. The first value is kept as is.
func SmoothSeries(raw []float64) []float64 {
	out := make([]float64, len(raw))
	for i, r := range raw {
		if i == 0 {
			out[i] = r
			continue
		}
		out[i] = Smooth(out[i-1], r)
	}
	return out
}

// Point is one smoothed observation tied to the sentence that produced it.
type Point struct {
	Sentence int
	Raw      float64
	Smoothed float64
}

// Track is the smoothed sentiment history of one segment. Not safe for concurrent use.
type Track struct {
	points []Point
}

// Observe records a raw score for sentence. Repeated observations of the same sentence
// (a customer sentence that grew) replace the latest point instead of appending.
func (t *Track) Observe(sentence int, raw float64) Point {
	n := len(t.points)
	if n > 0 && t.points[n-1].Sentence == sentence {
		t.points[n-1] = t.point(sentence, raw, n-1)
		return t.points[n-1]
	}
	p := t.point(sentence, raw, n)
	t.points = append(t.points, p)
	return p
}

// point computes the point at position pos, smoothing against the one before it.
func (t *Track) point(sentence int, raw float64, pos int) Point {
	smoothed := raw
	if pos > 0 {
		smoothed = Smooth(t.points[pos-1].Smoothed, raw)
	}
	return Point{Sentence: sentence, Raw: raw, Smoothed: smoothed}
}

// Values returns the smoothed values in observation order.
func (t *Track) Values() []float64 {
	out := make([]float64, len(t.points))
	for i, p := range t.points {
		out[i] = p.Smoothed
	}
	return out
}

// Latest returns the most recent smoothed value.
func (t *Track) Latest() (float64, bool) {
	if len(t.points) == 0 {
		return 0, false
	}
	return t.points[len(t.points)-1].Smoothed, true
}

func (t *Track) Len() int {
	return len(t.points)
}
