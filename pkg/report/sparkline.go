package report

import "strings"

var sparkRunes = []rune("▁▂▃▄▅▆▇█")

// trail is a bounded window of recent values for one console metric. The
// engine serializes reporter calls, so no locking is needed.
type trail struct {
	values []float64
	max    int
}

func (t *trail) push(v float64) {
	t.values = append(t.values, v)
	if t.max > 0 && len(t.values) > t.max {
		t.values = t.values[len(t.values)-t.max:]
	}
}

// sparkline renders the window as Unicode blocks scaled between the window's
// own minimum and maximum; a flat window renders as the lowest block.
func (t *trail) sparkline() string {
	if len(t.values) == 0 {
		return ""
	}
	lo, hi := t.values[0], t.values[0]
	for _, v := range t.values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}

	var b strings.Builder
	for _, v := range t.values {
		i := 0
		if hi > lo {
			i = int((v - lo) / (hi - lo) * float64(len(sparkRunes)-1))
		}
		b.WriteRune(sparkRunes[i])
	}
	return b.String()
}
