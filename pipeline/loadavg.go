package pipeline

import "fmt"

// Fixed-point load-average arithmetic: 11 fractional bits and the decay
// constants for 1-, 5-, and 15-sample exponential windows, i.e.
// 2048/exp(interval/window) precomputed the way the classic loadavg does.
const (
	loadShift  = 11
	loadFixed1 = 1 << loadShift

	loadExp1  = 1884
	loadExp5  = 2014
	loadExp15 = 2037
)

var loadDecays = [3]uint64{loadExp1, loadExp5, loadExp15}

// loadAvg keeps the three exponentially-decayed moving averages of the
// pipeline's active task count. Purely observational; single writer (the
// load-average task), so no locking is required.
type loadAvg struct {
	avg [3]uint64
}

// update folds one sample (in plain units, not fixed point) into all three
// averages: avg' = avg*decay + sample*(1-decay).
func (l *loadAvg) update(sample uint64) {
	fixed := sample * loadFixed1
	for i, decay := range loadDecays {
		l.avg[i] = (l.avg[i]*decay + fixed*(loadFixed1-decay)) >> loadShift
	}
}

// reset clears all three averages; done when the pipeline starts.
func (l *loadAvg) reset() {
	l.avg = [3]uint64{}
}

func loadInt(v uint64) uint64  { return v >> loadShift }
func loadFrac(v uint64) uint64 { return ((v & (loadFixed1 - 1)) * 100) >> loadShift }

// String renders the triple as rounded two-decimal fixed point.
func (l *loadAvg) String() string {
	a := l.avg[0] + loadFixed1/200
	b := l.avg[1] + loadFixed1/200
	c := l.avg[2] + loadFixed1/200
	return fmt.Sprintf("%d.%02d %d.%02d %d.%02d",
		loadInt(a), loadFrac(a), loadInt(b), loadFrac(b), loadInt(c), loadFrac(c))
}
