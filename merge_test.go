package loglogbeta

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/bmizerany/assert"
)

// Builds a sketch over the integers [start, start+count) with the given hash.
func buildSketch(t *testing.T, p uint, hash Hash64, start, count uint64) *LogLogBeta {
	llb, err := NewWithPrecision(p)
	assert.Equal(t, nil, err)
	if hash != nil {
		llb.Hash = hash
	}
	for i := start; i < start+count; i++ {
		llb.Insert(u64Bytes(i))
	}
	return llb
}

func TestMergeCommutative(t *testing.T) {
	const p = 10

	ab := buildSketch(t, p, nil, 0, 5000)
	assert.Equal(t, nil, ab.Merge(buildSketch(t, p, nil, 3000, 5000)))

	ba := buildSketch(t, p, nil, 3000, 5000)
	assert.Equal(t, nil, ba.Merge(buildSketch(t, p, nil, 0, 5000)))

	assert.T(t, bytes.Equal(ab.regs, ba.regs))
	assert.Equal(t, ab.Estimate(), ba.Estimate())
}

func TestMergeAssociative(t *testing.T) {
	const p = 10

	a := func() *LogLogBeta { return buildSketch(t, p, nil, 0, 3000) }
	b := func() *LogLogBeta { return buildSketch(t, p, nil, 2000, 3000) }
	c := func() *LogLogBeta { return buildSketch(t, p, nil, 4000, 3000) }

	left := a()
	assert.Equal(t, nil, left.Merge(b()))
	assert.Equal(t, nil, left.Merge(c()))

	bc := b()
	assert.Equal(t, nil, bc.Merge(c()))
	right := a()
	assert.Equal(t, nil, right.Merge(bc))

	assert.T(t, bytes.Equal(left.regs, right.regs))
}

func TestMergeIdempotent(t *testing.T) {
	a := buildSketch(t, 10, nil, 0, 5000)
	same := buildSketch(t, 10, nil, 0, 5000)

	before := make([]byte, len(a.regs))
	copy(before, a.regs)

	assert.Equal(t, nil, a.Merge(same))
	assert.T(t, bytes.Equal(before, a.regs))

	// Merging a sketch into itself is also a no-op.
	assert.Equal(t, nil, a.Merge(a))
	assert.T(t, bytes.Equal(before, a.regs))
}

func TestMergeEmpty(t *testing.T) {
	built := buildSketch(t, 10, nil, 0, 5000)
	snapshot := make([]byte, len(built.regs))
	copy(snapshot, built.regs)

	empty, err := NewWithPrecision(10)
	assert.Equal(t, nil, err)

	// Union with an empty sketch changes nothing.
	assert.Equal(t, nil, built.Merge(empty))
	assert.T(t, bytes.Equal(snapshot, built.regs))

	// Merging the other way, the empty sketch takes on the built one's registers.
	assert.Equal(t, nil, empty.Merge(built))
	assert.T(t, bytes.Equal(snapshot, empty.regs))
}

func TestMergePrecisionMismatch(t *testing.T) {
	a, err := New(0.05) // precision 9
	assert.Equal(t, nil, err)
	b, err := New(0.01) // precision 14
	assert.Equal(t, nil, err)

	for i := uint64(0); i < 1000; i++ {
		a.Insert(u64Bytes(i))
		b.Insert(u64Bytes(i))
	}
	aBefore := make([]byte, len(a.regs))
	copy(aBefore, a.regs)
	bBefore := make([]byte, len(b.regs))
	copy(bBefore, b.regs)

	err = a.Merge(b)
	assert.Tf(t, errors.Is(err, ErrPrecisionMismatch), "%v", err)

	// Neither sketch is mutated on a rejected merge.
	assert.T(t, bytes.Equal(aBefore, a.regs))
	assert.T(t, bytes.Equal(bBefore, b.regs))
}

// Merging sketches built from disjoint sets estimates the size of the union. Like
// all estimates this is probabilistic, so each run is held to a generous multiple
// of the standard error and the mean across seeds to the configured bound.
func TestMergeSoundness(t *testing.T) {
	const p, half = 9, 5000.0
	const union = 2 * half
	seeds := []uint32{3, 17, 1009, 0x5eed, 0xfeed, 99991, 524287, 6700417}

	sum := 0.0
	for _, seed := range seeds {
		hash := seededHash(seed)
		a := buildSketch(t, p, hash, 0, half)
		b := buildSketch(t, p, hash, half, half)

		assert.Equal(t, nil, a.Merge(b))

		est := a.Estimate()
		relErr := math.Abs(est-union) / union
		assert.Tf(t, relErr < 4*a.ErrorRate(), "seed %d: estimate %v (relative error %v)", seed, est, relErr)
		sum += est
	}

	mean := sum / float64(len(seeds))
	assert.Tf(t, mean > union*0.95 && mean < union*1.05, "mean estimate %v", mean)
}

// A merged sketch's estimate is never below either input's estimate.
func TestMergeNeverDecreases(t *testing.T) {
	a := buildSketch(t, 10, nil, 0, 4000)
	b := buildSketch(t, 10, nil, 2000, 4000)

	estA := a.Estimate()
	estB := b.Estimate()

	assert.Equal(t, nil, a.Merge(b))
	merged := a.Estimate()
	assert.Tf(t, merged >= estA && merged >= estB, "merged %v below inputs %v/%v", merged, estA, estB)
}
