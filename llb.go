package loglogbeta

import (
	"errors"
	"fmt"
	"math"
	"math/bits"

	"github.com/spaolacci/murmur3"
)

const (
	// Supported precision range. The register count is 2^p, so each step up doubles
	// the memory footprint.
	minPrecision = 4
	maxPrecision = 18

	// alphaInf is the limiting bias-correction constant 1/(2 ln 2). Classic
	// HyperLogLog switches to smaller alphas for small register counts; the beta
	// polynomial absorbs that bias, so the limit value is used everywhere.
	alphaInf = 0.5 / math.Ln2
)

var (
	// ErrInvalidErrorRate is returned by New when the target error rate is outside
	// (0, 1) or maps to an unsupported precision.
	ErrInvalidErrorRate = errors.New("loglogbeta: error rate must be in (0, 1) and map to a supported precision")

	// ErrInvalidPrecision is returned by NewWithPrecision for a precision outside
	// the supported range.
	ErrInvalidPrecision = errors.New("loglogbeta: precision must be in [4, 18]")

	// ErrPrecisionMismatch is returned by Merge when the two sketches were built
	// with different precisions. Neither sketch is modified in that case.
	ErrPrecisionMismatch = errors.New("loglogbeta: cannot merge sketches of different precisions")
)

// Hash64 maps an item to 64 bits. Any hash with near-uniform bit distribution
// works; the algorithm's error bound does not depend on which one is used, only
// the exact register contents (and thus reproducibility of estimates) do.
type Hash64 func([]byte) uint64

// LogLogBeta is a cardinality sketch: it estimates the number of distinct items
// inserted into it using 2^p six-bit registers, where p is fixed at construction.
type LogLogBeta struct {
	regs registers
	p    uint
	m    uint64

	// Hash is applied to every item passed to Insert. It defaults to murmur3 and
	// may be replaced (before the first Insert) to use a different or seeded hash,
	// e.g. func(b []byte) uint64 { return murmur3.Sum64WithSeed(b, seed) }.
	// Sketches built with different hashes can still be merged, but the union then
	// has no meaningful interpretation; keep the hash consistent across sketches
	// that will be merged.
	Hash Hash64
}

// New returns a sketch whose estimates have a standard error of roughly errorRate,
// which must be in (0, 1). The required precision is derived as
// ceil(log2((1.04/errorRate)^2)); rates so loose or so tight that the derived
// precision leaves [4, 18] are rejected.
func New(errorRate float64) (*LogLogBeta, error) {
	if errorRate <= 0 || errorRate >= 1 {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidErrorRate, errorRate)
	}
	p := uint(math.Ceil(math.Log2(math.Pow(1.04/errorRate, 2))))
	if p < minPrecision || p > maxPrecision {
		return nil, fmt.Errorf("%w: rate %v needs precision %d", ErrInvalidErrorRate, errorRate, p)
	}
	return NewWithPrecision(p)
}

// NewWithPrecision returns a sketch with 2^p registers. p must be in [4, 18].
func NewWithPrecision(p uint) (*LogLogBeta, error) {
	if p < minPrecision || p > maxPrecision {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidPrecision, p)
	}
	return &LogLogBeta{
		regs: newRegisters(1 << p),
		p:    p,
		m:    1 << p,
		Hash: murmur3.Sum64,
	}, nil
}

// Insert adds an item to the sketch. Duplicate items land on the same register
// with the same rank, so they never change the state. Never fails.
func (llb *LogLogBeta) Insert(item []byte) {
	llb.InsertHash(llb.Hash(item))
}

// InsertHash adds an item by its precomputed 64-bit hash, for callers that have
// already hashed their input. The top p bits select a register and the remaining
// 64-p bits determine the rank.
func (llb *LogLogBeta) InsertHash(h uint64) {
	idx := h >> (64 - llb.p)
	w := extractShift(h, 0, 63-llb.p)
	// The top p bits of w are zero after masking, so LeadingZeros64 is at least p
	// and the rank saturates at exactly 64-p+1 when w is all zeros.
	rank := uint8(bits.LeadingZeros64(w)-int(llb.p)) + 1
	llb.regs.raise(idx, rank)
}

// Estimate returns the estimated number of distinct items inserted so far. It is
// read-only, never fails, and may be interleaved freely with inserts. A sketch
// with no inserts estimates exactly 0.
func (llb *LogLogBeta) Estimate() float64 {
	zeros, inverseSum := llb.regs.zerosAndInverseSum(llb.m)
	m := float64(llb.m)
	z := float64(zeros)

	est := alphaInf * m * (m - z) / (beta(z) + inverseSum)
	if est < 0 {
		return 0
	}
	return est
}

// Merge folds other into the receiver: afterwards the receiver estimates the
// cardinality of the union of both input streams. The other sketch is not
// modified. Both sketches must have been built with the same precision, or
// ErrPrecisionMismatch is returned and neither sketch is touched.
func (llb *LogLogBeta) Merge(other *LogLogBeta) error {
	if llb.p != other.p {
		return fmt.Errorf("%w: %d != %d", ErrPrecisionMismatch, llb.p, other.p)
	}
	llb.regs = llb.regs.pointwiseMax(other.regs, llb.m)
	return nil
}

// Precision returns the precision p the sketch was built with.
func (llb *LogLogBeta) Precision() uint {
	return llb.p
}

// NumRegisters returns the register count 2^p.
func (llb *LogLogBeta) NumRegisters() uint64 {
	return llb.m
}

// ErrorRate returns the expected standard error of estimates, 1.04/sqrt(2^p).
func (llb *LogLogBeta) ErrorRate() float64 {
	return 1.04 / math.Sqrt(float64(llb.m))
}

// beta is the bias-correction polynomial fitted in the LogLog-Beta paper,
// evaluated at the number of zero-valued registers.
func beta(z float64) float64 {
	x := math.Log(z + 1)
	return -0.370393911*z +
		0.070471823*x +
		0.17393686*math.Pow(x, 2) +
		0.16339839*math.Pow(x, 3) -
		0.09237745*math.Pow(x, 4) +
		0.03738027*math.Pow(x, 5) -
		0.005384159*math.Pow(x, 6) +
		0.00042419*math.Pow(x, 7)
}
