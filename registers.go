package loglogbeta

// registers is the packed register array of a sketch: one 6-bit register per index.
// A register holds the maximum rank observed among the items that hashed to its
// index. Ranks are bounded by 64-p+1, which is at most 61 for p >= 4, so six bits
// are always enough.
type registers []byte

func newRegisters(numRegisters uint64) registers {
	// We can store 4 6-bit registers in 3 bytes (4 * 6 == 3 * 8)
	numBytes := (numRegisters*3)/4 + 1 // +1 to round up
	return make(registers, numBytes)
}

// This function assumes that registerIdx is within range. It may panic if not.
func (r registers) get(registerIdx uint64) uint8 {
	byteIdx, startBit, numInSecondByte := bitPosn(registerIdx)

	result := (r[byteIdx] >> startBit) & 0x3f
	if numInSecondByte == 0 {
		return result
	}
	result <<= numInSecondByte
	lowOrderMask := uint8(onesFromTo(0, numInSecondByte-1))
	result |= r[byteIdx+1] & lowOrderMask
	return result
}

func (r registers) set(registerIdx uint64, val uint8) {
	byteIdx, startBit, numInSecondByte := bitPosn(registerIdx)

	b1 := r[byteIdx]
	b1 = b1 &^ uint8(onesFromTo(startBit, startBit+6-1)) // Clear bits holding this register.
	b1 |= (val >> numInSecondByte) << startBit
	r[byteIdx] = b1

	if numInSecondByte == 0 {
		return
	}

	b2 := r[byteIdx+1]
	lowOrderMask := uint8(onesFromTo(0, numInSecondByte-1))
	b2 = b2 &^ lowOrderMask // Clear bits holding this register.
	b2 |= (val & lowOrderMask)
	r[byteIdx+1] = b2
}

// raise sets register registerIdx to max(current value, rank). Registers only ever
// move upward; raising with a smaller or equal rank is a no-op.
func (r registers) raise(registerIdx uint64, rank uint8) {
	if rank > r.get(registerIdx) {
		r.set(registerIdx, rank)
	}
}

// pointwiseMax returns a fresh register array holding, at every index, the maximum
// of the two inputs. Neither input is modified. The caller must have verified that
// both arrays were built for the same register count.
func (r registers) pointwiseMax(other registers, numRegisters uint64) registers {
	out := newRegisters(numRegisters)
	for i := uint64(0); i < numRegisters; i++ {
		out.set(i, maxU8(r.get(i), other.get(i)))
	}
	return out
}

// zerosAndInverseSum makes the single pass over the array that estimation needs,
// returning the count of zero-valued registers and the harmonic-style sum
// Z = sum(2^-register[i]).
func (r registers) zerosAndInverseSum(numRegisters uint64) (zeros uint64, inverseSum float64) {
	for i := uint64(0); i < numRegisters; i++ {
		v := r.get(i)
		inverseSum += 1 / float64(uint64(1)<<v)
		if v == 0 {
			zeros++
		}
	}
	return zeros, inverseSum
}

// Given a register number, returns the bit position where it can be found in the byte slice.
func bitPosn(registerIdx uint64) (byteIdx uint64, startBit, numInSecondByte uint) {
	bitIdx := registerIdx * 6

	byteIdx = bitIdx / 8
	startBit = uint(bitIdx % 8)
	numInFirstByte := minUint(6, 8-startBit)
	numInSecondByte = 6 - numInFirstByte

	return
}

func minUint(x, y uint) uint {
	if x <= y {
		return x
	}
	return y
}

func maxU8(x, y uint8) uint8 {
	if x >= y {
		return x
	}
	return y
}
