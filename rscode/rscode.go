package rscode

import "fmt"

// BlockSize is n, the fixed total length (data + parity) of one
// Reed-Solomon codeword (spec.md §3, "ReedSolomonBlock").
const BlockSize = 155

// EncodeBlock appends len(data)-derived parity to data, returning a
// BlockSize-byte slice. len(data) must be BlockSize-ecc.
func EncodeBlock(data []byte, ecc int) ([]byte, error) {
	dataLen := BlockSize - ecc
	if len(data) != dataLen {
		return nil, fmt.Errorf("rscode: EncodeBlock: want %d data bytes, got %d", dataLen, len(data))
	}
	if ecc == 0 {
		out := make([]byte, BlockSize)
		copy(out, data)
		return out, nil
	}

	gen := generatorPoly(ecc)
	// Systematic encoding: remainder of data*x^ecc divided by gen.
	remainder := make([]byte, ecc)
	msg := make([]byte, dataLen+ecc)
	copy(msg, data)
	for i := 0; i < dataLen; i++ {
		coef := msg[i]
		if coef == 0 {
			continue
		}
		for j := 0; j < len(gen); j++ {
			msg[i+j] ^= gfMul(gen[j], coef)
		}
	}
	copy(remainder, msg[dataLen:])

	out := make([]byte, 0, BlockSize)
	out = append(out, data...)
	out = append(out, remainder...)
	return out, nil
}

// DecodeBlock corrects block in place (conceptually) and returns the
// leading dataLen=BlockSize-ecc bytes. ok is false when the number of
// byte errors exceeds floor(ecc/2); the returned bytes are the
// uncorrected block's data region in that case (per spec.md §4.4,
// "passed downstream ... may still recover from other blocks").
func DecodeBlock(block []byte, ecc int) (data []byte, ok bool) {
	dataLen := BlockSize - ecc
	if len(block) != BlockSize {
		return nil, false
	}
	if ecc == 0 {
		out := make([]byte, dataLen)
		copy(out, block[:dataLen])
		return out, true
	}

	syndromes := computeSyndromes(block, ecc)
	if allZero(syndromes) {
		out := make([]byte, dataLen)
		copy(out, block[:dataLen])
		return out, true
	}

	locator := berlekampMassey(syndromes, ecc)
	numErrors := len(locator) - 1
	if numErrors == 0 || numErrors > ecc/2 {
		out := make([]byte, dataLen)
		copy(out, block[:dataLen])
		return out, false
	}

	positions, ok := chienSearch(locator, len(block))
	if !ok || len(positions) != numErrors {
		out := make([]byte, dataLen)
		copy(out, block[:dataLen])
		return out, false
	}

	magnitudes := forneyAlgorithm(syndromes, locator, positions, len(block))

	corrected := make([]byte, len(block))
	copy(corrected, block)
	for k, pos := range positions {
		idx := len(block) - 1 - pos
		if idx < 0 || idx >= len(corrected) {
			out := make([]byte, dataLen)
			copy(out, block[:dataLen])
			return out, false
		}
		corrected[idx] ^= magnitudes[k]
	}

	// Verify: a bad locator (e.g. more errors than claimed, aliasing to
	// a smaller-degree polynomial) can "correct" a block that is still
	// wrong. Re-check syndromes before trusting the result.
	if !allZero(computeSyndromes(corrected, ecc)) {
		out := make([]byte, dataLen)
		copy(out, block[:dataLen])
		return out, false
	}

	out := make([]byte, dataLen)
	copy(out, corrected[:dataLen])
	return out, true
}

func allZero(p []byte) bool {
	for _, v := range p {
		if v != 0 {
			return false
		}
	}
	return true
}

// computeSyndromes evaluates the received block (as a polynomial,
// highest degree first) at alpha^0..alpha^(ecc-1), the same roots
// generatorPoly builds the generator from (fcr=0), so a clean
// codeword's syndromes are all zero.
func computeSyndromes(block []byte, ecc int) []byte {
	s := make([]byte, ecc)
	for i := 0; i < ecc; i++ {
		s[i] = polyEval(block, gfPow(2, i))
	}
	return s
}

// berlekampMassey finds the shortest LFSR (error locator polynomial)
// that generates the syndrome sequence.
func berlekampMassey(syndromes []byte, ecc int) []byte {
	c := make([]byte, ecc+1)
	b := make([]byte, ecc+1)
	c[0], b[0] = 1, 1
	l := 0
	m := 1
	bCoef := byte(1)

	for n := 0; n < ecc; n++ {
		delta := syndromes[n]
		for i := 1; i <= l; i++ {
			delta ^= gfMul(c[i], syndromes[n-i])
		}
		if delta == 0 {
			m++
			continue
		}
		t := make([]byte, len(c))
		copy(t, c)

		coef := gfDiv(delta, bCoef)
		for i := 0; i < len(b); i++ {
			if i+m < len(c) {
				c[i+m] ^= gfMul(coef, b[i])
			}
		}
		if 2*l <= n {
			l = n + 1 - l
			copy(b, t)
			bCoef = delta
			m = 1
		} else {
			m++
		}
	}
	return c[:l+1]
}

// chienSearch finds the roots of the error locator polynomial: integer
// k in [0, blockLen) such that Lambda(alpha^-k) == 0, meaning there is
// an error at the coefficient of x^k (array position len(block)-1-k).
func chienSearch(locator []byte, blockLen int) (positions []int, ok bool) {
	// berlekampMassey builds the locator lowest-degree-coefficient first
	// (locator[0] == 1), which is the order polyEvalLowFirst expects.
	locLowFirst := locator
	for k := 0; k < blockLen; k++ {
		x := gfPow(2, -k)
		if polyEvalLowFirst(locLowFirst, x) == 0 {
			positions = append(positions, k)
		}
	}
	return positions, true
}

// forneyAlgorithm computes error magnitudes for error locations X_k =
// alpha^k given by positions, using the standard Y_k = X_k *
// Omega(X_k^-1) / Lambda'(X_k^-1) formula.
func forneyAlgorithm(syndromes, locator []byte, positions []int, blockLen int) []byte {
	// syndromes[i] is S_i and locator[i] is the x^i coefficient, so both
	// are already lowest-degree first.
	sLowFirst := syndromes
	locLowFirst := locator

	// Error evaluator polynomial: Omega(x) = S(x) * Lambda(x) mod x^ecc.
	omega := polyMulLowFirst(sLowFirst, locLowFirst)
	if len(omega) > len(syndromes) {
		omega = omega[:len(syndromes)]
	}

	// Formal derivative of the locator polynomial (low-degree-first):
	// only odd-degree terms survive in characteristic 2.
	lambdaPrime := make([]byte, len(locLowFirst)-1)
	for i := 1; i < len(locLowFirst); i += 2 {
		lambdaPrime[i-1] = locLowFirst[i]
	}

	magnitudes := make([]byte, len(positions))
	for i, k := range positions {
		xk := gfPow(2, k)
		xkInv := gfPow(2, -k)
		omegaVal := polyEvalLowFirst(omega, xkInv)
		lambdaVal := polyEvalLowFirst(lambdaPrime, xkInv)
		if lambdaVal == 0 {
			magnitudes[i] = 0
			continue
		}
		magnitudes[i] = gfMul(xk, gfDiv(omegaVal, lambdaVal))
	}
	_ = blockLen
	return magnitudes
}

func reverseBytes(p []byte) []byte {
	out := make([]byte, len(p))
	for i, v := range p {
		out[len(p)-1-i] = v
	}
	return out
}

func polyMulLowFirst(a, b []byte) []byte {
	out := make([]byte, len(a)+len(b)-1)
	for i, ac := range a {
		if ac == 0 {
			continue
		}
		for j, bc := range b {
			out[i+j] ^= gfMul(ac, bc)
		}
	}
	return out
}

func polyEvalLowFirst(p []byte, x byte) byte {
	var y byte
	xp := byte(1)
	for _, coef := range p {
		y ^= gfMul(coef, xp)
		xp = gfMul(xp, x)
	}
	return y
}
