package token

import "crypto/subtle"

// SecureCompare reports whether a and b are equal.
//
// It runs in time proportional to the longer input regardless of where the
// first difference occurs: every byte position is XORed (missing bytes count
// as zero) and the differences are OR-accumulated before a single final test.
func SecureCompare(a, b string) bool {
	return SecureCompareN(a, b, 0)
}

// SecureCompareN is SecureCompare limited to the first n bytes when n is
// positive and smaller than the longer input. A length mismatch still makes
// the inputs unequal.
func SecureCompareN(a, b string, n int) bool {
	la, lb := len(a), len(b)

	span := la
	if lb > span {
		span = lb
	}
	if n > 0 && n < span {
		span = n
	}

	var diff byte
	for i := 0; i < span; i++ {
		var x, y byte
		if i < la {
			x = a[i]
		}
		if i < lb {
			y = b[i]
		}
		diff |= x ^ y
	}

	sameLen := subtle.ConstantTimeEq(int32(la), int32(lb))
	return subtle.ConstantTimeByteEq(diff, 0)&sameLen == 1
}
