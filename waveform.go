// waveform.go - Built-in oscillator cycle generators
// Parsers for synth-oriented formats use these to populate a SynthDef's
// waveform list when the format derives its cycles procedurally rather
// than storing PCM.

package replay

// GenerateTriangle fills a signed triangle cycle of the given length,
// rounded down to a multiple of 4 (minimum 4)
func GenerateTriangle(length int) []int8 {
	if length < 4 {
		length = 4
	}
	length &^= 3
	buf := make([]int8, length)
	quarter := length >> 2
	step := 128 / quarter
	pos := 0
	val := 0

	// Rise to the peak
	for i := 0; i < quarter; i++ {
		buf[pos] = int8(val)
		pos++
		val += step
	}
	buf[pos] = 0x7f
	pos++

	// Fall back toward zero
	if quarter != 1 {
		val = 128
		for i := 0; i < quarter-1; i++ {
			val -= step
			buf[pos] = int8(val)
			pos++
		}
	}

	// Second half mirrors and negates the first
	src := pos - (length >> 1)
	for i := 0; i < quarter*2; i++ {
		v := buf[src]
		src++
		if v == 0x7f {
			buf[pos] = -128
		} else {
			buf[pos] = -v
		}
		pos++
	}
	return buf
}

// GenerateSawtooth fills a linear ramp from -128 up to ~127
func GenerateSawtooth(length int) []int8 {
	if length < 2 {
		length = 2
	}
	buf := make([]int8, length)
	step := 256 / (length - 1)
	val := -128
	for i := range buf {
		v := val
		if v > 127 {
			v = 127
		}
		buf[i] = int8(v)
		val += step
	}
	return buf
}

// GenerateSquare fills a square cycle with the given high-duty fraction
// expressed in 64ths (32 = 50%)
func GenerateSquare(length, duty int) []int8 {
	if length < 2 {
		length = 2
	}
	if duty < 1 {
		duty = 1
	}
	if duty > 63 {
		duty = 63
	}
	buf := make([]int8, length)
	high := length * duty / 64
	for i := range buf {
		if i < high {
			buf[i] = 127
		} else {
			buf[i] = -128
		}
	}
	return buf
}

// GenerateNoise fills a buffer with deterministic white noise using the
// AHX rotate/xor PRNG, so identical seeds reproduce identical output
func GenerateNoise(length int, seed uint32) []int8 {
	if seed == 0 {
		seed = 0x41595321
	}
	buf := make([]int8, length)
	eax := seed
	for i := range buf {
		if eax&0x100 != 0 {
			if int16(eax&0xFFFF) < 0 {
				buf[i] = -128
			} else {
				buf[i] = 127
			}
		} else {
			buf[i] = int8(eax & 0xFF)
		}
		eax = (eax >> 5) | (eax << 27)
		eax ^= 0x9A
		bx := uint16(eax & 0xFFFF)
		eax = (eax << 2) | (eax >> 30)
		bx += uint16(eax & 0xFFFF)
		eax = (eax & 0xFFFF0000) | uint32(uint16(eax)^bx)
		eax = (eax >> 3) | (eax << 29)
	}
	return buf
}
