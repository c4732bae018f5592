package mcp342x

// referenceVoltage is the internal 2.048V reference in nV.
const referenceVoltage int64 = 2_048_000_000

const referenceVoltageX2 = referenceVoltage * 2

// BufferSize is the number of bytes read for every sample, whatever the resolution.
const BufferSize = 4

// DecodeCode extracts the signed output code from a read buffer.
//
// 18 bit samples use bytes 0..2 and echo the register in byte 3. Other
// resolutions use bytes 0..1 and echo it in byte 2, leaving byte 3 unused.
func DecodeCode(buf [BufferSize]byte) (int32, Register, error) {
	reg := ParseRegister(buf[2])
	if buf[3]>>2&resolutionMask == byte(Resolution18Bit) {
		reg = ParseRegister(buf[3])
	}
	if !reg.Ready {
		return 0, reg, ErrNotReady
	}

	var raw uint32
	for i := range reg.Resolution.Bytes() {
		raw = raw<<8 | uint32(buf[i])
	}
	if raw&reg.Resolution.signBit() != 0 {
		raw |= reg.Resolution.signExtension()
	}
	code := int32(raw)

	lo, hi := reg.Resolution.Min(), reg.Resolution.Max()
	if code <= lo || code >= hi {
		return code, reg, &IllegalValueError{Value: code, Min: lo, Max: hi}
	}
	return code, reg, nil
}

// Decode converts a read buffer into millivolts.
func Decode(buf [BufferSize]byte) (float32, error) {
	code, reg, err := DecodeCode(buf)
	if err != nil {
		return 0, err
	}
	return millivolts(code, reg), nil
}

func millivolts(code int32, reg Register) float32 {
	nv := int64(code) * referenceVoltageX2 / (1 << reg.Resolution.Bits())
	return float32(nv) / float32(1_000_000*reg.Gain.Multiplier())
}
