// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trk

import (
	"math/bits"
)

// Hit is a straw hit: a hit packet followed by its ADC packet.
type Hit struct {
	Channel uint16 // straw index, as transmitted
	TDC0    uint32 // raw 24-bit time counter, CAL side
	TDC1    uint32 // raw 24-bit time counter, HV side
	TOT0    uint8  // time over threshold, CAL side
	TOT1    uint8  // time over threshold, HV side
	EWM     uint8  // event window marker counter
	Flags   uint8  // error flags
	NumADC  uint8  // number of ADC packets
	PMP     uint16 // pulse maximum position

	ADC [NumSamples]uint16 // waveform, bit-reversed from the raw samples
}

// DecodeHit decodes a hit from the first HitSize bytes of p.
func DecodeHit(p []byte) (Hit, error) {
	var hit Hit
	if len(p) < HitSize {
		return hit, newError(
			ErrTruncated, -1, -1,
			"trk: hit needs %d bytes (got=%d)", HitSize, len(p),
		)
	}

	w2 := u16(p, 2)
	w4 := u16(p, 4)
	w5 := u16(p, 5)

	hit.Channel = u16(p, 0)
	hit.TDC0 = uint32(u16(p, 1)) | uint32(w2&0xff)<<16
	hit.TOT0 = uint8(w2>>8) & 0xf
	hit.EWM = uint8(w2 >> 12)
	hit.TDC1 = uint32(u16(p, 3)) | uint32(w4&0xff)<<16
	hit.TOT1 = uint8(w4>>8) & 0xf
	hit.Flags = uint8(w4 >> 12)
	hit.NumADC = uint8(w5 & 0xf)
	hit.PMP = (w5 >> 4) & 0x3ff

	// 3 samples are packed in every pair of words: the first 2 words
	// sit in the hit packet, the 8 others form the ADC packet.
	// The middle sample is split in a 6-bit low part and a 4-bit high part.
	for i := 0; i < NumSamples/3; i++ {
		var (
			lo = u16(p, 6+2*i)
			hi = u16(p, 7+2*i)
		)
		hit.ADC[3*i+0] = ReverseBits(lo & 0x3ff)
		hit.ADC[3*i+1] = ReverseBits(lo>>10 | (hi&0xf)<<6)
		hit.ADC[3*i+2] = ReverseBits((hi >> 4) & 0x3ff)
	}

	return hit, nil
}

// FoldedChannel returns the channel index of the hit, with the
// straw indices of the second FPGA folded back onto [0,128).
func (hit *Hit) FoldedChannel() int {
	ich := int(hit.Channel)
	if ich >= chanFold {
		ich -= chanFold
	}
	return ich
}

// CorrTDC0 returns the corrected TDC0 counter.
func (hit *Hit) CorrTDC0() uint32 { return CorrectedTDC(hit.TDC0) }

// CorrTDC1 returns the corrected TDC1 counter.
func (hit *Hit) CorrTDC1() uint32 { return CorrectedTDC(hit.TDC1) }

func (hit *Hit) encode(p []byte) {
	putU16(p, 0, hit.Channel)
	putU16(p, 1, uint16(hit.TDC0))
	putU16(p, 2, uint16(hit.TDC0>>16)&0xff|uint16(hit.TOT0&0xf)<<8|uint16(hit.EWM&0xf)<<12)
	putU16(p, 3, uint16(hit.TDC1))
	putU16(p, 4, uint16(hit.TDC1>>16)&0xff|uint16(hit.TOT1&0xf)<<8|uint16(hit.Flags&0xf)<<12)
	putU16(p, 5, uint16(hit.NumADC&0xf)|(hit.PMP&0x3ff)<<4)
	for i := 0; i < NumSamples/3; i++ {
		var (
			a0 = ReverseBits(hit.ADC[3*i+0])
			a1 = ReverseBits(hit.ADC[3*i+1])
			a2 = ReverseBits(hit.ADC[3*i+2])
		)
		putU16(p, 6+2*i, a0|(a1&0x3f)<<10)
		putU16(p, 7+2*i, a1>>6|a2<<4)
	}
}

// ReverseBits reverses the order of the low 10 bits of v.
// The ADC transmits its samples most-significant bit first.
func ReverseBits(v uint16) uint16 {
	return bits.Reverse16(v&0x3ff) >> 6
}

// CorrectedTDC corrects a raw 24-bit TDC counter whose low byte
// counts downwards.
func CorrectedTDC(raw uint32) uint32 {
	return (raw & 0xffff00) + (0xff - raw&0xff)
}
