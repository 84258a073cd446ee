package audio

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
)

// DecodePCM16 converts one base64-encoded block of little-endian signed
// 16-bit PCM into float32 samples normalized to [-1, 1).
func DecodePCM16(b64 string) ([]float32, error) {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, fmt.Errorf("audio: base64 decode: %w", err)
	}
	if len(raw)%2 != 0 {
		return nil, fmt.Errorf("audio: odd PCM16 payload length %d", len(raw))
	}
	samples := make([]float32, len(raw)/2)
	for i := range samples {
		s := int16(binary.LittleEndian.Uint16(raw[2*i:]))
		samples[i] = float32(s) / 32768
	}
	return samples, nil
}

// EncodePCM16 is the inverse of DecodePCM16, used by tests and fixtures.
func EncodePCM16(samples []int16) string {
	raw := make([]byte, 2*len(samples))
	for i, s := range samples {
		binary.LittleEndian.PutUint16(raw[2*i:], uint16(s))
	}
	return base64.StdEncoding.EncodeToString(raw)
}
