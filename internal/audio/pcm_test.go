package audio

import (
	"math"
	"testing"
)

func TestDecodePCM16_Normalization(t *testing.T) {
	b64 := EncodePCM16([]int16{0, 16384, -16384, 32767})

	got, err := DecodePCM16(b64)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := []float32{0, 0.5, -0.5, 32767.0 / 32768.0}
	if len(got) != len(want) {
		t.Fatalf("expected %d samples, got %d", len(want), len(got))
	}
	for i := range want {
		if math.Abs(float64(got[i]-want[i])) > 1e-6 {
			t.Fatalf("sample %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestDecodePCM16_RejectsBadInput(t *testing.T) {
	if _, err := DecodePCM16("!!!not base64!!!"); err == nil {
		t.Fatalf("expected error for invalid base64")
	}
	// 3 raw bytes cannot hold whole int16 samples
	if _, err := DecodePCM16("AAAA"); err == nil {
		t.Fatalf("expected error for odd-length payload")
	}
}

func TestDecodePCM16_EmptyBlock(t *testing.T) {
	got, err := DecodePCM16("")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no samples, got %d", len(got))
	}
}
