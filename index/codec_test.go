package index

import (
	"testing"

	"github.com/newsletter-ai/newsrec/core"
)

func TestCodec_RoundTrip(t *testing.T) {
	orig := []float32{0.1, -2.5, 3.14159, 0, 1e10}
	decoded, err := DecodeVector(EncodeVector(orig), len(orig))
	if err != nil {
		t.Fatalf("解码失败: %v", err)
	}
	for i := range orig {
		if decoded[i] != orig[i] {
			t.Errorf("第 %d 维往返不一致: %f != %f", i, decoded[i], orig[i])
		}
	}
}

func TestCodec_DecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		dim  int
	}{
		{"空字节", nil, 3},
		{"长度不是4的倍数", []byte{1, 2, 3}, 3},
		{"维度不符", EncodeVector([]float32{1, 2}), 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeVector(tt.data, tt.dim); err == nil {
				t.Error("期望解码失败，实际成功")
			}
		})
	}
}

func TestCodec_DecodeDimensionMismatchCode(t *testing.T) {
	_, err := DecodeVector(EncodeVector([]float32{1, 2}), 3)
	if !core.IsDimensionMismatch(err) {
		t.Errorf("期望 DIMENSION_MISMATCH，实际 %v", err)
	}
}
