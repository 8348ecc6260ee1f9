package embedding

import (
	"context"
	"math"
	"testing"
)

func TestHashingEmbedder_Deterministic(t *testing.T) {
	e := NewHashingEmbedder(64)
	ctx := context.Background()

	a, err := e.Embed(ctx, "central bank cuts interest rates")
	if err != nil {
		t.Fatalf("向量化失败: %v", err)
	}
	b, err := e.Embed(ctx, "central bank cuts interest rates")
	if err != nil {
		t.Fatalf("向量化失败: %v", err)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("同一文本应得到同一向量，第 %d 维不同", i)
		}
	}
}

func TestHashingEmbedder_L2Normalized(t *testing.T) {
	e := NewHashingEmbedder(64)
	vec, err := e.Embed(context.Background(), "stock market rally continues")
	if err != nil {
		t.Fatalf("向量化失败: %v", err)
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if math.Abs(math.Sqrt(norm)-1) > 1e-5 {
		t.Errorf("向量应 L2 归一化，实际模长 %f", math.Sqrt(norm))
	}
}

func TestHashingEmbedder_EmptyTextError(t *testing.T) {
	e := NewHashingEmbedder(64)
	if _, err := e.Embed(context.Background(), ""); err == nil {
		t.Error("空文本应报错")
	}
}

func TestHashingEmbedder_OverlapCloser(t *testing.T) {
	e := NewHashingEmbedder(128)
	ctx := context.Background()

	base, _ := e.Embed(ctx, "interest rates and monetary policy")
	similar, _ := e.Embed(ctx, "interest rates and fiscal policy")
	different, _ := e.Embed(ctx, "football world cup qualifiers")

	if l2(base, similar) >= l2(base, different) {
		t.Error("词面重叠更多的文本距离应更近")
	}
}

func l2(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i] - b[i])
		sum += d * d
	}
	return sum
}
