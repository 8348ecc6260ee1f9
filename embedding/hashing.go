package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"strings"

	"github.com/newsletter-ai/newsrec/core"
)

// HashingEmbedder 是确定性的本地向量化实现，用于测试/开发/原型，
// 平替外部推理服务：token 做特征哈希落入固定维度桶，向量做 L2 归一化。
//
// 特点：
//   - 无外部依赖，进程内即时可用
//   - 同一文本永远得到同一向量
//   - 没有真实语义，只保证“词面重叠越多，距离越近”
type HashingEmbedder struct {
	dim int
}

// NewHashingEmbedder 创建 dim 维的特征哈希向量化器。
func NewHashingEmbedder(dim int) *HashingEmbedder {
	if dim <= 0 {
		dim = 384
	}
	return &HashingEmbedder{dim: dim}
}

// Embed 实现 core.Embedder。
func (e *HashingEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, core.NewDomainError(core.ModuleEmbedding, core.ErrorCodeInvalidInput, "embedding: empty text")
	}

	vec := make([]float32, e.dim)
	for _, token := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(token))
		sum := h.Sum32()
		bucket := int(sum % uint32(e.dim))
		// 最高位决定符号，减少哈希碰撞带来的同向累积
		if sum&0x80000000 != 0 {
			vec[bucket] -= 1
		} else {
			vec[bucket] += 1
		}
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		inv := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= inv
		}
	}
	return vec, nil
}

// EmbedBatch 实现 core.Embedder。
func (e *HashingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vecs := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		vecs[i] = vec
	}
	return vecs, nil
}

var _ core.Embedder = (*HashingEmbedder)(nil)
