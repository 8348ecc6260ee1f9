package index

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/newsletter-ai/newsrec/core"
)

// 向量在持久存储（ArticleVectorStore）中的字节编码：little-endian float32 连续排列。
// 写入（write-through）与 Rebuild 共用同一套 codec，保证往返一致。

// EncodeVector 将向量编码为字节。
func EncodeVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// DecodeVector 将字节解码为 dim 维向量。
// 字节长度不是 4 的倍数、或解出的维度与 dim 不符时返回错误；
// Rebuild 对这类行记录日志后跳过，不中断整体重建。
func DecodeVector(data []byte, dim int) ([]float32, error) {
	if len(data) == 0 {
		return nil, core.NewDomainError(core.ModuleIndex, core.ErrorCodeInvalidInput, "index: empty vector bytes")
	}
	if len(data)%4 != 0 {
		return nil, core.NewDomainError(core.ModuleIndex, core.ErrorCodeInvalidInput,
			fmt.Sprintf("index: vector bytes length %d not a multiple of 4", len(data)))
	}
	n := len(data) / 4
	if dim > 0 && n != dim {
		return nil, core.NewDomainError(core.ModuleIndex, core.ErrorCodeDimensionMismatch,
			fmt.Sprintf("index: decoded dimension %d, want %d", n, dim))
	}
	vec := make([]float32, n)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vec, nil
}
