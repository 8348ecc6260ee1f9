package core

import "context"

// Embedder 是文本向量化后端的领域接口。
//
// 约定：
//   - 同一模型 + 同一输入 → 同一向量（浮点可复现范围内）
//   - 输出维度稳定，与索引配置的维度一致
//   - 文本不能为空；超长文本由调用方先截断（成本随长度增长）
//
// 后端被视为可替换黑盒：
//   - embedding.OllamaEmbedder（HTTP 推理服务）
//   - embedding.HashingEmbedder（确定性本地实现，测试/原型）
//   - embedding.LazyEmbedder（初始化一次的守卫包装）
type Embedder interface {
	// Embed 将一段文本转为固定维度向量
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch 批量向量化，与逐条 Embed 语义一致
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// ErrEmbeddingUnavailable 表示 embedding 后端未配置或初始化失败。
// 对任何需要新向量的调用是致命的，但不应影响进程内其他子系统。
var ErrEmbeddingUnavailable = NewDomainError(ModuleEmbedding, ErrorCodeUnavailable, "embedding: backend unavailable")
