package recall

import (
	"context"

	"github.com/newsletter-ai/newsrec/core"
)

// Source 表示一个可复用的召回源（content / collaborative / recency / ...）。
// 你可以把它理解为“可并发 fan-out 的策略单元”。
//
// 约定：冷启动、缺向量、空矩阵等“没有可用信号”的情形返回空结果 + nil
// 错误，而不是错误值；它们是常见的预期结果，不是异常。
type Source interface {
	Name() string
	Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error)
}

// 内置召回源的标准命名。rank.hybrid 按这些名字在 recall_source 标签里
// 判断来源归属并叠加融合权重。
const (
	SourceContent       = "recall.content"
	SourceCollaborative = "recall.collaborative"
	SourceRecency       = "recall.recency"
)
