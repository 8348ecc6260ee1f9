// Package rank 提供排序阶段的 Pipeline Node。
// newsrec 的排序信号是召回来源归属的加权融合（rank.hybrid），
// 不依赖任何训练模型。
package rank

import (
	"context"
	"sort"

	"github.com/newsletter-ai/newsrec/core"
	"github.com/newsletter-ai/newsrec/pipeline"
	"github.com/newsletter-ai/newsrec/pkg/utils"
	"github.com/newsletter-ai/newsrec/recall"
)

// Hybrid 是混合融合排序 Node：把内容召回与协同召回的输出融合成一个
// 排序列表。
//
// 融合规则（只看来源归属，不看各来源内部的距离/分数量级）：
//
//	fused = ContentWeight·[来自内容召回] + CollabWeight·[来自协同召回]
//
// 按 fused 降序排序；得分相同按文章 ID 升序，保证结果确定、可测试。
//
// 权重是策略配置而非代码常量：配置默认 0.7/0.3，对应“内容信号为主、
// 协同信号为辅”的产品策略。权重按字面值使用，显式配置 0 可以关掉
// 一路信号。
type Hybrid struct {
	// ContentWeight 内容召回命中时叠加的权重
	ContentWeight float64

	// CollabWeight 协同召回命中时叠加的权重
	CollabWeight float64
}

func (n *Hybrid) Name() string        { return "rank.hybrid" }
func (n *Hybrid) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *Hybrid) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}

	out := make([]*core.Item, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		score := 0.0
		if it.HasLabelValue("recall_source", recall.SourceContent) {
			score += n.ContentWeight
		}
		if it.HasLabelValue("recall_source", recall.SourceCollaborative) {
			score += n.CollabWeight
		}
		it.Score = score
		it.PutLabel("rank_model", utils.Label{Value: "hybrid", Source: "rank"})
		out = append(out, it)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

var _ pipeline.Node = (*Hybrid)(nil)
