// Package rerank 提供重排阶段的 Pipeline Node 实现。
package rerank

import (
	"context"

	"github.com/newsletter-ai/newsrec/core"
	"github.com/newsletter-ai/newsrec/pipeline"
)

// TopNNode 是一个 Top-N 截断节点，用于在排序后截取前 N 篇文章。
// 通常在混合排序（rank.Hybrid）之后使用，用于限制最终推荐数量。
//
// 示例：
//
//	pipeline := &pipeline.Pipeline{
//	    Nodes: []pipeline.Node{
//	        &rank.Hybrid{...},        // 混合排序
//	        &rerank.TopNNode{N: 5},   // 截取 Top 5
//	    },
//	}
type TopNNode struct {
	// N 要保留的文章数量（Top N）
	// 如果 N <= 0，则返回所有文章（不截断）
	// 如果 N > len(items)，则返回所有文章
	N int
}

func (n *TopNNode) Name() string {
	return "rerank.topn"
}

func (n *TopNNode) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *TopNNode) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if n.N <= 0 {
		return items, nil
	}

	if len(items) <= n.N {
		return items, nil
	}

	return items[:n.N], nil
}

var _ pipeline.Node = (*TopNNode)(nil)
