package rerank

import (
	"context"

	"github.com/newsletter-ai/newsrec/core"
	"github.com/newsletter-ai/newsrec/pipeline"
)

// Diversity 是一个简单的多样性重排节点：限制每个新闻类目的文章数量，
// 避免推荐列表被单一类目（如全是政治新闻）占满。
// 类目来源优先级：
// - label["category"].Value
// - meta["category"] (string)
type Diversity struct {
	// LabelKey 类目字段名，默认 "category"
	LabelKey string
	// MaxPerCategory 每个类目最多保留的文章数，默认 1
	MaxPerCategory int
}

func (n *Diversity) Name() string {
	return "rerank.diversity"
}

func (n *Diversity) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *Diversity) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}

	key := n.LabelKey
	if key == "" {
		key = "category"
	}
	limit := n.MaxPerCategory
	if limit <= 0 {
		limit = 1
	}

	seen := make(map[string]int, 32)
	out := make([]*core.Item, 0, len(items))

	for _, it := range items {
		if it == nil {
			continue
		}

		cate := ""
		if it.Labels != nil {
			if lbl, ok := it.Labels[key]; ok {
				cate = lbl.Value
			}
		}
		if cate == "" && it.Meta != nil {
			if v, ok := it.Meta[key]; ok {
				if s, ok := v.(string); ok {
					cate = s
				}
			}
		}

		if cate == "" {
			out = append(out, it)
			continue
		}
		if seen[cate] >= limit {
			continue
		}
		seen[cate]++
		out = append(out, it)
	}

	return out, nil
}

var _ pipeline.Node = (*Diversity)(nil)
