package filter

import (
	"context"

	"github.com/newsletter-ai/newsrec/core"
	"github.com/newsletter-ai/newsrec/pipeline"
	"github.com/newsletter-ai/newsrec/pkg/utils"
)

// FilterNode 是过滤 Node，可以组合多个过滤器进行过滤。
// 如果任何一个过滤器返回 true，该文章就会被过滤掉。
type FilterNode struct {
	Filters []Filter
}

func (n *FilterNode) Name() string {
	return "filter.node"
}

func (n *FilterNode) Kind() pipeline.Kind {
	return pipeline.KindFilter
}

func (n *FilterNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(n.Filters) == 0 || len(items) == 0 {
		return items, nil
	}

	// 请求级过滤器在这里解析一次，整个请求复用
	filters := make([]Filter, 0, len(n.Filters))
	for _, f := range n.Filters {
		if rs, ok := f.(RequestScoped); ok {
			rf, err := rs.ForRequest(ctx, rctx)
			if err != nil {
				// 过滤器错误时记录但不中断流程
				continue
			}
			filters = append(filters, rf)
			continue
		}
		filters = append(filters, f)
	}

	out := make([]*core.Item, 0, len(items))

	for _, item := range items {
		if item == nil {
			continue
		}

		shouldFilter := false
		filterReason := ""

		// 依次检查每个过滤器
		for _, f := range filters {
			ok, err := f.ShouldFilter(ctx, rctx, item)
			if err != nil {
				// 过滤器错误时记录但不中断流程
				continue
			}
			if ok {
				shouldFilter = true
				filterReason = f.Name()
				break
			}
		}

		if shouldFilter {
			// 记录过滤原因（用于调试/观测）
			item.PutLabel("filtered", utils.Label{
				Value:  "true",
				Source: filterReason,
			})
			continue
		}

		out = append(out, item)
	}

	return out, nil
}

var _ pipeline.Node = (*FilterNode)(nil)
