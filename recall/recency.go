package recall

import (
	"context"
	"strconv"

	"github.com/newsletter-ai/newsrec/core"
	"github.com/newsletter-ai/newsrec/pipeline"
	"github.com/newsletter-ai/newsrec/pkg/utils"
)

// DefaultRecencyKey 是最新文章有序集合的默认 key（score = 发布时间戳）。
const DefaultRecencyKey = "articles:recent"

// Recency 是最新文章召回源：从 KeyValueStore 的有序集合按发布时间
// 降序取 TopN，作为混合推荐为空时的冷启动兜底。
// Recency 同时实现了 Source 和 Node 接口，可以直接在 Pipeline 中使用。
type Recency struct {
	Store core.KeyValueStore
	Key   string // 默认 DefaultRecencyKey
	TopK  int    // 默认 20
}

func (r *Recency) Name() string        { return SourceRecency }
func (r *Recency) Kind() pipeline.Kind { return pipeline.KindRecall }

// Process 实现 Node 接口，直接调用 Recall。
func (r *Recency) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

// Recall 实现 Source 接口。
func (r *Recency) Recall(
	ctx context.Context,
	_ *core.RecommendContext,
) ([]*core.Item, error) {
	if r.Store == nil {
		return nil, nil
	}

	key := r.Key
	if key == "" {
		key = DefaultRecencyKey
	}
	topK := r.TopK
	if topK <= 0 {
		topK = 20
	}

	members, err := r.Store.ZRange(ctx, key, 0, int64(topK)-1)
	if err != nil {
		if core.IsNotSupported(err) || core.IsStoreNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	out := make([]*core.Item, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			continue
		}
		it := core.NewItem(id)
		it.PutLabel("recall_source", utils.Label{Value: SourceRecency, Source: "recall"})
		out = append(out, it)
	}
	return out, nil
}

var _ Source = (*Recency)(nil)
var _ pipeline.Node = (*Recency)(nil)
