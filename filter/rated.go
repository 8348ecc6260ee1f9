package filter

import (
	"context"

	"github.com/newsletter-ai/newsrec/core"
)

// RatedFilter 过滤掉目标用户已经评过分的文章。
//
// 协同召回自身会清零已评分文章，但内容召回的质心查询可能命中
// 用户已经喜欢过的文章；在需要“只推没看过的”的场景把本过滤器
// 挂到 Pipeline 上。
//
// 过滤器本身无状态：已评分集合在每次请求开始时加载一次
// （ForRequest），跟随请求丢弃，不同用户的并发请求互不可见。
type RatedFilter struct {
	Feedback core.FeedbackStore
}

func NewRatedFilter(feedback core.FeedbackStore) *RatedFilter {
	return &RatedFilter{Feedback: feedback}
}

func (f *RatedFilter) Name() string {
	return "filter.rated"
}

// ForRequest 加载目标用户的已评分集合，返回只服务本次请求的过滤器。
func (f *RatedFilter) ForRequest(
	ctx context.Context,
	rctx *core.RecommendContext,
) (Filter, error) {
	if f.Feedback == nil || rctx == nil || rctx.UserID == 0 {
		return &ratedSet{}, nil
	}

	rows, err := f.Feedback.UserFeedback(ctx, rctx.UserID, 0)
	if err != nil {
		return nil, err
	}
	rated := make(map[int64]struct{}, len(rows))
	for _, fb := range rows {
		rated[fb.ArticleID] = struct{}{}
	}
	return &ratedSet{rated: rated}, nil
}

// ShouldFilter 支持在 FilterNode 之外单独使用：每次调用都查一遍
// 存储。挂在 FilterNode 上时走 ForRequest，整个请求只查一次。
func (f *RatedFilter) ShouldFilter(
	ctx context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	rf, err := f.ForRequest(ctx, rctx)
	if err != nil {
		return false, err
	}
	return rf.ShouldFilter(ctx, rctx, item)
}

// ratedSet 是 RatedFilter 的请求级形态：持有单次请求的已评分集合。
type ratedSet struct {
	rated map[int64]struct{}
}

func (s *ratedSet) Name() string { return "filter.rated" }

func (s *ratedSet) ShouldFilter(
	_ context.Context,
	_ *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return false, nil
	}
	_, rated := s.rated[item.ID]
	return rated, nil
}

var (
	_ Filter        = (*RatedFilter)(nil)
	_ RequestScoped = (*RatedFilter)(nil)
	_ Filter        = (*ratedSet)(nil)
)
