// Package filter 提供过滤阶段的 Pipeline Node 与过滤器实现。
package filter

import (
	"context"

	"github.com/newsletter-ai/newsrec/core"
)

// Filter 是过滤器的抽象接口，用于判断一个 Item 是否应该被过滤掉。
// 返回 true 表示应该过滤（移除），false 表示保留。
//
// Filter 实例跟随 Pipeline 长期存活，会被不同用户的并发请求共享，
// 实现不能在结构体上缓存任何按用户/按请求的状态。需要请求级状态的
// 过滤器实现 RequestScoped。
type Filter interface {
	// Name 返回过滤器名称
	Name() string

	// ShouldFilter 判断 item 是否应该被过滤
	ShouldFilter(ctx context.Context, rctx *core.RecommendContext, item *core.Item) (bool, error)
}

// RequestScoped 由需要请求级状态的过滤器实现。FilterNode 在每次
// Process 开始时调用 ForRequest，用返回的过滤器处理本次请求的全部
// item，请求结束即丢弃。
type RequestScoped interface {
	ForRequest(ctx context.Context, rctx *core.RecommendContext) (Filter, error)
}
