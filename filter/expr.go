package filter

import (
	"context"

	"github.com/newsletter-ai/newsrec/core"
	"github.com/newsletter-ai/newsrec/pkg/dsl"
)

// ExprFilter 基于 DSL 表达式的通用过滤器，表达式返回 true 则保留该物品。
// 典型用法是把内容质量门槛写进配置，例如屏蔽事实核查未通过或偏见分过高的文章：
//
//	meta.fact_check != "false" && meta.bias_score < 0.5
type ExprFilter struct {
	// Expr 保留条件表达式，空表达式保留所有物品
	Expr string
	// FilterOnError 表达式求值失败时是否过滤物品，默认 false（保留）
	FilterOnError bool
}

var _ Filter = (*ExprFilter)(nil)

// NewExprFilter 创建表达式过滤器。
func NewExprFilter(expr string) *ExprFilter {
	return &ExprFilter{Expr: expr}
}

func (f *ExprFilter) Name() string { return "filter.expr" }

// ShouldFilter 对单个物品求值表达式，表达式为 false 时过滤该物品。
func (f *ExprFilter) ShouldFilter(ctx context.Context, rctx *core.RecommendContext, item *core.Item) (bool, error) {
	if f.Expr == "" {
		return false, nil
	}
	keep, err := dsl.NewEval(item, rctx).Evaluate(f.Expr)
	if err != nil {
		return f.FilterOnError, nil
	}
	return !keep, nil
}
