package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/newsletter-ai/newsrec/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvOnce sync.Once
)

// initCELEnv 初始化 CEL 环境，定义变量
func initCELEnv() (*cel.Env, error) {
	env, err := cel.NewEnv(
		cel.Variable("item", cel.DynType),
		cel.Variable("label", cel.DynType),
		cel.Variable("meta", cel.DynType),
		cel.Variable("rctx", cel.DynType),
	)
	return env, err
}

// getCELEnv 获取或创建 CEL 环境
func getCELEnv() (*cel.Env, error) {
	var err error
	celEnvOnce.Do(func() {
		celEnv, err = initCELEnv()
	})
	return celEnv, err
}

// Eval 是 Label/Meta DSL 解释器，使用 CEL (Common Expression Language) 实现。
// 用于以配置表达推荐结果的业务门槛，例如按偏见分/事实核查状态过滤：
//
//	meta.fact_check != "false"
//	meta.bias_score < 0.5 && meta.bias_score > -0.5
//	label.recall_source.contains("recall.content")
//	item.score > 0.5
//
// 表达式语法（CEL 标准语法）：
//   - 基础：label.recall_source == "recall.content"
//   - 数值：item.score > 0.7 / meta.bias_score >= -0.3
//   - 逻辑：&& / || / !
//   - 存在性：label.recall_source != null
type Eval struct {
	item *core.Item
	rctx *core.RecommendContext
	env  *cel.Env
}

// NewEval 创建一个新的 DSL 解释器。
func NewEval(item *core.Item, rctx *core.RecommendContext) *Eval {
	env, _ := getCELEnv()
	return &Eval{
		item: item,
		rctx: rctx,
		env:  env,
	}
}

// Evaluate 解析并执行 DSL 表达式，返回布尔结果。
// 注意：CEL 访问不存在的 key 会报错，存在性检查请用 label.key != null。
func (e *Eval) Evaluate(expr string) (bool, error) {
	if expr == "" {
		return true, nil
	}
	if e.env == nil {
		return false, fmt.Errorf("cel env not initialized")
	}

	ast, issues := e.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return false, fmt.Errorf("compile error: %v", issues.Err())
	}

	prg, err := e.env.Program(ast)
	if err != nil {
		return false, fmt.Errorf("program error: %v", err)
	}

	out, _, err := prg.Eval(e.buildInput())
	if err != nil {
		return false, fmt.Errorf("eval error: %v", err)
	}

	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression must return boolean, got %T", out.Value())
	}

	return result, nil
}

// buildInput 构建 CEL 表达式的输入数据
func (e *Eval) buildInput() map[string]interface{} {
	labels := make(map[string]interface{})
	labelAccessor := make(map[string]interface{})
	for k, v := range e.item.Labels {
		labels[k] = map[string]interface{}{
			"value":  v.Value,
			"source": v.Source,
		}
		// label.recall_source 直接返回 value，兼容简写
		labelAccessor[k] = v.Value
	}

	item := map[string]interface{}{
		"id":       e.item.ID,
		"score":    e.item.Score,
		"features": e.item.Features,
		"meta":     e.item.Meta,
		"labels":   labels,
	}

	rctx := map[string]interface{}{}
	if e.rctx != nil {
		rctx["user_id"] = e.rctx.UserID
		rctx["scene"] = e.rctx.Scene
		rctx["params"] = e.rctx.Params
	}

	return map[string]interface{}{
		"item":  item,
		"label": labelAccessor,
		"meta":  e.item.Meta,
		"rctx":  rctx,
	}
}
