package config

import (
	"fmt"
	"time"

	"github.com/newsletter-ai/newsrec/core"
	"github.com/newsletter-ai/newsrec/filter"
	"github.com/newsletter-ai/newsrec/index"
	"github.com/newsletter-ai/newsrec/pipeline"
	"github.com/newsletter-ai/newsrec/pkg/conv"
	"github.com/newsletter-ai/newsrec/rank"
	"github.com/newsletter-ai/newsrec/recall"
	"github.com/newsletter-ai/newsrec/rerank"
)

// Deps 是配置驱动装配时需要注入的运行时依赖。
// 召回源需要索引和存储实例，这些无法从配置文件构建，只能注入。
type Deps struct {
	Index    *index.FlatIndex
	Vectors  core.ArticleVectorStore
	Feedback core.FeedbackStore
	KV       core.KeyValueStore
}

// Factory 返回包含所有内置 Node 的工厂，召回源通过 deps 注入依赖。
// 通过 Register 注册的扩展 Node 类型同样可用，同名时内置类型优先。
func Factory(deps Deps) *pipeline.NodeFactory {
	f := DefaultFactory()

	f.Register("recall.fanout", buildFanoutNode(deps))
	f.Register("recall.recency", buildRecencyNode(deps))
	f.Register("rank.hybrid", buildHybridNode)
	f.Register("rerank.topn", buildTopNNode)
	f.Register("rerank.diversity", buildDiversityNode)
	f.Register("filter", buildFilterNode(deps))

	return f
}

func buildFanoutNode(deps Deps) pipeline.NodeBuilder {
	return func(cfg map[string]interface{}) (pipeline.Node, error) {
		sourcesConfig, ok := cfg["sources"].([]interface{})
		if !ok {
			return nil, fmt.Errorf("sources not found or invalid")
		}

		sources := make([]recall.Source, 0, len(sourcesConfig))
		for _, sc := range sourcesConfig {
			sourceMap, ok := sc.(map[string]interface{})
			if !ok {
				continue
			}
			src, err := buildSource(deps, sourceMap)
			if err != nil {
				return nil, err
			}
			sources = append(sources, src)
		}

		fanout := &recall.Fanout{
			Sources: sources,
			Dedup:   conv.ConfigGet(cfg, "dedup", true),
		}
		if sec := conv.ConfigGetInt(cfg, "timeout", 0); sec > 0 {
			fanout.Timeout = time.Duration(sec) * time.Second
		}
		if n := conv.ConfigGetInt(cfg, "max_concurrent", 0); n > 0 {
			fanout.MaxConcurrent = n
		}
		fanout.MergeStrategy = conv.ConfigGet(cfg, "merge_strategy", "first")

		return fanout, nil
	}
}

func buildSource(deps Deps, cfg map[string]interface{}) (recall.Source, error) {
	sourceType := conv.ConfigGet(cfg, "type", "")
	topK := conv.ConfigGetInt(cfg, "top_k", 0)

	switch sourceType {
	case "content":
		return &recall.ContentRecall{
			Feedback:       deps.Feedback,
			Vectors:        deps.Vectors,
			Index:          deps.Index,
			LikedThreshold: conv.ConfigGetFloat64(cfg, "liked_threshold", 4),
			TopK:           topK,
		}, nil
	case "collaborative":
		return &recall.CollaborativeRecall{
			Feedback: deps.Feedback,
			TopK:     topK,
			Epsilon:  conv.ConfigGetFloat64(cfg, "epsilon", 1e-6),
		}, nil
	case "recency":
		return &recall.Recency{
			Store: deps.KV,
			Key:   conv.ConfigGet(cfg, "key", ""),
			TopK:  topK,
		}, nil
	default:
		return nil, fmt.Errorf("unknown source type: %s", sourceType)
	}
}

func buildRecencyNode(deps Deps) pipeline.NodeBuilder {
	return func(cfg map[string]interface{}) (pipeline.Node, error) {
		return &recall.Recency{
			Store: deps.KV,
			Key:   conv.ConfigGet(cfg, "key", ""),
			TopK:  conv.ConfigGetInt(cfg, "top_k", 0),
		}, nil
	}
}

// 权重在这里兜底而不是留给 Node 的零值，显式配置 0 才能按字面值透传
func buildHybridNode(cfg map[string]interface{}) (pipeline.Node, error) {
	return &rank.Hybrid{
		ContentWeight: conv.ConfigGetFloat64(cfg, "content_weight", 0.7),
		CollabWeight:  conv.ConfigGetFloat64(cfg, "collab_weight", 0.3),
	}, nil
}

func buildTopNNode(cfg map[string]interface{}) (pipeline.Node, error) {
	return &rerank.TopNNode{
		N: conv.ConfigGetInt(cfg, "n", 0),
	}, nil
}

func buildDiversityNode(cfg map[string]interface{}) (pipeline.Node, error) {
	return &rerank.Diversity{
		LabelKey:       conv.ConfigGet(cfg, "label_key", ""),
		MaxPerCategory: conv.ConfigGetInt(cfg, "max_per_category", 0),
	}, nil
}

func buildFilterNode(deps Deps) pipeline.NodeBuilder {
	return func(cfg map[string]interface{}) (pipeline.Node, error) {
		filtersConfig, ok := cfg["filters"].([]interface{})
		if !ok {
			return nil, fmt.Errorf("filters not found or invalid")
		}

		filters := make([]filter.Filter, 0, len(filtersConfig))
		for _, fc := range filtersConfig {
			filterMap, ok := fc.(map[string]interface{})
			if !ok {
				continue
			}
			filterType := conv.ConfigGet(filterMap, "type", "")
			switch filterType {
			case "rated":
				filters = append(filters, filter.NewRatedFilter(deps.Feedback))
			case "expr":
				expr := conv.ConfigGet(filterMap, "expr", "")
				if expr == "" {
					return nil, fmt.Errorf("expr filter requires expr")
				}
				filters = append(filters, filter.NewExprFilter(expr))
			default:
				return nil, fmt.Errorf("unknown filter type: %s", filterType)
			}
		}

		return &filter.FilterNode{Filters: filters}, nil
	}
}
