// Package newsrec 是一个新闻混合推荐引擎（Newsletter Recommender）。
//
// 设计要点：
// - Pipeline-first: 推荐逻辑通过 Node 串联（Recall → Filter → Rank → ReRank）
// - 精确向量检索: 平铺 L2 索引 + 快照持久化 + 持久存储重建
// - 混合策略: 内容召回（喜欢质心）与协同召回（余弦 CF）按 0.7/0.3 融合
// - Labels-first: labels 全链路透传与标准化 merge，支持 explain / 策略驱动
package newsrec

import "github.com/newsletter-ai/newsrec/pipeline"

// 轻量 facade：便于用户直接 import "newsrec" 使用核心抽象。
type Pipeline = pipeline.Pipeline
type Node = pipeline.Node
type Kind = pipeline.Kind

const (
	KindRecall      = pipeline.KindRecall
	KindFilter      = pipeline.KindFilter
	KindRank        = pipeline.KindRank
	KindReRank      = pipeline.KindReRank
	KindPostProcess = pipeline.KindPostProcess
)
