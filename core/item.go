package core

import "github.com/newsletter-ai/newsrec/pkg/utils"

// Item 是推荐链路中的统一承载结构：一篇候选文章及其分数、元信息、标签。
// ID 是文章在关系库中的稳定主键；Labels 用于解释与策略驱动；Score 用于排序决策。
type Item struct {
	ID       int64
	Score    float64
	Features map[string]float64
	Meta     map[string]any
	Labels   map[string]utils.Label
}

func NewItem(id int64) *Item {
	return &Item{
		ID:       id,
		Score:    0,
		Features: make(map[string]float64),
		Meta:     make(map[string]any),
		Labels:   make(map[string]utils.Label),
	}
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (it *Item) PutLabel(key string, lbl utils.Label) {
	if it.Labels == nil {
		it.Labels = make(map[string]utils.Label)
	}
	if old, ok := it.Labels[key]; ok {
		it.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	it.Labels[key] = lbl
}

// HasLabelValue 判断某个 Label 的累积值中是否包含 value。
// Merge 规则以 '|' 累积 Value，因此这里按 '|' 拆分后精确比较。
func (it *Item) HasLabelValue(key, value string) bool {
	if it.Labels == nil {
		return false
	}
	lbl, ok := it.Labels[key]
	if !ok {
		return false
	}
	start := 0
	for i := 0; i <= len(lbl.Value); i++ {
		if i == len(lbl.Value) || lbl.Value[i] == '|' {
			if lbl.Value[start:i] == value {
				return true
			}
			start = i + 1
		}
	}
	return false
}
