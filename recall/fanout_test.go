package recall

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/newsletter-ai/newsrec/core"
)

type stubSource struct {
	name  string
	items []int64
	err   error
	delay time.Duration
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Recall(ctx context.Context, _ *core.RecommendContext) ([]*core.Item, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	out := make([]*core.Item, 0, len(s.items))
	for _, id := range s.items {
		out = append(out, core.NewItem(id))
	}
	return out, nil
}

func TestFanout_MergesSourceLabels(t *testing.T) {
	n := &Fanout{
		Sources: []Source{
			&stubSource{name: SourceContent, items: []int64{1, 2}},
			&stubSource{name: SourceCollaborative, items: []int64{2, 3}},
		},
		Dedup: true,
	}

	items, err := n.Process(context.Background(), &core.RecommendContext{UserID: 1}, nil)
	if err != nil {
		t.Fatalf("fanout 失败: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("期望去重后 3 篇文章，实际 %d", len(items))
	}

	byID := make(map[int64]*core.Item)
	for _, it := range items {
		byID[it.ID] = it
	}

	// 文章 2 被两路命中，recall_source 应累积两个来源
	both := byID[2]
	if !both.HasLabelValue("recall_source", SourceContent) ||
		!both.HasLabelValue("recall_source", SourceCollaborative) {
		t.Errorf("两路命中的文章应累积两个来源标签: %v", both.Labels)
	}
	// 单路命中只有一个来源
	if byID[1].HasLabelValue("recall_source", SourceCollaborative) {
		t.Errorf("单路命中的文章不应有协同来源标签: %v", byID[1].Labels)
	}
}

func TestFanout_SourceErrorDegrades(t *testing.T) {
	n := &Fanout{
		Sources: []Source{
			&stubSource{name: SourceContent, err: errors.New("index down")},
			&stubSource{name: SourceCollaborative, items: []int64{5}},
		},
		Dedup: true,
	}

	items, err := n.Process(context.Background(), &core.RecommendContext{UserID: 1}, nil)
	if err != nil {
		t.Fatalf("单路失败不应让整个请求失败: %v", err)
	}
	if len(items) != 1 || items[0].ID != 5 {
		t.Errorf("失败的召回源应只贡献空结果: %v", items)
	}
}

func TestFanout_SourceTimeoutDegrades(t *testing.T) {
	n := &Fanout{
		Sources: []Source{
			&stubSource{name: SourceContent, items: []int64{1}, delay: 500 * time.Millisecond},
			&stubSource{name: SourceCollaborative, items: []int64{2}},
		},
		Dedup:   true,
		Timeout: 20 * time.Millisecond,
	}

	items, err := n.Process(context.Background(), &core.RecommendContext{UserID: 1}, nil)
	if err != nil {
		t.Fatalf("超时不应让整个请求失败: %v", err)
	}
	if len(items) != 1 || items[0].ID != 2 {
		t.Errorf("超时的召回源应只贡献空结果: %v", items)
	}
}

func TestFanout_NoSources(t *testing.T) {
	n := &Fanout{}
	items, err := n.Process(context.Background(), &core.RecommendContext{UserID: 1}, nil)
	if err != nil {
		t.Fatalf("无召回源不应报错: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("无召回源应返回空结果，实际 %d 条", len(items))
	}
}
