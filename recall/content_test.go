package recall

import (
	"context"
	"testing"

	"github.com/newsletter-ai/newsrec/core"
	"github.com/newsletter-ai/newsrec/index"
	"github.com/newsletter-ai/newsrec/store"
)

func buildContentFixture(t *testing.T) (*store.MemoryFeedbackStore, *store.MemoryVectorStore, *index.FlatIndex) {
	t.Helper()
	ctx := context.Background()

	feedback := store.NewMemoryFeedbackStore()
	vectors := store.NewMemoryVectorStore()
	ix := index.NewFlatIndex(2)

	// 三篇文章：1/2 在原点附近，3 在远处
	articleVecs := map[int64][]float32{
		1: {1, 0},
		2: {0.9, 0.1},
		3: {-5, -5},
	}
	for id, vec := range articleVecs {
		if err := vectors.PutVector(ctx, id, index.EncodeVector(vec)); err != nil {
			t.Fatalf("写向量失败: %v", err)
		}
		if err := ix.InsertOne(vec, id); err != nil {
			t.Fatalf("插入索引失败: %v", err)
		}
	}
	return feedback, vectors, ix
}

func TestContentRecall_LikedCentroid(t *testing.T) {
	ctx := context.Background()
	feedback, vectors, ix := buildContentFixture(t)

	// 用户 42 喜欢文章 1 和 2，质心落在 (0.95, 0.05) 附近
	feedback.PutFeedback(ctx, core.Feedback{UserID: 42, ArticleID: 1, Rating: 5})
	feedback.PutFeedback(ctx, core.Feedback{UserID: 42, ArticleID: 2, Rating: 4})
	// 低评分不参与质心
	feedback.PutFeedback(ctx, core.Feedback{UserID: 42, ArticleID: 3, Rating: 1})

	r := &ContentRecall{Feedback: feedback, Vectors: vectors, Index: ix, LikedThreshold: 4}
	items, err := r.Recall(ctx, &core.RecommendContext{UserID: 42})
	if err != nil {
		t.Fatalf("召回失败: %v", err)
	}
	if len(items) == 0 {
		t.Fatal("期望非空召回结果")
	}
	// 最近的应该是 1 或 2，绝不应该是远处的 3
	if items[0].ID == 3 {
		t.Errorf("质心查询不应把远处的文章排在第一: %v", items)
	}
	if !items[0].HasLabelValue("recall_source", SourceContent) {
		t.Errorf("缺少 recall_source 标签: %v", items[0].Labels)
	}
}

func TestContentRecall_ColdStartEmpty(t *testing.T) {
	ctx := context.Background()
	feedback, vectors, ix := buildContentFixture(t)

	// 没有任何反馈的用户：空结果，不是错误
	r := &ContentRecall{Feedback: feedback, Vectors: vectors, Index: ix, LikedThreshold: 4}
	items, err := r.Recall(ctx, &core.RecommendContext{UserID: 999})
	if err != nil {
		t.Fatalf("冷启动不应报错: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("冷启动应返回空结果，实际 %d 条", len(items))
	}
}

func TestContentRecall_LikedWithoutVectors(t *testing.T) {
	ctx := context.Background()
	feedback := store.NewMemoryFeedbackStore()
	vectors := store.NewMemoryVectorStore()
	ix := index.NewFlatIndex(2)

	// 喜欢的文章从未被向量化：空结果，不是错误
	feedback.PutFeedback(ctx, core.Feedback{UserID: 42, ArticleID: 7, Rating: 5})

	r := &ContentRecall{Feedback: feedback, Vectors: vectors, Index: ix, LikedThreshold: 4}
	items, err := r.Recall(ctx, &core.RecommendContext{UserID: 42})
	if err != nil {
		t.Fatalf("缺向量不应报错: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("喜欢的文章都没有向量时应返回空结果，实际 %d 条", len(items))
	}
}

func TestContentRecall_LikedThresholdBoundary(t *testing.T) {
	ctx := context.Background()
	feedback, vectors, ix := buildContentFixture(t)

	// rating == 阈值时算“喜欢”
	feedback.PutFeedback(ctx, core.Feedback{UserID: 42, ArticleID: 1, Rating: 4})

	r := &ContentRecall{Feedback: feedback, Vectors: vectors, Index: ix, LikedThreshold: 4}
	items, err := r.Recall(ctx, &core.RecommendContext{UserID: 42})
	if err != nil {
		t.Fatalf("召回失败: %v", err)
	}
	if len(items) == 0 {
		t.Error("rating 等于阈值的反馈应参与质心")
	}
}
