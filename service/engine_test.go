package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/newsletter-ai/newsrec/config"
	"github.com/newsletter-ai/newsrec/core"
	"github.com/newsletter-ai/newsrec/embedding"
)

func newTestEngine(t *testing.T, cfg *config.Config) *Engine {
	t.Helper()
	if cfg == nil {
		cfg = config.Default()
		cfg.Index.Dimension = 32
	}
	engine, err := NewEngine(cfg,
		WithEmbedder(embedding.NewHashingEmbedder(cfg.Index.Dimension)),
	)
	if err != nil {
		t.Fatalf("创建引擎失败: %v", err)
	}
	t.Cleanup(func() { engine.Close() })
	return engine
}

func seedArticles(t *testing.T, e *Engine) {
	t.Helper()
	now := time.Now()
	articles := []Article{
		{ID: 1, Title: "central bank cuts interest rates", Category: "finance", PublishedAt: now.Add(-1 * time.Hour)},
		{ID: 2, Title: "stock market hits yearly high on rate cuts", Category: "finance", PublishedAt: now.Add(-2 * time.Hour)},
		{ID: 3, Title: "new ai inference chip announced", Category: "tech", PublishedAt: now.Add(-3 * time.Hour)},
		{ID: 4, Title: "open source model ecosystem grows", Category: "tech", PublishedAt: now.Add(-4 * time.Hour)},
		{ID: 5, Title: "world cup qualifier ends in draw", Category: "sports", PublishedAt: now.Add(-5 * time.Hour)},
	}
	if err := e.IndexArticles(context.Background(), articles); err != nil {
		t.Fatalf("文章入库失败: %v", err)
	}
}

func TestEngine_IndexAndSearch(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, nil)
	if err := e.Open(ctx); err != nil {
		t.Fatalf("初始化失败: %v", err)
	}
	seedArticles(t, e)

	if st := e.Stats(); st.TotalVectors != 5 {
		t.Errorf("期望 5 条向量，实际 %d", st.TotalVectors)
	}

	results, err := e.SearchByText(ctx, "interest rates cut by central bank", 2)
	if err != nil {
		t.Fatalf("语义搜索失败: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("期望 2 条结果，实际 %d", len(results))
	}
	if results[0].ArticleID != 1 {
		t.Errorf("期望最相关的是文章 1，实际 %d", results[0].ArticleID)
	}
}

func TestEngine_RecommendHybrid(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, nil)
	if err := e.Open(ctx); err != nil {
		t.Fatalf("初始化失败: %v", err)
	}
	seedArticles(t, e)

	// 用户 42 喜欢财经；用户 7 与 42 相似且喜欢科技
	for _, fb := range []core.Feedback{
		{UserID: 42, ArticleID: 1, Rating: 5},
		{UserID: 7, ArticleID: 1, Rating: 5},
		{UserID: 7, ArticleID: 3, Rating: 5},
	} {
		if err := e.RecordFeedback(ctx, fb); err != nil {
			t.Fatalf("记录反馈失败: %v", err)
		}
	}

	items, err := e.Recommend(ctx, 42)
	if err != nil {
		t.Fatalf("推荐失败: %v", err)
	}
	if len(items) == 0 {
		t.Fatal("期望非空推荐")
	}
	// 文章 3 同时命中两路召回（0.7 + 0.3），应排第一
	if items[0].ID != 3 {
		t.Errorf("期望两路命中的文章 3 排第一，实际 %d", items[0].ID)
	}
	// 默认不过滤已评分文章：内容召回允许再次命中用户喜欢过的文章 1
	found := false
	for _, it := range items {
		if it.ID == 1 {
			found = true
		}
	}
	if !found {
		t.Errorf("默认配置下内容召回命中的已评分文章 1 应保留: %v", items)
	}
}

func TestEngine_RecommendFilterRated(t *testing.T) {
	ctx := context.Background()
	cfg := config.Default()
	cfg.Index.Dimension = 32
	cfg.Serve.FilterRated = true

	e := newTestEngine(t, cfg)
	if err := e.Open(ctx); err != nil {
		t.Fatalf("初始化失败: %v", err)
	}
	seedArticles(t, e)

	for _, fb := range []core.Feedback{
		{UserID: 42, ArticleID: 1, Rating: 5},
		{UserID: 7, ArticleID: 1, Rating: 5},
		{UserID: 7, ArticleID: 3, Rating: 5},
	} {
		if err := e.RecordFeedback(ctx, fb); err != nil {
			t.Fatalf("记录反馈失败: %v", err)
		}
	}

	items, err := e.Recommend(ctx, 42)
	if err != nil {
		t.Fatalf("推荐失败: %v", err)
	}
	if len(items) == 0 {
		t.Fatal("期望非空推荐")
	}
	for _, it := range items {
		// 开启 filter_rated 后已评分的文章 1 不应出现
		if it.ID == 1 {
			t.Errorf("已评分文章不应被推荐: %v", items)
		}
	}
}

func TestEngine_DefaultKVCloseRegistered(t *testing.T) {
	e := newTestEngine(t, nil)
	// 引擎自建的内存 KV 必须登记关闭回调，否则清理 goroutine 泄漏
	if len(e.closers) != 1 {
		t.Errorf("默认内存 KV 应登记 1 个关闭回调，实际 %d 个", len(e.closers))
	}
	if err := e.Close(); err != nil {
		t.Errorf("关闭引擎失败: %v", err)
	}
}

func TestEngine_RecommendColdStartFallsBackToRecency(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, nil)
	if err := e.Open(ctx); err != nil {
		t.Fatalf("初始化失败: %v", err)
	}
	seedArticles(t, e)

	// 没有任何反馈的用户：降级到最新文章
	items, err := e.Recommend(ctx, 999)
	if err != nil {
		t.Fatalf("冷启动推荐失败: %v", err)
	}
	if len(items) == 0 {
		t.Fatal("冷启动应降级到最新文章，不应为空")
	}
	if items[0].ID != 1 {
		t.Errorf("降级结果应按发布时间降序，期望首位是 1，实际 %d", items[0].ID)
	}
}

func TestEngine_RecordFeedbackValidation(t *testing.T) {
	e := newTestEngine(t, nil)
	err := e.RecordFeedback(context.Background(), core.Feedback{UserID: 1, ArticleID: 1, Rating: 6})
	if err == nil {
		t.Error("超出范围的评分应报错")
	}
	if de := core.GetDomainError(err); de == nil || de.Code != core.ErrorCodeInvalidInput {
		t.Errorf("期望 INVALID_INPUT，实际 %v", err)
	}
}

func TestEngine_SnapshotPersistsAcrossRestart(t *testing.T) {
	ctx := context.Background()
	snapshotPath := filepath.Join(t.TempDir(), "index.snapshot")

	cfg := config.Default()
	cfg.Index.Dimension = 32
	cfg.Index.SnapshotPath = snapshotPath

	e1 := newTestEngine(t, cfg)
	if err := e1.Open(ctx); err != nil {
		t.Fatalf("初始化失败: %v", err)
	}
	seedArticles(t, e1)
	if err := e1.SaveSnapshot(); err != nil {
		t.Fatalf("保存快照失败: %v", err)
	}

	// 重启：新引擎从快照恢复
	e2 := newTestEngine(t, cfg)
	if err := e2.Open(ctx); err != nil {
		t.Fatalf("从快照恢复失败: %v", err)
	}
	if st := e2.Stats(); st.TotalVectors != 5 {
		t.Errorf("恢复后期望 5 条向量，实际 %d", st.TotalVectors)
	}
}

func TestEngine_CorruptSnapshotFallsBackToRebuild(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	snapshotPath := filepath.Join(dir, "index.snapshot")

	cfg := config.Default()
	cfg.Index.Dimension = 32
	cfg.Index.SnapshotPath = snapshotPath

	e := newTestEngine(t, cfg)
	if err := e.Open(ctx); err != nil {
		t.Fatalf("初始化失败: %v", err)
	}
	seedArticles(t, e)

	// 写坏快照，新引擎应回退到从持久存储重建。
	// 引擎默认用内存向量存储，所以这里复用同一批依赖模拟重启。
	if err := os.WriteFile(snapshotPath, []byte("corrupt"), 0o644); err != nil {
		t.Fatalf("写坏快照失败: %v", err)
	}

	e2, err := NewEngine(cfg,
		WithEmbedder(embedding.NewHashingEmbedder(cfg.Index.Dimension)),
		WithVectorStore(e.vectors),
		WithFeedbackStore(e.feedback, e.fbWriter),
	)
	if err != nil {
		t.Fatalf("创建引擎失败: %v", err)
	}
	defer e2.Close()

	if err := e2.Open(ctx); err != nil {
		t.Fatalf("损坏快照应回退重建，实际失败: %v", err)
	}
	if st := e2.Stats(); st.TotalVectors != 5 {
		t.Errorf("重建后期望 5 条向量，实际 %d", st.TotalVectors)
	}
}

func TestEngine_RebuildIndex(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, nil)
	if err := e.Open(ctx); err != nil {
		t.Fatalf("初始化失败: %v", err)
	}
	seedArticles(t, e)

	// 重建是幂等的：重复调用向量数不变
	for i := 0; i < 2; i++ {
		if err := e.RebuildIndex(ctx); err != nil {
			t.Fatalf("重建失败: %v", err)
		}
	}
	if st := e.Stats(); st.TotalVectors != 5 {
		t.Errorf("重建后期望 5 条向量，实际 %d", st.TotalVectors)
	}
}
