package index

import (
	"sync"
	"testing"

	"github.com/newsletter-ai/newsrec/core"
)

func TestFlatIndex_SearchExactMatch(t *testing.T) {
	ix := NewFlatIndex(3)
	err := ix.Insert([][]float32{
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
	}, []int64{101, 102, 103})
	if err != nil {
		t.Fatalf("插入失败: %v", err)
	}

	results, err := ix.Search([]float32{0, 1, 0}, 3)
	if err != nil {
		t.Fatalf("搜索失败: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("期望 3 条结果，实际 %d 条", len(results))
	}
	if results[0].ArticleID != 102 {
		t.Errorf("期望最近邻为 102，实际 %d", results[0].ArticleID)
	}
	if results[0].Distance != 0 {
		t.Errorf("精确命中的距离应为 0，实际 %f", results[0].Distance)
	}
	// 距离升序
	for i := 1; i < len(results); i++ {
		if results[i].Distance < results[i-1].Distance {
			t.Errorf("结果未按距离升序: %v", results)
		}
	}
}

func TestFlatIndex_SearchKLargerThanTotal(t *testing.T) {
	ix := NewFlatIndex(2)
	if err := ix.Insert([][]float32{{1, 1}, {2, 2}}, []int64{1, 2}); err != nil {
		t.Fatalf("插入失败: %v", err)
	}

	results, err := ix.Search([]float32{0, 0}, 10)
	if err != nil {
		t.Fatalf("搜索失败: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("k 超过总数时应返回全部 2 条，实际 %d 条", len(results))
	}
}

func TestFlatIndex_SearchEmptyIndex(t *testing.T) {
	ix := NewFlatIndex(4)
	results, err := ix.Search([]float32{0, 0, 0, 0}, 5)
	if err != nil {
		t.Fatalf("空索引搜索不应报错: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("空索引应返回空结果，实际 %d 条", len(results))
	}
}

func TestFlatIndex_SearchTieBreakByArticleID(t *testing.T) {
	ix := NewFlatIndex(2)
	// 两篇文章向量相同，距离必然相同
	err := ix.Insert([][]float32{{1, 1}, {1, 1}}, []int64{9, 3})
	if err != nil {
		t.Fatalf("插入失败: %v", err)
	}

	results, err := ix.Search([]float32{0, 0}, 2)
	if err != nil {
		t.Fatalf("搜索失败: %v", err)
	}
	if results[0].ArticleID != 3 || results[1].ArticleID != 9 {
		t.Errorf("距离相同时应按文章 ID 升序，实际 %v", results)
	}
}

func TestFlatIndex_InsertDimensionMismatch(t *testing.T) {
	ix := NewFlatIndex(3)
	if err := ix.InsertOne([]float32{1, 2, 3}, 1); err != nil {
		t.Fatalf("插入失败: %v", err)
	}

	// 批量插入里有一个坏向量，整批拒绝
	err := ix.Insert([][]float32{{1, 2, 3}, {1, 2}}, []int64{2, 3})
	if err == nil {
		t.Fatal("维度不符应报错")
	}
	if !core.IsDimensionMismatch(err) {
		t.Errorf("期望 DIMENSION_MISMATCH，实际 %v", err)
	}

	// 索引状态不变
	st := ix.Stats()
	if st.TotalVectors != 1 {
		t.Errorf("失败的插入不应改变索引，期望 1 条向量，实际 %d", st.TotalVectors)
	}
}

func TestFlatIndex_SearchQueryDimensionMismatch(t *testing.T) {
	ix := NewFlatIndex(3)
	_, err := ix.Search([]float32{1, 2}, 1)
	if !core.IsDimensionMismatch(err) {
		t.Errorf("查询维度不符应返回 DIMENSION_MISMATCH，实际 %v", err)
	}
}

func TestFlatIndex_RebuildReplacesState(t *testing.T) {
	ix := NewFlatIndex(2)
	if err := ix.InsertOne([]float32{9, 9}, 99); err != nil {
		t.Fatalf("插入失败: %v", err)
	}

	rows := []core.VectorRow{
		{ArticleID: 1, Vector: EncodeVector([]float32{1, 0})},
		{ArticleID: 2, Vector: EncodeVector([]float32{0, 1})},
		{ArticleID: 3, Vector: []byte{1, 2, 3}}, // 坏行，跳过
	}
	if err := ix.Rebuild(rows); err != nil {
		t.Fatalf("重建失败: %v", err)
	}

	st := ix.Stats()
	if st.TotalVectors != 2 {
		t.Errorf("重建后期望 2 条向量（坏行跳过），实际 %d", st.TotalVectors)
	}

	results, err := ix.Search([]float32{1, 0}, 1)
	if err != nil {
		t.Fatalf("搜索失败: %v", err)
	}
	if results[0].ArticleID != 1 {
		t.Errorf("重建后最近邻应为 1，实际 %d", results[0].ArticleID)
	}
}

func TestFlatIndex_RebuildIdempotent(t *testing.T) {
	ix := NewFlatIndex(2)
	rows := []core.VectorRow{
		{ArticleID: 1, Vector: EncodeVector([]float32{1, 0})},
		{ArticleID: 2, Vector: EncodeVector([]float32{0, 1})},
	}
	for i := 0; i < 3; i++ {
		if err := ix.Rebuild(rows); err != nil {
			t.Fatalf("第 %d 次重建失败: %v", i, err)
		}
	}
	if st := ix.Stats(); st.TotalVectors != 2 {
		t.Errorf("重复重建不应累积向量，期望 2，实际 %d", st.TotalVectors)
	}
}

func TestFlatIndex_ConcurrentSearchDuringRebuild(t *testing.T) {
	ix := NewFlatIndex(2)
	rows := []core.VectorRow{
		{ArticleID: 1, Vector: EncodeVector([]float32{1, 0})},
		{ArticleID: 2, Vector: EncodeVector([]float32{0, 1})},
	}
	if err := ix.Rebuild(rows); err != nil {
		t.Fatalf("重建失败: %v", err)
	}

	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				results, err := ix.Search([]float32{1, 0}, 2)
				if err != nil {
					t.Errorf("并发搜索失败: %v", err)
					return
				}
				// 读者只能看到完整的旧状态或新状态
				if len(results) != 2 {
					t.Errorf("并发搜索看到中间态: %d 条结果", len(results))
					return
				}
			}
		}()
	}
	for i := 0; i < 50; i++ {
		if err := ix.Rebuild(rows); err != nil {
			t.Fatalf("并发重建失败: %v", err)
		}
	}
	wg.Wait()
}

func TestFlatIndex_Stats(t *testing.T) {
	ix := NewFlatIndex(2)
	// 同一篇文章插入两次（更新场景），slot 不复用
	if err := ix.InsertOne([]float32{1, 0}, 7); err != nil {
		t.Fatalf("插入失败: %v", err)
	}
	if err := ix.InsertOne([]float32{0, 1}, 7); err != nil {
		t.Fatalf("插入失败: %v", err)
	}

	st := ix.Stats()
	if st.TotalVectors != 2 {
		t.Errorf("期望 2 条向量，实际 %d", st.TotalVectors)
	}
	if st.ArticlesMapped != 1 {
		t.Errorf("期望 1 篇不同文章，实际 %d", st.ArticlesMapped)
	}
	if st.Dimension != 2 {
		t.Errorf("期望维度 2，实际 %d", st.Dimension)
	}
}
