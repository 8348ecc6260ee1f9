package store

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/newsletter-ai/newsrec/core"
)

func openTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("打开 sqlite 失败: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStore_VectorRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestSQLite(t)

	if _, err := s.GetVector(ctx, 1); !core.IsStoreNotFound(err) {
		t.Errorf("缺失向量应返回 ErrStoreNotFound，实际 %v", err)
	}

	if err := s.PutVector(ctx, 1, []byte{1, 2, 3, 4}); err != nil {
		t.Fatalf("写向量失败: %v", err)
	}
	// upsert 覆盖
	if err := s.PutVector(ctx, 1, []byte{5, 6, 7, 8}); err != nil {
		t.Fatalf("覆盖向量失败: %v", err)
	}

	got, err := s.GetVector(ctx, 1)
	if err != nil {
		t.Fatalf("读向量失败: %v", err)
	}
	if !bytes.Equal(got, []byte{5, 6, 7, 8}) {
		t.Errorf("upsert 后应读到新向量，实际 %v", got)
	}
}

func TestSQLiteStore_AllVectorsOrdered(t *testing.T) {
	ctx := context.Background()
	s := openTestSQLite(t)

	for _, id := range []int64{3, 1, 2} {
		if err := s.PutVector(ctx, id, []byte{byte(id)}); err != nil {
			t.Fatalf("写向量失败: %v", err)
		}
	}

	rows, err := s.AllVectors(ctx)
	if err != nil {
		t.Fatalf("AllVectors 失败: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("期望 3 行，实际 %d", len(rows))
	}
	for i, want := range []int64{1, 2, 3} {
		if rows[i].ArticleID != want {
			t.Errorf("AllVectors 应按文章 ID 升序，第 %d 行期望 %d，实际 %d", i, want, rows[i].ArticleID)
		}
	}
}

func TestSQLiteStore_FeedbackUpsertAndQuery(t *testing.T) {
	ctx := context.Background()
	s := openTestSQLite(t)

	s.PutFeedback(ctx, core.Feedback{UserID: 1, ArticleID: 10, Rating: 3})
	s.PutFeedback(ctx, core.Feedback{UserID: 1, ArticleID: 10, Rating: 5})
	s.PutFeedback(ctx, core.Feedback{UserID: 1, ArticleID: 11, Rating: 2})
	s.PutFeedback(ctx, core.Feedback{UserID: 2, ArticleID: 10, Rating: 4})

	all, err := s.AllFeedback(ctx)
	if err != nil {
		t.Fatalf("AllFeedback 失败: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("upsert 后应有 3 条记录，实际 %d", len(all))
	}

	liked, err := s.UserFeedback(ctx, 1, 4)
	if err != nil {
		t.Fatalf("UserFeedback 失败: %v", err)
	}
	if len(liked) != 1 || liked[0].ArticleID != 10 || liked[0].Rating != 5 {
		t.Errorf("期望用户 1 的喜欢记录只有文章 10（评分 5），实际 %v", liked)
	}
}
