package store

import (
	"context"
	"sort"
	"sync"

	"github.com/newsletter-ai/newsrec/core"
)

// MemoryVectorStore 是内存实现的 ArticleVectorStore，用于测试/开发/原型。
// 平替 SQLite 持久存储；进程重启后数据丢失。
type MemoryVectorStore struct {
	mu      sync.RWMutex
	vectors map[int64][]byte
}

func NewMemoryVectorStore() *MemoryVectorStore {
	return &MemoryVectorStore{vectors: make(map[int64][]byte)}
}

func (m *MemoryVectorStore) GetVector(ctx context.Context, articleID int64) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	vec, ok := m.vectors[articleID]
	if !ok {
		return nil, core.ErrStoreNotFound
	}
	return vec, nil
}

func (m *MemoryVectorStore) PutVector(ctx context.Context, articleID int64, vector []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.vectors[articleID] = vector
	return nil
}

func (m *MemoryVectorStore) AllVectors(ctx context.Context) ([]core.VectorRow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]core.VectorRow, 0, len(m.vectors))
	for id, vec := range m.vectors {
		out = append(out, core.VectorRow{ArticleID: id, Vector: vec})
	}
	// 按文章 ID 排序，保证 Rebuild 输入确定
	sort.Slice(out, func(i, j int) bool { return out[i].ArticleID < out[j].ArticleID })
	return out, nil
}

var _ core.ArticleVectorStore = (*MemoryVectorStore)(nil)

// MemoryFeedbackStore 是内存实现的 FeedbackStore，用于测试/开发/原型。
type MemoryFeedbackStore struct {
	mu   sync.RWMutex
	rows []core.Feedback
}

func NewMemoryFeedbackStore() *MemoryFeedbackStore {
	return &MemoryFeedbackStore{}
}

// PutFeedback 写入/覆盖一条评分记录（同一用户对同一文章只保留最新评分）。
func (m *MemoryFeedbackStore) PutFeedback(ctx context.Context, fb core.Feedback) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, row := range m.rows {
		if row.UserID == fb.UserID && row.ArticleID == fb.ArticleID {
			m.rows[i] = fb
			return nil
		}
	}
	m.rows = append(m.rows, fb)
	return nil
}

func (m *MemoryFeedbackStore) AllFeedback(ctx context.Context) ([]core.Feedback, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return append([]core.Feedback(nil), m.rows...), nil
}

func (m *MemoryFeedbackStore) UserFeedback(ctx context.Context, userID int64, minRating float64) ([]core.Feedback, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []core.Feedback
	for _, row := range m.rows {
		if row.UserID != userID {
			continue
		}
		if minRating > 0 && row.Rating < minRating {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

var _ core.FeedbackStore = (*MemoryFeedbackStore)(nil)
var _ core.FeedbackWriter = (*MemoryFeedbackStore)(nil)
