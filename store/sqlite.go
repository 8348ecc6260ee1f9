package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/newsletter-ai/newsrec/core"
)

// SQLiteStore 是 SQLite 实现的持久存储，同时实现：
//   - core.ArticleVectorStore：article_vectors 表，每篇文章一行向量
//   - core.FeedbackStore：user_feedback 表，用户评分记录
//
// article_vectors 是向量索引的事实源：索引本身是可重建缓存，
// 快照缺失/损坏时由 AllVectors 驱动 Rebuild。
// schema 在 Open 时幂等建表；更复杂的迁移不属于本模块。
type SQLiteStore struct {
	db *sql.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS article_vectors (
	article_id INTEGER PRIMARY KEY,
	vector     BLOB NOT NULL
);
CREATE TABLE IF NOT EXISTS user_feedback (
	user_id    INTEGER NOT NULL,
	article_id INTEGER NOT NULL,
	rating     REAL    NOT NULL,
	PRIMARY KEY (user_id, article_id)
);
`

// OpenSQLiteStore 打开（必要时创建）path 处的数据库并确保 schema 存在。
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure sqlite schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Name() string { return "sqlite" }

// GetVector 实现 core.ArticleVectorStore。
func (s *SQLiteStore) GetVector(ctx context.Context, articleID int64) ([]byte, error) {
	var vec []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT vector FROM article_vectors WHERE article_id = ?`, articleID).Scan(&vec)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrStoreNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query article vector %d: %w", articleID, err)
	}
	return vec, nil
}

// PutVector 实现 core.ArticleVectorStore（upsert，article_id 唯一）。
func (s *SQLiteStore) PutVector(ctx context.Context, articleID int64, vector []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO article_vectors (article_id, vector) VALUES (?, ?)
		 ON CONFLICT(article_id) DO UPDATE SET vector = excluded.vector`,
		articleID, vector)
	if err != nil {
		return fmt.Errorf("put article vector %d: %w", articleID, err)
	}
	return nil
}

// AllVectors 实现 core.ArticleVectorStore（Rebuild 的输入）。
func (s *SQLiteStore) AllVectors(ctx context.Context) ([]core.VectorRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT article_id, vector FROM article_vectors ORDER BY article_id`)
	if err != nil {
		return nil, fmt.Errorf("query article vectors: %w", err)
	}
	defer rows.Close()

	var out []core.VectorRow
	for rows.Next() {
		var row core.VectorRow
		if err := rows.Scan(&row.ArticleID, &row.Vector); err != nil {
			return nil, fmt.Errorf("scan article vector row: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate article vectors: %w", err)
	}
	return out, nil
}

// PutFeedback 写入/覆盖一条评分记录（同一用户对同一文章只保留最新评分）。
func (s *SQLiteStore) PutFeedback(ctx context.Context, fb core.Feedback) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO user_feedback (user_id, article_id, rating) VALUES (?, ?, ?)
		 ON CONFLICT(user_id, article_id) DO UPDATE SET rating = excluded.rating`,
		fb.UserID, fb.ArticleID, fb.Rating)
	if err != nil {
		return fmt.Errorf("put feedback (%d, %d): %w", fb.UserID, fb.ArticleID, err)
	}
	return nil
}

// AllFeedback 实现 core.FeedbackStore。
func (s *SQLiteStore) AllFeedback(ctx context.Context) ([]core.Feedback, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, article_id, rating FROM user_feedback`)
	if err != nil {
		return nil, fmt.Errorf("query feedback: %w", err)
	}
	defer rows.Close()
	return scanFeedback(rows)
}

// UserFeedback 实现 core.FeedbackStore。
func (s *SQLiteStore) UserFeedback(ctx context.Context, userID int64, minRating float64) ([]core.Feedback, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if minRating > 0 {
		rows, err = s.db.QueryContext(ctx,
			`SELECT user_id, article_id, rating FROM user_feedback
			 WHERE user_id = ? AND rating >= ?`, userID, minRating)
	} else {
		rows, err = s.db.QueryContext(ctx,
			`SELECT user_id, article_id, rating FROM user_feedback WHERE user_id = ?`, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("query feedback for user %d: %w", userID, err)
	}
	defer rows.Close()
	return scanFeedback(rows)
}

func scanFeedback(rows *sql.Rows) ([]core.Feedback, error) {
	var out []core.Feedback
	for rows.Next() {
		var fb core.Feedback
		if err := rows.Scan(&fb.UserID, &fb.ArticleID, &fb.Rating); err != nil {
			return nil, fmt.Errorf("scan feedback row: %w", err)
		}
		out = append(out, fb)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feedback rows: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

var _ core.ArticleVectorStore = (*SQLiteStore)(nil)
var _ core.FeedbackStore = (*SQLiteStore)(nil)
var _ core.FeedbackWriter = (*SQLiteStore)(nil)
