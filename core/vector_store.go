package core

import "context"

// VectorRow 是持久向量存储中的一行：文章 ID 与序列化后的向量字节。
// 字节编码由 index 包的 codec 约定（little-endian float32）。
type VectorRow struct {
	ArticleID int64
	Vector    []byte
}

// ArticleVectorStore 是“每篇文章一行向量”的持久存储接口。
//
// 它是向量索引的事实源（source of truth）：
//   - 写入索引时同步写穿（write-through）到这里
//   - 进程启动无有效快照时，从这里 Rebuild 整个索引
//   - 内容召回按文章 ID 单点读取已喜欢文章的向量
//
// 本模块不负责该存储的 schema/迁移。
//
// 实现：
//   - store.SQLiteStore（持久，生产）
//   - store.MemoryVectorStore（内存，测试/原型）
type ArticleVectorStore interface {
	// GetVector 按文章 ID 读取向量字节；不存在时返回 ErrStoreNotFound
	GetVector(ctx context.Context, articleID int64) ([]byte, error)

	// PutVector 写入/覆盖一篇文章的向量字节（article_id 唯一）
	PutVector(ctx context.Context, articleID int64, vector []byte) error

	// AllVectors 读取所有行（Rebuild 的输入）
	AllVectors(ctx context.Context) ([]VectorRow, error)
}

// Feedback 是一条用户对文章的评分记录（1-5）。
type Feedback struct {
	UserID    int64
	ArticleID int64
	Rating    float64
}

// FeedbackWriter 是用户反馈的写入接口。
// 同一 (user_id, article_id) 重复写入按 upsert 语义覆盖评分。
type FeedbackWriter interface {
	PutFeedback(ctx context.Context, fb Feedback) error
}

// FeedbackStore 是用户反馈的只读存储接口。
//
// 召回模块按两种方式查询：
//   - 全量（协同过滤构建 user×article 评分矩阵）
//   - 按用户 + 最低评分（内容召回取“喜欢”的文章）
type FeedbackStore interface {
	// AllFeedback 读取系统内全部评分记录
	AllFeedback(ctx context.Context) ([]Feedback, error)

	// UserFeedback 读取某用户 rating >= minRating 的记录；
	// minRating <= 0 表示不过滤
	UserFeedback(ctx context.Context, userID int64, minRating float64) ([]Feedback, error)
}
