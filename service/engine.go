// Package service 提供推荐引擎的组装与对外门面。
package service

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/newsletter-ai/newsrec/config"
	"github.com/newsletter-ai/newsrec/core"
	"github.com/newsletter-ai/newsrec/embedding"
	"github.com/newsletter-ai/newsrec/filter"
	"github.com/newsletter-ai/newsrec/index"
	"github.com/newsletter-ai/newsrec/pipeline"
	"github.com/newsletter-ai/newsrec/pkg/conv"
	"github.com/newsletter-ai/newsrec/rank"
	"github.com/newsletter-ai/newsrec/recall"
	"github.com/newsletter-ai/newsrec/rerank"
	"github.com/newsletter-ai/newsrec/store"
)

// maxEmbedChars 是送入 embedding 模型的单篇文本长度上限（字符数）。
// 超长文章截断到前 maxEmbedChars 个字符再向量化。
const maxEmbedChars = 10000

// Article 是待入库的一篇文章。
type Article struct {
	ID          int64
	Title       string
	Content     string
	Category    string
	PublishedAt time.Time
}

// text 返回用于向量化的文本（标题 + 正文，截断到上限）。
func (a Article) text() string {
	s := a.Title
	if a.Content != "" {
		if s != "" {
			s += "\n\n"
		}
		s += a.Content
	}
	r := []rune(s)
	if len(r) > maxEmbedChars {
		return string(r[:maxEmbedChars])
	}
	return s
}

// Engine 是新闻推荐引擎：组装向量索引、embedding、存储与推荐 Pipeline。
//
// 并发模型：Engine 的所有方法可并发调用；索引内部用单把读写锁
// 保证单写多读，Rebuild/Load 在锁外组装、锁内换装。
type Engine struct {
	cfg *config.Config
	log zerolog.Logger

	index    *index.FlatIndex
	embedder core.Embedder
	semantic *index.SemanticIndex

	vectors  core.ArticleVectorStore
	feedback core.FeedbackStore
	fbWriter core.FeedbackWriter
	kv       core.KeyValueStore

	closers []func() error
}

// Option 配置 Engine 的可选依赖。
type Option func(*Engine)

// WithLogger 注入日志器。
func WithLogger(log zerolog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// WithEmbedder 注入自定义 embedding 实现（默认 Ollama + 懒加载）。
func WithEmbedder(emb core.Embedder) Option {
	return func(e *Engine) { e.embedder = emb }
}

// WithVectorStore 注入文章向量存储。
func WithVectorStore(s core.ArticleVectorStore) Option {
	return func(e *Engine) { e.vectors = s }
}

// WithFeedbackStore 注入用户反馈存储。
func WithFeedbackStore(r core.FeedbackStore, w core.FeedbackWriter) Option {
	return func(e *Engine) {
		e.feedback = r
		e.fbWriter = w
	}
}

// WithKeyValueStore 注入 KV 存储（最新文章有序集合等）。
func WithKeyValueStore(kv core.KeyValueStore) Option {
	return func(e *Engine) { e.kv = kv }
}

// NewEngine 根据配置组装推荐引擎。
// 未注入的依赖按配置兜底：sqlite_path 非空用 SQLite，否则用内存存储；
// redis_addr 非空用 Redis，否则用内存 KV。
func NewEngine(cfg *config.Config, opts ...Option) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		cfg: cfg,
		log: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.index = index.NewFlatIndex(cfg.Index.Dimension, index.WithLogger(e.log))

	if e.embedder == nil {
		baseURL, model := cfg.Embedder.BaseURL, cfg.Embedder.Model
		e.embedder = embedding.NewLazyEmbedder(func() (core.Embedder, error) {
			return embedding.NewOllamaEmbedder(baseURL, model), nil
		})
	}
	e.semantic = index.NewSemanticIndex(e.embedder, e.index)

	if e.vectors == nil || e.feedback == nil {
		if cfg.Storage.SQLitePath != "" {
			db, err := store.OpenSQLiteStore(cfg.Storage.SQLitePath)
			if err != nil {
				return nil, fmt.Errorf("open sqlite: %w", err)
			}
			e.closers = append(e.closers, db.Close)
			if e.vectors == nil {
				e.vectors = db
			}
			if e.feedback == nil {
				e.feedback = db
				e.fbWriter = db
			}
		} else {
			if e.vectors == nil {
				e.vectors = store.NewMemoryVectorStore()
			}
			if e.feedback == nil {
				fs := store.NewMemoryFeedbackStore()
				e.feedback = fs
				e.fbWriter = fs
			}
		}
	}

	// 引擎自建的 KV 由引擎负责关闭；注入的存储归调用方管理
	if e.kv == nil {
		if cfg.Storage.RedisAddr != "" {
			kv, err := store.NewRedisStore(
				cfg.Storage.RedisAddr,
				cfg.Storage.RedisPassword,
				cfg.Storage.RedisDB,
			)
			if err != nil {
				return nil, fmt.Errorf("connect redis: %w", err)
			}
			e.kv = kv
			e.closers = append(e.closers, kv.Close)
		} else {
			kv := store.NewMemoryStore()
			e.kv = kv
			e.closers = append(e.closers, kv.Close)
		}
	}

	return e, nil
}

// Open 初始化索引：优先从快照加载，快照缺失或损坏时从持久存储重建。
// 两条路都失败才返回错误。
func (e *Engine) Open(ctx context.Context) error {
	path := e.cfg.Index.SnapshotPath
	if path != "" {
		if _, statErr := os.Stat(path); statErr == nil {
			err := e.index.LoadFile(path)
			if err == nil {
				st := e.index.Stats()
				e.log.Info().
					Str("path", path).
					Int("vectors", st.TotalVectors).
					Msg("index loaded from snapshot")
				return nil
			}
			e.log.Warn().Err(err).Str("path", path).
				Msg("snapshot load failed, rebuilding from store")
		}
	}
	return e.RebuildIndex(ctx)
}

// Close 保存快照并释放底层存储。
func (e *Engine) Close() error {
	var firstErr error
	if err := e.SaveSnapshot(); err != nil {
		firstErr = err
	}
	for _, c := range e.closers {
		if err := c(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// IndexArticles 向量化并入库一批文章：写索引 + 写穿向量存储，
// 并把发布时间写入最新文章有序集合。
func (e *Engine) IndexArticles(ctx context.Context, articles []Article) error {
	if len(articles) == 0 {
		return nil
	}

	texts := make([]string, len(articles))
	ids := make([]int64, len(articles))
	for i, a := range articles {
		texts[i] = a.text()
		ids[i] = a.ID
	}

	vecs, err := e.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed articles: %w", err)
	}
	if len(vecs) != len(articles) {
		return fmt.Errorf("embedder returned %d vectors for %d articles", len(vecs), len(articles))
	}

	if err := e.index.Insert(vecs, ids); err != nil {
		return err
	}

	for i, a := range articles {
		if err := e.vectors.PutVector(ctx, a.ID, index.EncodeVector(vecs[i])); err != nil {
			return fmt.Errorf("persist vector for article %d: %w", a.ID, err)
		}
		if e.kv != nil && !a.PublishedAt.IsZero() {
			err := e.kv.ZAdd(ctx, recall.DefaultRecencyKey,
				float64(a.PublishedAt.Unix()), conv.FormatID(a.ID))
			if err != nil && !core.IsNotSupported(err) {
				e.log.Warn().Err(err).Int64("article_id", a.ID).
					Msg("recency zset update failed")
			}
		}
	}

	e.log.Info().Int("count", len(articles)).Msg("articles indexed")
	return nil
}

// SearchByText 语义搜索：文本向量化后查索引最近邻。
func (e *Engine) SearchByText(ctx context.Context, text string, k int) ([]index.SearchResult, error) {
	return e.semantic.SearchByText(ctx, text, k)
}

// RecordFeedback 记录一条用户评分（1-5，upsert 语义）。
func (e *Engine) RecordFeedback(ctx context.Context, fb core.Feedback) error {
	if fb.Rating < 1 || fb.Rating > 5 {
		return core.NewDomainError(core.ModuleStore, core.ErrorCodeInvalidInput,
			fmt.Sprintf("rating must be in [1,5], got %g", fb.Rating))
	}
	if e.fbWriter == nil {
		return core.NewDomainError(core.ModuleStore, core.ErrorCodeNotSupported,
			"feedback store is read-only")
	}
	return e.fbWriter.PutFeedback(ctx, fb)
}

// Recommend 为用户生成混合推荐。
//
// 默认 Pipeline：内容召回 + 协同召回并发 fan-out → 0.7/0.3 混合排序 →
// Top-N 截断。协同召回自身清零已评分文章；内容召回允许再次命中用户
// 喜欢过的文章，配置 serve.filter_rated 后统一过滤。两路召回都为空
// （冷启动）时降级到最新文章。
func (e *Engine) Recommend(ctx context.Context, userID int64) ([]*core.Item, error) {
	rctx := &core.RecommendContext{
		UserID: userID,
		Scene:  "newsletter",
	}

	topK := e.cfg.Recall.TopK
	nodes := []pipeline.Node{
		&recall.Fanout{
			Sources: []recall.Source{
				&recall.ContentRecall{
					Feedback:       e.feedback,
					Vectors:        e.vectors,
					Index:          e.index,
					LikedThreshold: e.cfg.Recall.LikedThreshold,
					TopK:           topK,
				},
				&recall.CollaborativeRecall{
					Feedback: e.feedback,
					TopK:     topK,
					Epsilon:  e.cfg.Recall.Epsilon,
				},
			},
			Dedup: true,
		},
	}
	if e.cfg.Serve.FilterRated {
		nodes = append(nodes, &filter.FilterNode{
			Filters: []filter.Filter{
				filter.NewRatedFilter(e.feedback),
			},
		})
	}
	nodes = append(nodes,
		&rank.Hybrid{
			ContentWeight: e.cfg.Rank.ContentWeight,
			CollabWeight:  e.cfg.Rank.CollabWeight,
		},
		&rerank.TopNNode{N: e.cfg.Serve.TopN},
	)
	p := &pipeline.Pipeline{Nodes: nodes}

	items, err := p.Run(ctx, rctx, nil)
	if err != nil {
		return nil, err
	}
	if len(items) > 0 {
		return items, nil
	}

	// 冷启动降级：最新文章
	e.log.Debug().Int64("user_id", userID).Msg("cold start, falling back to recency")
	recency := &recall.Recency{Store: e.kv, TopK: e.cfg.Serve.TopN}
	return recency.Recall(ctx, rctx)
}

// RecommendWith 用自定义 Pipeline 生成推荐，用于配置驱动的场景。
func (e *Engine) RecommendWith(ctx context.Context, userID int64, p *pipeline.Pipeline) ([]*core.Item, error) {
	rctx := &core.RecommendContext{
		UserID: userID,
		Scene:  "newsletter",
	}
	return p.Run(ctx, rctx, nil)
}

// PipelineDeps 返回配置驱动装配（config.Factory）所需的运行时依赖。
func (e *Engine) PipelineDeps() config.Deps {
	return config.Deps{
		Index:    e.index,
		Vectors:  e.vectors,
		Feedback: e.feedback,
		KV:       e.kv,
	}
}

// RebuildIndex 从持久向量存储全量重建索引。
func (e *Engine) RebuildIndex(ctx context.Context) error {
	rows, err := e.vectors.AllVectors(ctx)
	if err != nil {
		return fmt.Errorf("load vectors for rebuild: %w", err)
	}
	if err := e.index.Rebuild(rows); err != nil {
		return err
	}
	st := e.index.Stats()
	e.log.Info().Int("vectors", st.TotalVectors).Msg("index rebuilt from store")
	return nil
}

// SaveSnapshot 把当前索引写入快照文件（配置了 snapshot_path 时）。
func (e *Engine) SaveSnapshot() error {
	path := e.cfg.Index.SnapshotPath
	if path == "" {
		return nil
	}
	return e.index.SaveFile(path)
}

// Stats 返回索引统计信息。
func (e *Engine) Stats() index.Stats {
	return e.index.Stats()
}
