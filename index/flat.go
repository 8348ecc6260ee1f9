// Package index 实现文章向量的内存精确最近邻索引（平替 Faiss IndexFlatL2）。
//
// 设计要点：
//   - 精确平方欧氏距离的暴力搜索，不做任何剪枝/近似结构。
//     目标规模是数千篇文章，简单性优先于可扩展性。
//   - arena 布局：vecs 为 slot 连续排列的扁平 float32 数组，ids 为
//     平行的文章 ID 数组，slot 从 0 开始连续分配、进程内不复用。
//   - 单写多读：Insert/Rebuild/Load 持写锁，Search/Stats/Save 持读锁；
//     Rebuild 在锁外装配替换数据，锁内整体换入，读者只会看到
//     “旧索引”或“新索引”，不会看到中间态。
//   - 无删除操作：文章从事实源移除后留下悬挂 slot，由调用方
//     以文章库为准过滤结果。
package index

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/newsletter-ai/newsrec/core"
)

// SearchResult 是一次最近邻查询的单条结果。
type SearchResult struct {
	ArticleID int64
	Distance  float32 // 平方欧氏距离，越小越相似
}

// Stats 是索引的统计快照。
type Stats struct {
	TotalVectors   int // 已存向量总数
	Dimension      int // 配置的向量维度
	ArticlesMapped int // slot → article_id 映射中不同文章 ID 的个数
}

// FlatIndex 是精确 L2 最近邻索引。
type FlatIndex struct {
	dim int
	log zerolog.Logger

	mu   sync.RWMutex
	vecs []float32 // slot-major arena：slot i 的向量在 vecs[i*dim : (i+1)*dim]
	ids  []int64   // slot → article_id
}

// Option 配置 FlatIndex。
type Option func(*FlatIndex)

// WithLogger 注入日志器（默认 zerolog.Nop()）。
func WithLogger(log zerolog.Logger) Option {
	return func(ix *FlatIndex) { ix.log = log }
}

// NewFlatIndex 创建维度为 dim 的空索引。
func NewFlatIndex(dim int, opts ...Option) *FlatIndex {
	ix := &FlatIndex{
		dim: dim,
		log: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// Dimension 返回配置的向量维度。
func (ix *FlatIndex) Dimension() int { return ix.dim }

// Insert 按顺序追加一批向量，并为每个向量记录 slot → article_id。
// 要求 len(vectors) == len(ids)；任何一个向量维度不符都会整体拒绝，
// 索引状态保持不变。
func (ix *FlatIndex) Insert(vectors [][]float32, ids []int64) error {
	if len(vectors) != len(ids) {
		return core.NewDomainError(core.ModuleIndex, core.ErrorCodeInvalidInput,
			fmt.Sprintf("index: %d vectors but %d article ids", len(vectors), len(ids)))
	}
	// 先校验再落地，保证插入的原子性
	for i, vec := range vectors {
		if len(vec) != ix.dim {
			return core.NewDomainError(core.ModuleIndex, core.ErrorCodeDimensionMismatch,
				fmt.Sprintf("index: vector %d has dimension %d, want %d", i, len(vec), ix.dim))
		}
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	for i, vec := range vectors {
		ix.vecs = append(ix.vecs, vec...)
		ix.ids = append(ix.ids, ids[i])
	}
	return nil
}

// InsertOne 是 Insert 的单条便捷形式。
func (ix *FlatIndex) InsertOne(vec []float32, articleID int64) error {
	return ix.Insert([][]float32{vec}, []int64{articleID})
}

// Search 返回与 query 最近的至多 min(k, 总数) 条结果，按平方欧氏距离
// 升序排列；距离相同时按文章 ID 升序，保证结果确定。
// 空索引返回空结果，不是错误。
func (ix *FlatIndex) Search(query []float32, k int) ([]SearchResult, error) {
	if len(query) != ix.dim {
		return nil, core.NewDomainError(core.ModuleIndex, core.ErrorCodeDimensionMismatch,
			fmt.Sprintf("index: query dimension %d, want %d", len(query), ix.dim))
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	total := len(ix.ids)
	if total == 0 || k <= 0 {
		return []SearchResult{}, nil
	}
	if k > total {
		k = total
	}

	results := make([]SearchResult, total)
	for slot := 0; slot < total; slot++ {
		base := slot * ix.dim
		var sum float32
		for j := 0; j < ix.dim; j++ {
			diff := query[j] - ix.vecs[base+j]
			sum += diff * diff
		}
		results[slot] = SearchResult{ArticleID: ix.ids[slot], Distance: sum}
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Distance != results[j].Distance {
			return results[i].Distance < results[j].Distance
		}
		return results[i].ArticleID < results[j].ArticleID
	})
	return results[:k], nil
}

// Rebuild 从持久向量存储的行整体重建索引：丢弃当前全部状态，
// 逐行解码后以全新的连续 slot 重新插入。
// 解码失败的行记录日志后跳过，不中断重建，数据集级别的局部损坏
// 可以 best-effort 自愈。
//
// 替换数据在锁外装配，锁内一次换入：外部观察者要么看到旧索引，
// 要么看到完整的新索引。
func (ix *FlatIndex) Rebuild(rows []core.VectorRow) error {
	newVecs := make([]float32, 0, len(rows)*ix.dim)
	newIDs := make([]int64, 0, len(rows))

	for _, row := range rows {
		vec, err := DecodeVector(row.Vector, ix.dim)
		if err != nil {
			ix.log.Warn().
				Int64("article_id", row.ArticleID).
				Err(err).
				Msg("skipping undecodable vector row during rebuild")
			continue
		}
		newVecs = append(newVecs, vec...)
		newIDs = append(newIDs, row.ArticleID)
	}

	ix.mu.Lock()
	ix.vecs = newVecs
	ix.ids = newIDs
	ix.mu.Unlock()

	ix.log.Info().
		Int("rows", len(rows)).
		Int("indexed", len(newIDs)).
		Msg("vector index rebuilt from durable store")
	return nil
}

// Stats 返回索引统计。
// 无悬挂 slot 时 ArticlesMapped 等于 TotalVectors。
func (ix *FlatIndex) Stats() Stats {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	distinct := make(map[int64]struct{}, len(ix.ids))
	for _, id := range ix.ids {
		distinct[id] = struct{}{}
	}
	return Stats{
		TotalVectors:   len(ix.ids),
		Dimension:      ix.dim,
		ArticlesMapped: len(distinct),
	}
}
