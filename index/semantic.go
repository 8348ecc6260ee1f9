package index

import (
	"context"

	"github.com/newsletter-ai/newsrec/core"
)

// SemanticIndex 组合 Embedder 与 FlatIndex，提供按文本查询的语义搜索。
// Embedder 的慢调用（HTTP 推理）只发生在锁外；索引本身的读写
// 仍由 FlatIndex 的锁纪律保护。
type SemanticIndex struct {
	Embedder core.Embedder
	Index    *FlatIndex
}

// NewSemanticIndex 创建语义搜索组合。
func NewSemanticIndex(embedder core.Embedder, ix *FlatIndex) *SemanticIndex {
	return &SemanticIndex{Embedder: embedder, Index: ix}
}

// SearchByText 将查询文本向量化后做最近邻搜索。
// embedding 后端不可用时错误原样上抛（不重试）；空文本是无效输入。
func (s *SemanticIndex) SearchByText(ctx context.Context, text string, k int) ([]SearchResult, error) {
	if text == "" {
		return nil, core.NewDomainError(core.ModuleIndex, core.ErrorCodeInvalidInput, "index: empty query text")
	}
	query, err := s.Embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	return s.Index.Search(query, k)
}
