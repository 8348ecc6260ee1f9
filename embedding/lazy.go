package embedding

import (
	"context"
	"fmt"
	"sync"

	"github.com/newsletter-ai/newsrec/core"
)

// LazyEmbedder 是“初始化一次”的守卫包装：底层后端在首次需要时
// 由 factory 构建，之后复用同一实例。
//
// 初始化失败后：
//   - 失败状态被固化，后续每次调用都返回 UNAVAILABLE，不重试
//   - 这对需要新向量的调用路径是致命的，但不影响进程内其他子系统
//
// 与隐式的首调用副作用不同，Init 可以在对外服务前显式探测失败状态。
type LazyEmbedder struct {
	factory func() (core.Embedder, error)

	once    sync.Once
	backend core.Embedder
	initErr error
}

// NewLazyEmbedder 创建守卫包装。factory 在首次使用时执行一次。
func NewLazyEmbedder(factory func() (core.Embedder, error)) *LazyEmbedder {
	return &LazyEmbedder{factory: factory}
}

// Init 触发一次初始化并返回其结果。可在启动阶段调用，
// 让失败在服务流量前可观测；不调用也不影响正确性。
func (l *LazyEmbedder) Init() error {
	l.once.Do(func() {
		l.backend, l.initErr = l.factory()
		if l.initErr == nil && l.backend == nil {
			l.initErr = fmt.Errorf("embedder factory returned nil backend")
		}
	})
	if l.initErr != nil {
		return core.NewDomainError(core.ModuleEmbedding, core.ErrorCodeUnavailable,
			fmt.Sprintf("embedding: backend unavailable: %v", l.initErr))
	}
	return nil
}

// Embed 实现 core.Embedder。
func (l *LazyEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := l.Init(); err != nil {
		return nil, err
	}
	return l.backend.Embed(ctx, text)
}

// EmbedBatch 实现 core.Embedder。
func (l *LazyEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := l.Init(); err != nil {
		return nil, err
	}
	return l.backend.EmbedBatch(ctx, texts)
}

var _ core.Embedder = (*LazyEmbedder)(nil)
