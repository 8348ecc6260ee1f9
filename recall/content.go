package recall

import (
	"context"
	"strconv"

	"github.com/newsletter-ai/newsrec/core"
	"github.com/newsletter-ai/newsrec/index"
	"github.com/newsletter-ai/newsrec/pkg/utils"
)

// ContentRecall 是基于内容的召回源（Content-Based Recommendation）。
//
// 核心思想：把“用户喜欢什么”压缩成 embedding 空间里的一个质心：
// 取用户评分 >= LikedThreshold 的文章向量做逐元素平均，再拿质心
// 查向量索引的最近邻。
//
// 刻意的简化：单质心不支持多兴趣簇建模；对兴趣分散的用户，
// 质心会落在几个簇的中间。
//
// 空结果（均为预期输出，不是错误）：
//   - 用户没有任何 rating >= LikedThreshold 的反馈（冷启动）
//   - 喜欢的文章都没有入库向量（从未被向量化）
type ContentRecall struct {
	Feedback core.FeedbackStore
	Vectors  core.ArticleVectorStore
	Index    *index.FlatIndex

	// LikedThreshold 是“喜欢”的评分下限，按字面值使用；
	// 0 表示所有评过分的文章都计入质心（配置默认 4）
	LikedThreshold float64

	// TopK 最终返回的 TopK 篇文章（默认 20）
	TopK int
}

func (r *ContentRecall) Name() string { return SourceContent }

func (r *ContentRecall) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	if r.Feedback == nil || r.Vectors == nil || r.Index == nil || rctx == nil || rctx.UserID == 0 {
		return nil, nil
	}

	liked, err := r.Feedback.UserFeedback(ctx, rctx.UserID, r.LikedThreshold)
	if err != nil {
		return nil, err
	}
	if len(liked) == 0 {
		return nil, nil
	}

	// 逐篇取向量；缺向量或解码失败的文章静默跳过
	dim := r.Index.Dimension()
	var centroid []float64
	resolved := 0
	for _, fb := range liked {
		raw, err := r.Vectors.GetVector(ctx, fb.ArticleID)
		if err != nil {
			if core.IsStoreNotFound(err) {
				continue
			}
			return nil, err
		}
		vec, err := index.DecodeVector(raw, dim)
		if err != nil {
			continue
		}
		if centroid == nil {
			centroid = make([]float64, dim)
		}
		for i, v := range vec {
			centroid[i] += float64(v)
		}
		resolved++
	}
	if resolved == 0 {
		return nil, nil
	}

	query := make([]float32, dim)
	for i := range centroid {
		query[i] = float32(centroid[i] / float64(resolved))
	}

	topK := r.TopK
	if topK <= 0 {
		topK = 20
	}

	results, err := r.Index.Search(query, topK)
	if err != nil {
		return nil, err
	}

	out := make([]*core.Item, 0, len(results))
	for _, res := range results {
		it := core.NewItem(res.ArticleID)
		it.Score = float64(res.Distance)
		it.Features["content_distance"] = float64(res.Distance)
		it.PutLabel("recall_source", utils.Label{Value: SourceContent, Source: "recall"})
		it.PutLabel("liked_articles", utils.Label{Value: strconv.Itoa(resolved), Source: "recall"})
		out = append(out, it)
	}
	return out, nil
}

var _ Source = (*ContentRecall)(nil)
