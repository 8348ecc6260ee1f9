package recall

import (
	"context"
	"math"
	"sort"

	"github.com/newsletter-ai/newsrec/core"
	"github.com/newsletter-ai/newsrec/pkg/utils"
)

// CollaborativeRecall 是基于用户的协同过滤召回源（User-CF）。
//
// 核心思想："兴趣相似的用户，喜欢相似的文章"
//
// 算法流程（每次请求全量重算）：
//  1. 全量加载反馈，构建稠密 user×article 评分矩阵（未评分 = 0）
//  2. 计算目标用户与每个用户的余弦相似度：
//     sim(u, target) = (u · target) / (‖u‖·‖target‖ + ε)
//  3. 文章得分 = Σ_u sim(u, target) · rating[u, article]
//     （包含目标用户自己的行：自相似度 ≈ 1 先强化已评分项，下一步再清零）
//  4. 清零目标用户已评分文章的得分（不推荐已看过的）
//  5. 返回得分为正的 TopK 文章，降序；得分相同按文章 ID 升序
//
// 成本注记：O(users × articles)，无增量相似度缓存，只适用于
// 目标规模的小型部署；矩阵是请求级临时数据，调用结束即丢弃。
type CollaborativeRecall struct {
	Feedback core.FeedbackStore

	// TopK 最终返回的 TopK 篇文章（默认 20）
	TopK int

	// Epsilon 余弦分母的零保护，按字面值使用（配置默认 1e-6）
	Epsilon float64
}

func (r *CollaborativeRecall) Name() string { return SourceCollaborative }

func (r *CollaborativeRecall) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	if r.Feedback == nil || rctx == nil || rctx.UserID == 0 {
		return nil, nil
	}

	rows, err := r.Feedback.AllFeedback(ctx)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	// 收集所有用户/文章并建立行列下标
	userSet := make(map[int64]struct{})
	articleSet := make(map[int64]struct{})
	for _, fb := range rows {
		userSet[fb.UserID] = struct{}{}
		articleSet[fb.ArticleID] = struct{}{}
	}
	if _, ok := userSet[rctx.UserID]; !ok {
		return nil, nil
	}

	users := sortedIDs(userSet)
	articles := sortedIDs(articleSet)
	userIdx := make(map[int64]int, len(users))
	for i, u := range users {
		userIdx[u] = i
	}
	articleIdx := make(map[int64]int, len(articles))
	for i, a := range articles {
		articleIdx[a] = i
	}

	// 稠密评分矩阵
	matrix := make([][]float64, len(users))
	for i := range matrix {
		matrix[i] = make([]float64, len(articles))
	}
	for _, fb := range rows {
		matrix[userIdx[fb.UserID]][articleIdx[fb.ArticleID]] = fb.Rating
	}

	target := matrix[userIdx[rctx.UserID]]
	targetNorm := vectorNorm(target)

	// 相似度加权求和投影到文章列
	scores := make([]float64, len(articles))
	for _, row := range matrix {
		sim := dot(row, target) / (vectorNorm(row)*targetNorm + r.Epsilon)
		if sim == 0 {
			continue
		}
		for j, rating := range row {
			if rating != 0 {
				scores[j] += sim * rating
			}
		}
	}

	// 清零目标用户已评分的文章
	for j, rating := range target {
		if rating != 0 {
			scores[j] = 0
		}
	}

	type scoredArticle struct {
		articleID int64
		score     float64
	}
	candidates := make([]scoredArticle, 0, len(articles))
	for j, score := range scores {
		if score > 0 {
			candidates = append(candidates, scoredArticle{articleID: articles[j], score: score})
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].articleID < candidates[j].articleID
	})

	topK := r.TopK
	if topK <= 0 {
		topK = 20
	}
	if len(candidates) > topK {
		candidates = candidates[:topK]
	}

	out := make([]*core.Item, 0, len(candidates))
	for _, c := range candidates {
		it := core.NewItem(c.articleID)
		it.Score = c.score
		it.Features["collab_score"] = c.score
		it.PutLabel("recall_source", utils.Label{Value: SourceCollaborative, Source: "recall"})
		out = append(out, it)
	}
	return out, nil
}

func sortedIDs(set map[int64]struct{}) []int64 {
	ids := make([]int64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

func vectorNorm(a []float64) float64 {
	var sum float64
	for _, v := range a {
		sum += v * v
	}
	return math.Sqrt(sum)
}

var _ Source = (*CollaborativeRecall)(nil)
