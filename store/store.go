// Package store 提供各存储接口的基础设施实现。
//
// 注意：此包只包含实现，接口定义在 core 包：
//   - core.Store / core.KeyValueStore：通用 KV + 有序集合
//   - core.ArticleVectorStore：每篇文章一行向量的持久存储（事实源）
//   - core.FeedbackStore：用户评分的只读存储
//
// 示例：
//   var kv core.KeyValueStore = store.NewMemoryStore()
//   db, _ := store.OpenSQLiteStore("newsrec.db")
//   var vectors core.ArticleVectorStore = db
//   var feedback core.FeedbackStore = db
package store
