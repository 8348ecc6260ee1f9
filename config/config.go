// Package config 提供推荐引擎的配置加载与配置驱动的 Pipeline 装配。
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config 是推荐引擎的配置结构（YAML）。
//
// 示例：
//
//	index:
//	  dimension: 384
//	  snapshot_path: data/index.snapshot
//	embedder:
//	  base_url: http://localhost:11434
//	  model: all-minilm
//	storage:
//	  sqlite_path: data/newsrec.db
//	  redis_addr: localhost:6379
//	recall:
//	  liked_threshold: 4
//	  top_k: 20
//	rank:
//	  content_weight: 0.7
//	  collab_weight: 0.3
//	serve:
//	  top_n: 5
type Config struct {
	Index    IndexConfig    `yaml:"index"`
	Embedder EmbedderConfig `yaml:"embedder"`
	Storage  StorageConfig  `yaml:"storage"`
	Recall   RecallConfig   `yaml:"recall"`
	Rank     RankConfig     `yaml:"rank"`
	Serve    ServeConfig    `yaml:"serve"`
}

// IndexConfig 向量索引配置。
type IndexConfig struct {
	// Dimension 向量维度，必填
	Dimension int `yaml:"dimension"`
	// SnapshotPath 索引快照文件路径，为空则不做快照持久化
	SnapshotPath string `yaml:"snapshot_path"`
}

// EmbedderConfig embedding 服务配置。
type EmbedderConfig struct {
	BaseURL string `yaml:"base_url"` // 默认 http://localhost:11434
	Model   string `yaml:"model"`    // 默认 all-minilm
}

// StorageConfig 存储配置。
type StorageConfig struct {
	// SQLitePath 文章向量/用户反馈的持久化存储路径
	SQLitePath string `yaml:"sqlite_path"`
	// RedisAddr 最新文章等 KV 存储地址，为空则使用内存存储
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
}

// RecallConfig 召回配置。
type RecallConfig struct {
	// LikedThreshold “喜欢”的评分下限，默认 4
	LikedThreshold float64 `yaml:"liked_threshold"`
	// TopK 每路召回的数量，默认 20
	TopK int `yaml:"top_k"`
	// Epsilon 协同过滤余弦相似度的分母平滑项，默认 1e-6
	Epsilon float64 `yaml:"epsilon"`
}

// RankConfig 排序配置。
type RankConfig struct {
	// ContentWeight 内容召回命中权重，默认 0.7
	ContentWeight float64 `yaml:"content_weight"`
	// CollabWeight 协同召回命中权重，默认 0.3
	CollabWeight float64 `yaml:"collab_weight"`
}

// ServeConfig 服务配置。
type ServeConfig struct {
	// TopN 最终返回的推荐数量，默认 5
	TopN int `yaml:"top_n"`
	// FilterRated 是否在默认推荐 Pipeline 里过滤已评分文章。
	// 默认关闭：协同召回自身会清零已评分文章，内容召回允许
	// 再次推荐用户喜欢过的内容。
	FilterRated bool `yaml:"filter_rated"`
}

// Default 返回带默认值的配置。
func Default() *Config {
	return &Config{
		Index: IndexConfig{Dimension: 384},
		Embedder: EmbedderConfig{
			BaseURL: "http://localhost:11434",
			Model:   "all-minilm",
		},
		Recall: RecallConfig{
			LikedThreshold: 4,
			TopK:           20,
			Epsilon:        1e-6,
		},
		Rank: RankConfig{
			ContentWeight: 0.7,
			CollabWeight:  0.3,
		},
		Serve: ServeConfig{TopN: 5},
	}
}

// Load 从 YAML 文件加载配置，未设置的字段使用默认值。
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 校验配置合法性。
func (c *Config) Validate() error {
	if c.Index.Dimension <= 0 {
		return fmt.Errorf("index.dimension must be positive, got %d", c.Index.Dimension)
	}
	if c.Recall.LikedThreshold < 0 {
		return fmt.Errorf("recall.liked_threshold must be non-negative")
	}
	if c.Recall.Epsilon <= 0 {
		return fmt.Errorf("recall.epsilon must be positive")
	}
	if c.Rank.ContentWeight < 0 || c.Rank.CollabWeight < 0 {
		return fmt.Errorf("rank weights must be non-negative")
	}
	return nil
}
