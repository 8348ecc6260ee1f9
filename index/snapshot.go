package index

import (
	"encoding/gob"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/newsletter-ai/newsrec/core"
)

// snapshotVersion 是快照格式版本。格式是索引实现的私有约定，
// 不承诺跨版本兼容：版本不符时 Load 直接拒绝，调用方回退 Rebuild。
const snapshotVersion = 1

// snapshot 是完整索引状态的序列化形态：全部向量 + slot→article_id 映射。
type snapshot struct {
	Version   int
	Dimension int
	IDs       []int64
	Vectors   []float32
}

// Save 将索引完整序列化到 w（gob 编码的单个 blob）。
// Save 只持读锁，可与 Search 并发；与 Insert/Rebuild 互斥。
func (ix *FlatIndex) Save(w io.Writer) error {
	ix.mu.RLock()
	snap := snapshot{
		Version:   snapshotVersion,
		Dimension: ix.dim,
		IDs:       append([]int64(nil), ix.ids...),
		Vectors:   append([]float32(nil), ix.vecs...),
	}
	ix.mu.RUnlock()

	if err := gob.NewEncoder(w).Encode(&snap); err != nil {
		return fmt.Errorf("encode index snapshot: %w", err)
	}
	return nil
}

// Load 从 r 反序列化快照并整体替换索引状态。
// 快照损坏、版本不符、或编码维度与当前配置不一致时返回 INDEX_LOAD
// 错误；索引状态保持不变，调用方应回退到 Rebuild。
func (ix *FlatIndex) Load(r io.Reader) error {
	var snap snapshot
	if err := gob.NewDecoder(r).Decode(&snap); err != nil {
		return core.NewDomainError(core.ModuleIndex, core.ErrorCodeIndexLoad,
			fmt.Sprintf("index: decode snapshot: %v", err))
	}
	if snap.Version != snapshotVersion {
		return core.NewDomainError(core.ModuleIndex, core.ErrorCodeIndexLoad,
			fmt.Sprintf("index: snapshot version %d, want %d", snap.Version, snapshotVersion))
	}
	if snap.Dimension != ix.dim {
		return core.NewDomainError(core.ModuleIndex, core.ErrorCodeIndexLoad,
			fmt.Sprintf("index: snapshot dimension %d, want %d", snap.Dimension, ix.dim))
	}
	if len(snap.Vectors) != len(snap.IDs)*snap.Dimension {
		return core.NewDomainError(core.ModuleIndex, core.ErrorCodeIndexLoad,
			fmt.Sprintf("index: snapshot has %d floats for %d ids at dimension %d",
				len(snap.Vectors), len(snap.IDs), snap.Dimension))
	}

	ix.mu.Lock()
	ix.vecs = snap.Vectors
	ix.ids = snap.IDs
	ix.mu.Unlock()

	ix.log.Info().Int("vectors", len(snap.IDs)).Msg("vector index loaded from snapshot")
	return nil
}

// SaveFile 将快照写入文件。先写临时文件再 rename，避免写坏旧快照。
func (ix *FlatIndex) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".snapshot-*")
	if err != nil {
		return fmt.Errorf("create snapshot temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := ix.Save(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close snapshot temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename snapshot into place: %w", err)
	}
	return nil
}

// LoadFile 从文件加载快照。文件不存在或内容无效都会返回错误，
// 由调用方决定是否回退 Rebuild。
func (ix *FlatIndex) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return core.NewDomainError(core.ModuleIndex, core.ErrorCodeIndexLoad,
			fmt.Sprintf("index: open snapshot: %v", err))
	}
	defer f.Close()
	return ix.Load(f)
}
