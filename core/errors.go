package core

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 所有领域层错误都使用此类型
//   - 提供错误代码（Code）和消息（Message）
//   - 支持错误检查函数（IsXXX）
//
// 使用场景：
//   - Index 错误：DIMENSION_MISMATCH, INDEX_LOAD
//   - Embedding 错误：UNAVAILABLE
//   - Store 错误：NOT_FOUND, NOT_SUPPORTED
type DomainError struct {
	Code    string // 错误代码（如 "NOT_FOUND", "DIMENSION_MISMATCH"）
	Message string // 错误消息
	Module  string // 模块名称（如 "index", "embedding", "store"）
}

func (e *DomainError) Error() string {
	return e.Message
}

// IsDomainError 检查错误是否为 DomainError 类型
func IsDomainError(err error) bool {
	if err == nil {
		return false
	}
	_, ok := err.(*DomainError)
	return ok
}

// GetDomainError 获取 DomainError，如果不是则返回 nil
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	if domainErr, ok := err.(*DomainError); ok {
		return domainErr
	}
	return nil
}

// NewDomainError 创建新的领域错误
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

// 错误代码常量
const (
	ErrorCodeNotFound          = "NOT_FOUND"          // 资源不存在
	ErrorCodeNotSupported      = "NOT_SUPPORTED"      // 操作不支持
	ErrorCodeUnavailable       = "UNAVAILABLE"        // 服务不可用（如 embedding 后端初始化失败）
	ErrorCodeInvalidInput      = "INVALID_INPUT"      // 输入无效
	ErrorCodeDimensionMismatch = "DIMENSION_MISMATCH" // 向量维度与索引配置不一致
	ErrorCodeIndexLoad         = "INDEX_LOAD"         // 索引快照损坏或版本不兼容
	ErrorCodeInternalError     = "INTERNAL_ERROR"     // 内部错误
)

// 模块名称常量
const (
	ModuleStore     = "store"     // 存储模块
	ModuleIndex     = "index"     // 向量索引模块
	ModuleEmbedding = "embedding" // 向量化模块
	ModuleRecall    = "recall"    // 召回模块
)

// 通用错误检查函数

// IsNotFound 检查错误是否为 NOT_FOUND
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeNotFound
	}
	return false
}

// IsNotSupported 检查错误是否为 NOT_SUPPORTED
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeNotSupported
	}
	return false
}

// IsUnavailable 检查错误是否为 UNAVAILABLE。
// embedding 后端初始化失败后，所有需要新向量的调用都会返回该错误；
// 调用方据此区分“推荐子系统故障”与“没有可推荐内容”。
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeUnavailable
	}
	return false
}

// IsDimensionMismatch 检查错误是否为 DIMENSION_MISMATCH
func IsDimensionMismatch(err error) bool {
	if err == nil {
		return false
	}
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeDimensionMismatch
	}
	return false
}

// IsIndexLoad 检查错误是否为 INDEX_LOAD。
// 快照加载失败不是致命错误：调用方应回退到从持久向量存储 Rebuild。
func IsIndexLoad(err error) bool {
	if err == nil {
		return false
	}
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeIndexLoad
	}
	return false
}
