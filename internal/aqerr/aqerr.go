// Package aqerr 定义原生绑定层统一的错误模型，
// 并把 AquesTalk / AqKanji2Koe 返回的数字错误码翻译为可读的错误描述。
package aqerr

import (
	"errors"
	"fmt"
)

var (
	// ErrLoad 表示原生库或其运行时依赖无法加载。
	ErrLoad = errors.New("加载原生库失败")
	// ErrSymbolNotFound 表示原生库缺少预期的导出函数，通常是库版本不兼容。
	ErrSymbolNotFound = errors.New("原生库中未找到符号")
	// ErrEncoding 表示文本无法表示为以 NUL 结尾的原生字符串，或原生输出不是合法 UTF-8。
	ErrEncoding = errors.New("文本编码错误")
	// ErrClosed 表示在已释放的绑定、实例或缓冲区上调用了操作。
	ErrClosed = errors.New("资源已释放")
	// ErrInvalidSpeed 表示发话速度不在 [50,300] 范围内。
	ErrInvalidSpeed = errors.New("发话速度超出范围")
	// ErrBufferSize 表示输出缓冲区容量无法作为 int32 传给原生函数。
	ErrBufferSize = errors.New("缓冲区大小无效")
	// ErrUnterminated 表示原生函数写满了输出缓冲区却没有写入 NUL 结尾。
	ErrUnterminated = errors.New("原生输出缺少 NUL 结尾")
)

// NativeError 是原生调用返回非零错误码（或空指针）时的错误。
type NativeError struct {
	Descriptor
}

// NewNativeError 翻译 code 并包装为 *NativeError。
func NewNativeError(domain Domain, code int32) *NativeError {
	return &NativeError{Descriptor: Translate(domain, code)}
}

func (e *NativeError) Error() string {
	return fmt.Sprintf("%s: %s", e.Domain, e.Message)
}
