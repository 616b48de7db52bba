// Package native 在运行时加载原生共享库并解析导出函数，不依赖任何静态链接。
//
// 类 Unix 平台使用 purego 的 dlopen/dlsym，Windows 使用 LoadLibrary/GetProcAddress，
// 解析出的地址通过 purego.RegisterFunc 绑定为强类型的 Go 函数。
package native

import (
	"fmt"
	"strings"
	"sync"

	"github.com/iabetor/aqtalk/internal/aqerr"
	"github.com/iabetor/aqtalk/internal/logger"
)

// Library 表示一个已映射的原生库。
type Library struct {
	mu     sync.Mutex
	handle uintptr
	path   string
}

// Dependency 是加载目标库之前需要预先加载的运行时依赖。
type Dependency struct {
	Name  string
	Flags int
}

// Open 以 flags 打开 path 处的原生库。
func Open(path string, flags int) (*Library, error) {
	h, err := openLibrary(path, flags)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", aqerr.ErrLoad, path, err)
	}
	if h == 0 {
		return nil, fmt.Errorf("%w: %s: 句柄为空", aqerr.ErrLoad, path)
	}
	logger.Debugf("[native] 已加载 %s", path)
	return &Library{handle: h, path: path}, nil
}

// Preload 依次加载 deps。任一失败时关闭已加载的依赖并返回错误。
func Preload(deps []Dependency) ([]*Library, error) {
	libs := make([]*Library, 0, len(deps))
	for _, d := range deps {
		l, err := Open(d.Name, d.Flags)
		if err != nil {
			for i := len(libs) - 1; i >= 0; i-- {
				_ = libs[i].Close()
			}
			return nil, fmt.Errorf("预加载依赖失败: %w", err)
		}
		libs = append(libs, l)
	}
	return libs, nil
}

// Path 返回打开时使用的路径。
func (l *Library) Path() string { return l.path }

// Symbol 返回导出符号 name 的地址。
func (l *Library) Symbol(name string) (uintptr, error) {
	l.mu.Lock()
	h := l.handle
	l.mu.Unlock()
	if h == 0 {
		return 0, fmt.Errorf("%w: %s", aqerr.ErrClosed, l.path)
	}

	addr, err := lookupSymbol(h, name)
	if err != nil || addr == 0 {
		return 0, fmt.Errorf("%w: %s (%s): %v", aqerr.ErrSymbolNotFound, name, l.path, err)
	}
	return addr, nil
}

// Bind 解析 name 并把它绑定到 fnPtr 指向的函数变量上。
// fnPtr 的签名必须与原生函数完全一致，签名不受支持时 purego 会 panic。
func (l *Library) Bind(fnPtr any, name string) error {
	addr, err := l.Symbol(name)
	if err != nil {
		return err
	}
	registerFunc(fnPtr, addr)
	return nil
}

// Close 卸载原生库，重复调用无副作用。之后不得再调用任何已绑定的函数。
func (l *Library) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.handle == 0 {
		return nil
	}
	h := l.handle
	l.handle = 0
	if err := closeLibrary(h); err != nil {
		return fmt.Errorf("卸载 %s 失败: %w", l.path, err)
	}
	logger.Debugf("[native] 已卸载 %s", l.path)
	return nil
}

// CString 把 s 转为以 NUL 结尾的字节串。s 中含有 NUL 时返回 aqerr.ErrEncoding。
func CString(s string) ([]byte, error) {
	if i := strings.IndexByte(s, 0); i >= 0 {
		return nil, fmt.Errorf("%w: 第 %d 字节为 NUL", aqerr.ErrEncoding, i)
	}
	b := make([]byte, len(s)+1)
	copy(b, s)
	return b, nil
}
