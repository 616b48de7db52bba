//go:build !(darwin || freebsd || linux || windows)

package native

import "errors"

const (
	RTLD_LAZY   = 0
	RTLD_NOW    = 0
	RTLD_GLOBAL = 0
	RTLD_LOCAL  = 0
)

var errUnsupported = errors.New("当前平台不支持加载原生库")

func openLibrary(string, int) (uintptr, error) { return 0, errUnsupported }

func lookupSymbol(uintptr, string) (uintptr, error) { return 0, errUnsupported }

func closeLibrary(uintptr) error { return nil }

// lookupSymbol 总是失败，因此不会走到这里。
func registerFunc(any, uintptr) { panic(errUnsupported) }
