// Package kanji2koe 封装 AqKanji2Koe 语言处理库：把汉字假名混合文本转换为
// AquesTalk 可用的音声记号列。
//
// 用法：Load 加载库 → Create 按词典目录创建实例 → Instance.Convert 转换文本。
// 实例在 Close（或被 GC 回收）时通过 AqKanji2Koe_Release 释放，
// 转换结果的缓冲区由本进程分配，不经过原生库的释放函数。
package kanji2koe

import (
	"fmt"
	"io"
	"runtime"
	"sync"
	"unsafe"

	"github.com/iabetor/aqtalk/internal/aqerr"
	"github.com/iabetor/aqtalk/internal/binding"
	"github.com/iabetor/aqtalk/internal/logger"
	"github.com/iabetor/aqtalk/internal/native"
)

const (
	symCreate    = "AqKanji2Koe_Create"
	symCreatePtr = "AqKanji2Koe_Create_Ptr"
	symRelease   = "AqKanji2Koe_Release"
	symSetDevKey = "AqKanji2Koe_SetDevKey"
)

// funcs 是 AqKanji2Koe 导出函数表。
type funcs struct {
	// void *AqKanji2Koe_Create(const char *pathDic, int *pErr)
	create func(pathDic *byte, errCode *int32) unsafe.Pointer
	// void *AqKanji2Koe_Create_Ptr(const void *pSysDic, const void *pUserDic, int *pErr)
	createPtr func(sysDic, userDic unsafe.Pointer, errCode *int32) unsafe.Pointer
	// void AqKanji2Koe_Release(void *hAqKanji2Koe)
	release func(instance unsafe.Pointer)
	// int AqKanji2Koe_SetDevKey(const char *devKey)
	setDevKey func(key *byte) int32
	// int AqKanji2Koe_Convert(void *hAqKanji2Koe, const char *kanji, char *koe, int nBufKoe)
	convert func(instance unsafe.Pointer, kanji *byte, koe *byte, nBufKoe int32) int32
}

// Library 是已加载的 AqKanji2Koe 库。
type Library struct {
	state   *loaderState
	cleanup runtime.Cleanup
}

type loaderState struct {
	mu     sync.RWMutex
	shared *binding.Shared[funcs]
	alloc  allocator
}

// Load 加载 path 处的 AqKanji2Koe 库。devKey 非空时在加载后调用一次
// AqKanji2Koe_SetDevKey 解除评估版限制，其返回值只记录日志，不作为错误返回。
func Load(path, devKey string) (*Library, error) {
	deps, err := native.Preload(runtimeDeps)
	if err != nil {
		return nil, err
	}
	closeDeps := func() {
		for i := len(deps) - 1; i >= 0; i-- {
			_ = deps[i].Close()
		}
	}

	lib, err := native.Open(path, native.RTLD_LAZY|native.RTLD_LOCAL)
	if err != nil {
		closeDeps()
		return nil, err
	}

	fns, err := bindFuncs(lib, devKey)
	if err != nil {
		lib.Close()
		closeDeps()
		return nil, err
	}

	// 先卸载目标库，再卸载它依赖的运行时库
	closers := []io.Closer{lib}
	for i := len(deps) - 1; i >= 0; i-- {
		closers = append(closers, deps[i])
	}

	logger.Debugf("[kanji2koe] 已加载 %s (convert=%s, 预加载依赖 %d 个)", path, symConvert, len(deps))
	return newLibrary(binding.New(fns, closers...), heapAllocator{}), nil
}

func bindFuncs(lib *native.Library, devKey string) (funcs, error) {
	var fns funcs
	if err := lib.Bind(&fns.setDevKey, symSetDevKey); err != nil {
		return fns, err
	}
	if devKey != "" {
		if err := applyDevKey(fns.setDevKey, devKey); err != nil {
			return fns, err
		}
	}

	binds := []struct {
		fn   any
		name string
	}{
		{&fns.create, symCreate},
		{&fns.createPtr, symCreatePtr},
		{&fns.release, symRelease},
		{&fns.convert, symConvert},
	}
	for _, b := range binds {
		if err := lib.Bind(b.fn, b.name); err != nil {
			return fns, err
		}
	}
	return fns, nil
}

func applyDevKey(setDevKey func(*byte) int32, devKey string) error {
	key, err := native.CString(devKey)
	if err != nil {
		return fmt.Errorf("开发许可密钥无效: %w", err)
	}
	rc := setDevKey(&key[0])
	runtime.KeepAlive(key)
	if rc != 0 {
		logger.Warnf("[kanji2koe] AqKanji2Koe_SetDevKey 返回 %d，限制可能未解除", rc)
	} else {
		logger.Debugf("[kanji2koe] 已设置开发许可密钥")
	}
	return nil
}

func newLibrary(shared *binding.Shared[funcs], alloc allocator) *Library {
	st := &loaderState{shared: shared, alloc: alloc}
	l := &Library{state: st}
	l.cleanup = runtime.AddCleanup(l, func(st *loaderState) {
		if err := st.release(); err != nil {
			logger.Warnf("[kanji2koe] 回收未关闭的 Library 失败: %v", err)
		}
	}, st)
	return l
}

// Create 以 dictDir 目录下的词典创建转换实例。
func (l *Library) Create(dictDir string) (*Instance, error) {
	defer runtime.KeepAlive(l)

	path, err := native.CString(dictDir)
	if err != nil {
		return nil, err
	}
	return l.create(func(fns *funcs, code *int32) unsafe.Pointer {
		h := fns.create(&path[0], code)
		runtime.KeepAlive(path)
		return h
	}, dictDir)
}

// CreateFromMemory 以调用方预先载入内存的系统词典和用户词典创建实例。
// userDic 可为 nil。两块内存的所有权仍归调用方：实例存活期间必须保持有效，
// 并由调用方自行释放，本包只释放实例本身。
func (l *Library) CreateFromMemory(sysDic, userDic unsafe.Pointer) (*Instance, error) {
	defer runtime.KeepAlive(l)

	return l.create(func(fns *funcs, code *int32) unsafe.Pointer {
		return fns.createPtr(sysDic, userDic, code)
	}, "<memory>")
}

func (l *Library) create(call func(*funcs, *int32) unsafe.Pointer, source string) (*Instance, error) {
	st := l.state
	st.mu.RLock()
	defer st.mu.RUnlock()
	if st.shared == nil {
		return nil, aqerr.ErrClosed
	}

	ref, err := st.shared.Acquire()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", aqerr.ErrClosed, err)
	}

	var code int32
	h := call(ref.Funcs(), &code)
	if h == nil {
		ref.Release()
		return nil, fmt.Errorf("创建实例失败 (%s): %w", source, aqerr.NewNativeError(aqerr.Conversion, code))
	}

	logger.Debugf("[kanji2koe] 已创建实例 (%s)", source)
	return newInstance(h, ref, st.alloc), nil
}

// Close 释放加载器持有的引用。尚未关闭的实例会继续保持库的加载状态。
func (l *Library) Close() error {
	l.cleanup.Stop()
	return l.state.release()
}

func (st *loaderState) release() error {
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.shared == nil {
		return nil
	}
	shared := st.shared
	st.shared = nil
	return shared.Release()
}
