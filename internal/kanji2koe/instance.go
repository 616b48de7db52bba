package kanji2koe

import (
	"bytes"
	"fmt"
	"math"
	"runtime"
	"sync"
	"unicode/utf8"
	"unsafe"

	"github.com/iabetor/aqtalk/internal/aqerr"
	"github.com/iabetor/aqtalk/internal/binding"
	"github.com/iabetor/aqtalk/internal/logger"
	"github.com/iabetor/aqtalk/internal/native"
)

// MinBufferSize 是转换输出缓冲区的最小容量（字节）。
const MinBufferSize = 256

// Instance 是一个 AqKanji2Koe 实例。
//
// Instance 可以在多个 goroutine 间共享并同时调用 Convert，本包不对转换调用加锁；
// 是否真正线程安全取决于原生库本身。Close 会等待进行中的 Convert 返回后再释放实例。
type Instance struct {
	state   *instanceState
	cleanup runtime.Cleanup
}

type instanceState struct {
	mu     sync.RWMutex
	handle unsafe.Pointer
	ref    *binding.Shared[funcs]
	alloc  allocator
}

func newInstance(handle unsafe.Pointer, ref *binding.Shared[funcs], alloc allocator) *Instance {
	st := &instanceState{handle: handle, ref: ref, alloc: alloc}
	in := &Instance{state: st}
	in.cleanup = runtime.AddCleanup(in, func(st *instanceState) {
		logger.Debugf("[kanji2koe] 实例未显式关闭，由 GC 释放")
		if err := st.release(); err != nil {
			logger.Warnf("[kanji2koe] 回收实例失败: %v", err)
		}
	}, st)
	return in
}

// bufferSize 计算输出缓冲区容量：size > 0 时直接使用，否则为 2*(n+1)，最小 MinBufferSize。
func bufferSize(n, size int) int {
	if size <= 0 {
		size = (n + 1) * 2
	}
	if size < MinBufferSize {
		size = MinBufferSize
	}
	return size
}

// Convert 把汉字假名混合文本转换为音声记号列，缓冲区容量按输入长度自动估算。
func (in *Instance) Convert(text string) (*ConvertedText, error) {
	return in.ConvertSize(text, 0)
}

// ConvertSize 与 Convert 相同，但以 size 字节作为输出缓冲区容量（仍不小于 MinBufferSize）。
func (in *Instance) ConvertSize(text string, size int) (*ConvertedText, error) {
	defer runtime.KeepAlive(in)

	capacity := bufferSize(len(text), size)
	if capacity > math.MaxInt32 {
		return nil, fmt.Errorf("%w: %d", aqerr.ErrBufferSize, capacity)
	}
	kanji, err := native.CString(text)
	if err != nil {
		return nil, err
	}

	st := in.state
	st.mu.RLock()
	defer st.mu.RUnlock()
	if st.handle == nil {
		return nil, aqerr.ErrClosed
	}

	buf := st.alloc.alloc(capacity)
	code := st.ref.Funcs().convert(st.handle, &kanji[0], &buf[0], int32(capacity))
	runtime.KeepAlive(kanji)
	if code != 0 {
		st.alloc.free(buf)
		return nil, aqerr.NewNativeError(aqerr.Conversion, code)
	}

	n := bytes.IndexByte(buf, 0)
	if n < 0 {
		st.alloc.free(buf)
		return nil, fmt.Errorf("%w: 容量 %d 字节", aqerr.ErrUnterminated, capacity)
	}
	if !utf8.Valid(buf[:n]) {
		st.alloc.free(buf)
		return nil, fmt.Errorf("%w: 转换结果不是合法的 UTF-8", aqerr.ErrEncoding)
	}

	logger.Debugf("[kanji2koe] 转换完成: %d 字节 -> %d 字节 (容量 %d)", len(text), n, capacity)
	return newConvertedText(buf, n, st.alloc), nil
}

// ConvertString 转换文本并直接返回字符串，内部缓冲区在返回前释放。size 为 0 时自动估算。
func (in *Instance) ConvertString(text string, size int) (string, error) {
	ct, err := in.ConvertSize(text, size)
	if err != nil {
		return "", err
	}
	defer ct.Close()
	return ct.String(), nil
}

// Close 通过 AqKanji2Koe_Release 释放实例并归还绑定引用，重复调用无副作用。
func (in *Instance) Close() error {
	in.cleanup.Stop()
	return in.state.release()
}

func (st *instanceState) release() error {
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.handle == nil {
		return nil
	}
	ref := st.ref
	ref.Funcs().release(st.handle)
	st.handle, st.ref = nil, nil
	logger.Debugf("[kanji2koe] 实例已释放")
	return ref.Release()
}
