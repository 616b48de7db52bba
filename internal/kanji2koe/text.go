package kanji2koe

import (
	"bytes"
	"runtime"
	"sync"

	"github.com/iabetor/aqtalk/internal/aqerr"
)

// allocator 是进程侧的内存分配器。转换输出缓冲区只经由它分配和释放，
// 绝不交给原生库的释放函数。
type allocator interface {
	alloc(n int) []byte
	free(b []byte)
}

// heapAllocator 从 Go 堆分配，释放时清零以免转换文本残留在内存中。
type heapAllocator struct{}

func (heapAllocator) alloc(n int) []byte { return make([]byte, n) }

func (heapAllocator) free(b []byte) { clear(b) }

// ConvertedText 是 Convert 的结果：本进程分配、以 NUL 结尾的音声记号列。
type ConvertedText struct {
	state   *textState
	cleanup runtime.Cleanup
}

type textState struct {
	mu    sync.RWMutex
	buf   []byte
	n     int
	alloc allocator
}

func newConvertedText(buf []byte, n int, alloc allocator) *ConvertedText {
	st := &textState{buf: buf, n: n, alloc: alloc}
	t := &ConvertedText{state: st}
	t.cleanup = runtime.AddCleanup(t, func(st *textState) { st.release() }, st)
	return t
}

// String 返回转换结果的副本，关闭后为空字符串。
func (t *ConvertedText) String() string {
	defer runtime.KeepAlive(t)

	t.state.mu.RLock()
	defer t.state.mu.RUnlock()
	if t.state.buf == nil {
		return ""
	}
	return string(t.state.buf[:t.state.n])
}

// Bytes 返回不含 NUL 的结果副本，关闭后为 nil。
func (t *ConvertedText) Bytes() []byte {
	defer runtime.KeepAlive(t)

	t.state.mu.RLock()
	defer t.state.mu.RUnlock()
	if t.state.buf == nil {
		return nil
	}
	return bytes.Clone(t.state.buf[:t.state.n])
}

// View 以缓冲区中的结果（不含 NUL）调用 fn。fn 执行期间缓冲区不会被释放，
// 切片不得在 fn 返回后继续使用。
func (t *ConvertedText) View(fn func(koe []byte) error) error {
	defer runtime.KeepAlive(t)

	t.state.mu.RLock()
	defer t.state.mu.RUnlock()
	if t.state.buf == nil {
		return aqerr.ErrClosed
	}
	return fn(t.state.buf[:t.state.n])
}

// Len 返回结果长度（字节，不含 NUL）。
func (t *ConvertedText) Len() int {
	t.state.mu.RLock()
	defer t.state.mu.RUnlock()
	if t.state.buf == nil {
		return 0
	}
	return t.state.n
}

// Cap 返回分配的缓冲区容量。
func (t *ConvertedText) Cap() int {
	t.state.mu.RLock()
	defer t.state.mu.RUnlock()
	return len(t.state.buf)
}

// Close 把缓冲区归还给进程分配器，重复调用无副作用。
func (t *ConvertedText) Close() error {
	t.cleanup.Stop()
	t.state.release()
	return nil
}

func (st *textState) release() {
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.buf == nil {
		return
	}
	st.alloc.free(st.buf)
	st.buf, st.n = nil, 0
}
