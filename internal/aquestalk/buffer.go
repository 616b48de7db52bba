package aquestalk

import (
	"io"
	"runtime"
	"sync"
	"unsafe"

	"github.com/iabetor/aqtalk/internal/aqerr"
	"github.com/iabetor/aqtalk/internal/binding"
	"github.com/iabetor/aqtalk/internal/logger"
)

// AudioBuffer 是 AquesTalk 分配的 WAV 数据。
type AudioBuffer struct {
	state   *audioState
	cleanup runtime.Cleanup
}

type audioState struct {
	mu   sync.RWMutex
	ptr  unsafe.Pointer
	data []byte
	ref  *binding.Shared[funcs]
}

func newAudioBuffer(ptr unsafe.Pointer, size int, ref *binding.Shared[funcs]) *AudioBuffer {
	st := &audioState{
		ptr:  ptr,
		data: unsafe.Slice((*byte)(ptr), size),
		ref:  ref,
	}
	b := &AudioBuffer{state: st}
	b.cleanup = runtime.AddCleanup(b, func(st *audioState) {
		logger.Debugf("[aquestalk] AudioBuffer 未显式关闭，由 GC 释放")
		if err := st.release(); err != nil {
			logger.Warnf("[aquestalk] 回收 AudioBuffer 失败: %v", err)
		}
	}, st)
	return b
}

// View 以指向原生内存的 WAV 数据调用 fn。fn 执行期间缓冲区不会被释放，
// 切片不得在 fn 返回后继续使用；需要保存请用 Clone。
func (b *AudioBuffer) View(fn func(wav []byte) error) error {
	defer runtime.KeepAlive(b)

	b.state.mu.RLock()
	defer b.state.mu.RUnlock()
	if b.state.ref == nil {
		return aqerr.ErrClosed
	}
	return fn(b.state.data)
}

// Len 返回 WAV 数据长度，关闭后为 0。
func (b *AudioBuffer) Len() int {
	b.state.mu.RLock()
	defer b.state.mu.RUnlock()
	return len(b.state.data)
}

// Clone 把 WAV 数据复制到 Go 内存。
func (b *AudioBuffer) Clone() []byte {
	defer runtime.KeepAlive(b)

	b.state.mu.RLock()
	defer b.state.mu.RUnlock()
	if b.state.data == nil {
		return nil
	}
	out := make([]byte, len(b.state.data))
	copy(out, b.state.data)
	return out
}

// WriteTo 实现 io.WriterTo。写入期间缓冲区不会被释放。
func (b *AudioBuffer) WriteTo(w io.Writer) (int64, error) {
	defer runtime.KeepAlive(b)

	b.state.mu.RLock()
	defer b.state.mu.RUnlock()
	if b.state.ref == nil {
		return 0, aqerr.ErrClosed
	}
	n, err := w.Write(b.state.data)
	return int64(n), err
}

// Close 通过 AquesTalk_FreeWave 释放缓冲区并归还绑定引用，重复调用无副作用。
func (b *AudioBuffer) Close() error {
	b.cleanup.Stop()
	return b.state.release()
}

func (st *audioState) release() error {
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.ref == nil {
		return nil
	}
	ref := st.ref
	ref.Funcs().freeWave(st.ptr)
	st.ptr, st.data, st.ref = nil, nil, nil
	return ref.Release()
}
