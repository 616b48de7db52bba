// Package aquestalk 封装 AquesTalk 语音合成库：把音声记号列合成为 WAV 数据。
//
// 合成结果由原生库内部分配，只能通过 AquesTalk_FreeWave 释放；
// AudioBuffer 持有共享绑定的一个引用，保证释放时原生库仍处于加载状态。
package aquestalk

import (
	"fmt"
	"runtime"
	"sync"
	"unsafe"

	"github.com/iabetor/aqtalk/internal/aqerr"
	"github.com/iabetor/aqtalk/internal/binding"
	"github.com/iabetor/aqtalk/internal/logger"
	"github.com/iabetor/aqtalk/internal/native"
)

// 发话速度范围（百分比）。
const (
	MinSpeed     = 50
	MaxSpeed     = 300
	DefaultSpeed = 100
)

const (
	symSynthe   = "AquesTalk_Synthe_Utf8"
	symFreeWave = "AquesTalk_FreeWave"
)

// funcs 是 AquesTalk 导出函数表。
type funcs struct {
	// unsigned char *AquesTalk_Synthe_Utf8(const char *koe, int iSpeed, int *pSize)
	synthe func(koe *byte, speed int32, size *int32) unsafe.Pointer
	// void AquesTalk_FreeWave(unsigned char *wav)
	freeWave func(wav unsafe.Pointer)
}

// Synthesizer 是已加载的 AquesTalk 库。它本身不保存合成状态，可被多个 goroutine 同时使用。
type Synthesizer struct {
	state   *loaderState
	cleanup runtime.Cleanup
}

type loaderState struct {
	mu     sync.RWMutex
	shared *binding.Shared[funcs]
}

// Load 加载 path 处的 AquesTalk 库并解析所需函数。
func Load(path string) (*Synthesizer, error) {
	lib, err := native.Open(path, native.RTLD_LAZY|native.RTLD_LOCAL)
	if err != nil {
		return nil, err
	}

	var fns funcs
	if err := lib.Bind(&fns.synthe, symSynthe); err != nil {
		lib.Close()
		return nil, err
	}
	if err := lib.Bind(&fns.freeWave, symFreeWave); err != nil {
		lib.Close()
		return nil, err
	}

	logger.Debugf("[aquestalk] 已加载 %s", path)
	return newSynthesizer(binding.New(fns, lib)), nil
}

func newSynthesizer(shared *binding.Shared[funcs]) *Synthesizer {
	st := &loaderState{shared: shared}
	s := &Synthesizer{state: st}
	s.cleanup = runtime.AddCleanup(s, func(st *loaderState) {
		if err := st.release(); err != nil {
			logger.Warnf("[aquestalk] 回收未关闭的合成器失败: %v", err)
		}
	}, st)
	return s
}

// Synthesize 把音声记号列 notation 以 speed（50-300）的速度合成为 WAV 数据。
// 返回的 AudioBuffer 必须 Close；遗漏时由 GC 兜底释放。
func (s *Synthesizer) Synthesize(notation string, speed int) (*AudioBuffer, error) {
	defer runtime.KeepAlive(s)

	if speed < MinSpeed || speed > MaxSpeed {
		return nil, fmt.Errorf("%w: %d（应在 %d-%d 之间）", aqerr.ErrInvalidSpeed, speed, MinSpeed, MaxSpeed)
	}
	koe, err := native.CString(notation)
	if err != nil {
		return nil, err
	}

	st := s.state
	st.mu.RLock()
	defer st.mu.RUnlock()
	if st.shared == nil {
		return nil, aqerr.ErrClosed
	}

	ref, err := st.shared.Acquire()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", aqerr.ErrClosed, err)
	}
	fns := ref.Funcs()

	var size int32
	wav := fns.synthe(&koe[0], int32(speed), &size)
	runtime.KeepAlive(koe)
	if wav == nil {
		ref.Release()
		return nil, aqerr.NewNativeError(aqerr.Synthesis, size)
	}
	if size < 0 {
		fns.freeWave(wav)
		ref.Release()
		return nil, fmt.Errorf("%w: 合成结果长度为 %d", aqerr.ErrBufferSize, size)
	}

	logger.Debugf("[aquestalk] 合成完成: %d 字节记号 -> %d 字节 WAV", len(notation), size)
	return newAudioBuffer(wav, int(size), ref), nil
}

// SynthesizeWAV 合成后把 WAV 数据复制到 Go 内存并立即释放原生缓冲区。
func (s *Synthesizer) SynthesizeWAV(notation string, speed int) ([]byte, error) {
	buf, err := s.Synthesize(notation, speed)
	if err != nil {
		return nil, err
	}
	defer buf.Close()
	return buf.Clone(), nil
}

// Close 释放加载器持有的引用。仍未关闭的 AudioBuffer 会继续保持库的加载状态。
func (s *Synthesizer) Close() error {
	s.cleanup.Stop()
	return s.state.release()
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
