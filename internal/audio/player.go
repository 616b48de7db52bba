package audio

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"

	"github.com/iabetor/aqtalk/internal/logger"
)

// Player 使用 malgo (miniaudio) 播放 16-bit PCM。
type Player struct {
	mu     sync.Mutex
	ctx    *malgo.AllocatedContext
	closed bool
}

// NewPlayer 创建播放器。
func NewPlayer() (*Player, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("初始化播放上下文失败: %w", err)
	}
	return &Player{ctx: ctx}, nil
}

// Play 播放单声道 float32 样本，阻塞直到播放完成或 ctx 被取消。
func (p *Player) Play(ctx context.Context, samples []float32, sampleRate int) error {
	if len(samples) == 0 {
		return nil
	}
	if sampleRate <= 0 {
		return fmt.Errorf("无效的采样率: %d", sampleRate)
	}
	pcm := Float32ToBytes(samples)

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return errors.New("播放器已关闭")
	}
	mctx := p.ctx.Context
	p.mu.Unlock()

	src := newPCMSource(pcm, 2)

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = malgo.FormatS16
	deviceConfig.Playback.Channels = 1
	deviceConfig.SampleRate = uint32(sampleRate)
	deviceConfig.PeriodSizeInFrames = 512
	deviceConfig.Periods = 2

	callbacks := malgo.DeviceCallbacks{
		Data: func(out, _ []byte, frameCount uint32) {
			src.fill(out[:int(frameCount)*src.frameSize])
		},
	}

	device, err := malgo.InitDevice(mctx, deviceConfig, callbacks)
	if err != nil {
		return fmt.Errorf("初始化播放设备失败: %w", err)
	}
	defer device.Uninit()

	if err := device.Start(); err != nil {
		return fmt.Errorf("启动播放设备失败: %w", err)
	}
	defer device.Stop()

	select {
	case <-ctx.Done():
		logger.Debugf("[audio] 播放被取消")
		return ctx.Err()
	case <-src.done:
		logger.Debugf("[audio] 播放完成: %d 字节", len(pcm))
		return nil
	}
}

// Close 释放播放上下文。
func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.closed = true

	if p.ctx != nil {
		_ = p.ctx.Uninit()
		p.ctx.Free()
		p.ctx = nil
	}
}

// pcmSource 在设备回调中按帧提供 PCM，数据耗尽后输出静音并通知 done。
type pcmSource struct {
	pcm       []byte
	pos       int
	frameSize int
	done      chan struct{}
	once      sync.Once
}

func newPCMSource(pcm []byte, frameSize int) *pcmSource {
	return &pcmSource{pcm: pcm, frameSize: frameSize, done: make(chan struct{})}
}

func (s *pcmSource) fill(out []byte) {
	n := copy(out, s.pcm[s.pos:])
	s.pos += n
	clear(out[n:])
	if s.pos >= len(s.pcm) {
		s.once.Do(func() { close(s.done) })
	}
}
