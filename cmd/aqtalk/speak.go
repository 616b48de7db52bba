package main

import (
	"context"
	"fmt"

	"github.com/iabetor/aqtalk/internal/logger"
	"github.com/iabetor/aqtalk/internal/tts"
)

// samplePlayer 由 *audio.Player 实现。
type samplePlayer interface {
	Play(ctx context.Context, samples []float32, sampleRate int) error
}

// speak 合成文本并阻塞播放到结束。
func speak(ctx context.Context, engine tts.Engine, player samplePlayer, text string) error {
	samples, sampleRate, err := engine.Synthesize(ctx, text)
	if err != nil {
		return fmt.Errorf("语音合成失败: %w", err)
	}
	logger.Debugf("[main] 播放 %d 个样本 (%d Hz)", len(samples), sampleRate)
	return player.Play(ctx, samples, sampleRate)
}
