package tts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/iabetor/aqtalk/internal/audio"
	"github.com/iabetor/aqtalk/internal/logger"
)

// Converter 把汉字假名混合文本转换为音声记号列，由 *kanji2koe.Instance 实现。
type Converter interface {
	ConvertString(text string, size int) (string, error)
}

// Voice 把音声记号列合成为 WAV，由 *aquestalk.Synthesizer 实现。
type Voice interface {
	SynthesizeWAV(notation string, speed int) ([]byte, error)
}

// KoeCache 缓存转换结果，由 *database.DB 实现。
type KoeCache interface {
	LookupKoe(dictionary, input string) (string, bool, error)
	PutKoe(dictionary, input, koe string) error
}

// Options 是 Speaker 的合成参数。
type Options struct {
	Speed      int
	BufferSize int
	// Dictionary 作为缓存键的一部分，通常为字典目录。
	Dictionary string
	// Phonetic 为 true 时输入已是音声记号列，跳过汉字转换。
	Phonetic      bool
	MaxChunkRunes int
}

// ErrEmptyText 表示输入文本为空。
var ErrEmptyText = errors.New("文本为空")

// Speaker 串联 AqKanji2Koe 与 AquesTalk：文本 -> 音声记号列 -> WAV。
type Speaker struct {
	conv  Converter
	voice Voice
	cache KoeCache
	opts  Options
}

// NewSpeaker 创建 Speaker。Phonetic 模式下 conv 可以为 nil，cache 可以为 nil。
func NewSpeaker(conv Converter, voice Voice, cache KoeCache, opts Options) *Speaker {
	if opts.MaxChunkRunes <= 0 {
		opts.MaxChunkRunes = DefaultMaxChunkRunes
	}
	return &Speaker{conv: conv, voice: voice, cache: cache, opts: opts}
}

// Notation 把文本按句切分并转换为音声记号列，每段对应一次 AquesTalk 调用。
func (s *Speaker) Notation(ctx context.Context, text string) ([]string, error) {
	chunks := splitChunks(text, s.opts.MaxChunkRunes)
	if len(chunks) == 0 {
		return nil, ErrEmptyText
	}
	if s.opts.Phonetic {
		return chunks, nil
	}
	if s.conv == nil {
		return nil, errors.New("未配置汉字转换器")
	}

	out := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		koe, err := s.convert(chunk)
		if err != nil {
			return nil, err
		}
		out = append(out, koe)
	}
	return out, nil
}

// Koe 返回文本对应的音声记号列，各段之间以换行分隔。
func (s *Speaker) Koe(ctx context.Context, text string) (string, error) {
	chunks, err := s.Notation(ctx, text)
	if err != nil {
		return "", err
	}
	return strings.Join(chunks, "\n"), nil
}

// SpeakWAV 合成文本并返回 WAV 数据。
func (s *Speaker) SpeakWAV(ctx context.Context, text string) ([]byte, error) {
	chunks, err := s.Notation(ctx, text)
	if err != nil {
		return nil, err
	}
	return s.SpeakNotation(ctx, chunks)
}

// SpeakNotation 合成 Notation 返回的各段音声记号列，多段结果拼接为一个单声道 WAV。
func (s *Speaker) SpeakNotation(ctx context.Context, chunks []string) ([]byte, error) {
	if len(chunks) == 0 {
		return nil, ErrEmptyText
	}
	if s.voice == nil {
		return nil, errors.New("未配置语音合成器")
	}

	var pcm []byte
	sampleRate := 0
	for i, koe := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		wav, err := s.voice.SynthesizeWAV(koe, s.opts.Speed)
		if err != nil {
			return nil, fmt.Errorf("合成第 %d 段失败: %w", i+1, err)
		}
		if len(chunks) == 1 {
			return wav, nil
		}

		w, err := audio.DecodeWAV(wav)
		if err != nil {
			return nil, fmt.Errorf("解析第 %d 段 WAV 失败: %w", i+1, err)
		}
		if w.Channels != 1 || w.BitsPerSample != 16 {
			return nil, fmt.Errorf("不支持的 WAV 格式: %d 声道 %d 位", w.Channels, w.BitsPerSample)
		}
		if sampleRate != 0 && w.SampleRate != sampleRate {
			return nil, fmt.Errorf("采样率不一致: %d != %d", w.SampleRate, sampleRate)
		}
		sampleRate = w.SampleRate
		pcm = append(pcm, w.Data...)
	}

	logger.Debugf("[tts] 合成完成: %d 段, %d 字节 PCM", len(chunks), len(pcm))
	return audio.EncodeWAV(pcm, sampleRate), nil
}

// Synthesize 实现 Engine 接口，返回 float32 样本与采样率。
func (s *Speaker) Synthesize(ctx context.Context, text string) ([]float32, int, error) {
	wav, err := s.SpeakWAV(ctx, text)
	if err != nil {
		return nil, 0, err
	}
	return DecodeSamples(wav)
}

// DecodeSamples 把 AquesTalk 输出的 WAV 解码为 float32 样本与采样率。
func DecodeSamples(wav []byte) ([]float32, int, error) {
	w, err := audio.DecodeWAV(wav)
	if err != nil {
		return nil, 0, fmt.Errorf("解析 WAV 失败: %w", err)
	}
	samples, err := w.Samples()
	if err != nil {
		return nil, 0, err
	}
	return samples, w.SampleRate, nil
}

func (s *Speaker) convert(text string) (string, error) {
	if s.cache != nil {
		koe, ok, err := s.cache.LookupKoe(s.opts.Dictionary, text)
		if err != nil {
			logger.Warnf("[tts] 读取转换缓存失败: %v", err)
		} else if ok {
			logger.Debugf("[tts] 命中转换缓存: %q", text)
			return koe, nil
		}
	}

	koe, err := s.conv.ConvertString(text, s.opts.BufferSize)
	if err != nil {
		return "", fmt.Errorf("转换 %q 失败: %w", text, err)
	}

	if s.cache != nil {
		if err := s.cache.PutKoe(s.opts.Dictionary, text, koe); err != nil {
			logger.Warnf("[tts] 写入转换缓存失败: %v", err)
		}
	}
	return koe, nil
}
