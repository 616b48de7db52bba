package tts

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/iabetor/aqtalk/internal/audio"
)

type fakeConverter struct {
	mu    sync.Mutex
	calls []string
	sizes []int
	err   error
}

func (f *fakeConverter) ConvertString(text string, size int) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, text)
	f.sizes = append(f.sizes, size)
	if f.err != nil {
		return "", f.err
	}
	return "koe:" + text, nil
}

type fakeVoice struct {
	notations []string
	speeds    []int
	rate      int
	err       error
}

// SynthesizeWAV 为每个字符输出一个样本。
func (f *fakeVoice) SynthesizeWAV(notation string, speed int) ([]byte, error) {
	f.notations = append(f.notations, notation)
	f.speeds = append(f.speeds, speed)
	if f.err != nil {
		return nil, f.err
	}
	samples := make([]float32, len([]rune(notation)))
	for i := range samples {
		samples[i] = 0.5
	}
	rate := f.rate
	if rate == 0 {
		rate = 8000
	}
	return audio.EncodeWAV(audio.Float32ToBytes(samples), rate), nil
}

type memCache struct {
	entries map[string]string
	puts    int
	err     error
}

func newMemCache() *memCache { return &memCache{entries: map[string]string{}} }

func (c *memCache) LookupKoe(dictionary, input string) (string, bool, error) {
	if c.err != nil {
		return "", false, c.err
	}
	koe, ok := c.entries[dictionary+"\x00"+input]
	return koe, ok, nil
}

func (c *memCache) PutKoe(dictionary, input, koe string) error {
	if c.err != nil {
		return c.err
	}
	c.puts++
	c.entries[dictionary+"\x00"+input] = koe
	return nil
}

func TestSpeaker_Koe(t *testing.T) {
	conv := &fakeConverter{}
	s := NewSpeaker(conv, &fakeVoice{}, nil, Options{BufferSize: 512})

	koe, err := s.Koe(context.Background(), "今日は。明日")
	if err != nil {
		t.Fatalf("Koe failed: %v", err)
	}
	if koe != "koe:今日は。明日" {
		t.Errorf("unexpected koe: %q", koe)
	}
	if len(conv.sizes) != 1 || conv.sizes[0] != 512 {
		t.Errorf("buffer size not passed through: %v", conv.sizes)
	}
}

func TestSpeaker_SpeakWAVSingleChunk(t *testing.T) {
	voice := &fakeVoice{}
	s := NewSpeaker(&fakeConverter{}, voice, nil, Options{Speed: 150})

	wav, err := s.SpeakWAV(context.Background(), "ゆっくり")
	if err != nil {
		t.Fatalf("SpeakWAV failed: %v", err)
	}
	w, err := audio.DecodeWAV(wav)
	if err != nil {
		t.Fatalf("DecodeWAV failed: %v", err)
	}
	if len(w.Data) != 2*len([]rune("koe:ゆっくり")) {
		t.Errorf("unexpected data length %d", len(w.Data))
	}
	if voice.speeds[0] != 150 {
		t.Errorf("speed not passed through: %v", voice.speeds)
	}
}

func TestSpeaker_SpeakWAVConcatenatesChunks(t *testing.T) {
	voice := &fakeVoice{}
	s := NewSpeaker(nil, voice, nil, Options{Phonetic: true, MaxChunkRunes: 4})

	samples, rate, err := s.Synthesize(context.Background(), "あいう。えおか。")
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if rate != 8000 {
		t.Errorf("rate = %d, want 8000", rate)
	}
	if len(voice.notations) != 2 {
		t.Fatalf("expected 2 native calls, got %q", voice.notations)
	}
	if len(samples) != 8 {
		t.Errorf("expected 8 samples, got %d", len(samples))
	}
}

func TestSpeaker_Phonetic(t *testing.T) {
	voice := &fakeVoice{}
	s := NewSpeaker(nil, voice, nil, Options{Phonetic: true})

	if _, err := s.SpeakWAV(context.Background(), "ゆっくりしていってね"); err != nil {
		t.Fatalf("SpeakWAV failed: %v", err)
	}
	if voice.notations[0] != "ゆっくりしていってね" {
		t.Errorf("phonetic input should reach the voice unchanged, got %q", voice.notations[0])
	}
}

func TestSpeaker_UsesCache(t *testing.T) {
	conv := &fakeConverter{}
	cache := newMemCache()
	s := NewSpeaker(conv, &fakeVoice{}, cache, Options{Dictionary: "aq_dic"})

	for range 2 {
		if _, err := s.Koe(context.Background(), "漢字"); err != nil {
			t.Fatalf("Koe failed: %v", err)
		}
	}
	if len(conv.calls) != 1 {
		t.Errorf("expected one conversion, got %d", len(conv.calls))
	}
	if cache.puts != 1 {
		t.Errorf("expected one cache write, got %d", cache.puts)
	}
}

func TestSpeaker_CacheErrorFallsBack(t *testing.T) {
	conv := &fakeConverter{}
	cache := newMemCache()
	cache.err = errors.New("disk full")
	s := NewSpeaker(conv, &fakeVoice{}, cache, Options{})

	koe, err := s.Koe(context.Background(), "漢字")
	if err != nil {
		t.Fatalf("cache failure should not fail conversion: %v", err)
	}
	if koe != "koe:漢字" {
		t.Errorf("unexpected koe %q", koe)
	}
}

func TestSpeaker_Errors(t *testing.T) {
	convErr := errors.New("convert failed")
	voiceErr := errors.New("synth failed")

	s := NewSpeaker(&fakeConverter{err: convErr}, &fakeVoice{}, nil, Options{})
	if _, err := s.SpeakWAV(context.Background(), "漢字"); !errors.Is(err, convErr) {
		t.Errorf("expected conversion error, got %v", err)
	}

	s = NewSpeaker(&fakeConverter{}, &fakeVoice{err: voiceErr}, nil, Options{})
	if _, err := s.SpeakWAV(context.Background(), "漢字"); !errors.Is(err, voiceErr) {
		t.Errorf("expected synthesis error, got %v", err)
	}

	if _, err := s.SpeakWAV(context.Background(), " \n "); !errors.Is(err, ErrEmptyText) {
		t.Errorf("expected ErrEmptyText, got %v", err)
	}

	s = NewSpeaker(nil, &fakeVoice{}, nil, Options{})
	if _, err := s.Koe(context.Background(), "漢字"); err == nil {
		t.Error("expected error without converter")
	}
}

func TestSpeaker_MismatchedSampleRate(t *testing.T) {
	voice := &rateSwitchingVoice{rates: []int{8000, 16000}}
	s := NewSpeaker(nil, voice, nil, Options{Phonetic: true, MaxChunkRunes: 2})

	_, err := s.SpeakWAV(context.Background(), "あ。い。")
	if err == nil || !strings.Contains(err.Error(), "采样率") {
		t.Errorf("expected sample rate error, got %v", err)
	}
}

type rateSwitchingVoice struct {
	rates []int
	n     int
}

func (v *rateSwitchingVoice) SynthesizeWAV(notation string, speed int) ([]byte, error) {
	rate := v.rates[v.n%len(v.rates)]
	v.n++
	return audio.EncodeWAV([]byte{0, 0}, rate), nil
}

func TestSpeaker_ContextCancelled(t *testing.T) {
	conv := &fakeConverter{}
	voice := &fakeVoice{}
	s := NewSpeaker(conv, voice, nil, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.SpeakWAV(ctx, "漢字"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if len(conv.calls) != 0 || len(voice.notations) != 0 {
		t.Error("no native call should be made after cancellation")
	}
}

func TestSpeaker_SpeakNotationReusesChunks(t *testing.T) {
	conv := &fakeConverter{}
	voice := &fakeVoice{}
	s := NewSpeaker(conv, voice, nil, Options{MaxChunkRunes: 4})

	chunks, err := s.Notation(context.Background(), "あいう。えおか。")
	if err != nil {
		t.Fatalf("Notation failed: %v", err)
	}
	if len(chunks) != 2 || chunks[0] != "koe:あいう。" {
		t.Fatalf("unexpected chunks %q", chunks)
	}
	if _, err := s.SpeakNotation(context.Background(), chunks); err != nil {
		t.Fatalf("SpeakNotation failed: %v", err)
	}
	if len(conv.calls) != 2 {
		t.Errorf("text should be converted once per chunk, got %d calls", len(conv.calls))
	}
	if len(voice.notations) != 2 || voice.notations[1] != "koe:えおか。" {
		t.Errorf("unexpected synthesis input %q", voice.notations)
	}
}

func TestSpeaker_SpeakNotationErrors(t *testing.T) {
	s := NewSpeaker(nil, nil, nil, Options{Phonetic: true})
	if _, err := s.SpeakNotation(context.Background(), []string{"あ"}); err == nil {
		t.Error("expected error without voice")
	}

	s = NewSpeaker(nil, &fakeVoice{}, nil, Options{Phonetic: true})
	if _, err := s.SpeakNotation(context.Background(), nil); !errors.Is(err, ErrEmptyText) {
		t.Errorf("expected ErrEmptyText, got %v", err)
	}
}

func TestDecodeSamples(t *testing.T) {
	samples, rate, err := DecodeSamples(audio.EncodeWAV(audio.Float32ToBytes([]float32{1, -1}), 16000))
	if err != nil {
		t.Fatalf("DecodeSamples failed: %v", err)
	}
	if rate != 16000 || len(samples) != 2 || samples[0] != 1 {
		t.Errorf("got %v at %d Hz", samples, rate)
	}

	if _, _, err := DecodeSamples([]byte("not a wav")); err == nil {
		t.Error("expected error for invalid WAV")
	}
}
