package audio

import (
	"encoding/binary"
	"testing"
)

func TestDecodeWAV_RoundTrip(t *testing.T) {
	pcm := Float32ToBytes([]float32{0, 0.5, -0.5, 1})
	w, err := DecodeWAV(EncodeWAV(pcm, 8000))
	if err != nil {
		t.Fatalf("DecodeWAV failed: %v", err)
	}
	if w.SampleRate != 8000 || w.Channels != 1 || w.BitsPerSample != 16 {
		t.Errorf("unexpected format: %+v", w)
	}
	if len(w.Data) != len(pcm) {
		t.Errorf("data length: got %d, want %d", len(w.Data), len(pcm))
	}

	samples, err := w.Samples()
	if err != nil {
		t.Fatalf("Samples failed: %v", err)
	}
	if len(samples) != 4 || samples[3] != 1.0 {
		t.Errorf("unexpected samples: %v", samples)
	}
}

func TestDecodeWAV_SkipsUnknownChunks(t *testing.T) {
	pcm := []byte{1, 0, 2, 0}
	wav := EncodeWAV(pcm, 16000)

	// 在 fmt 与 data 之间插入一个奇数长度的 LIST 块
	list := []byte("LIST\x03\x00\x00\x00abc\x00")
	out := append([]byte{}, wav[:36]...)
	out = append(out, list...)
	out = append(out, wav[36:]...)
	binary.LittleEndian.PutUint32(out[4:], uint32(len(out)-8))

	w, err := DecodeWAV(out)
	if err != nil {
		t.Fatalf("DecodeWAV failed: %v", err)
	}
	if string(w.Data) != string(pcm) {
		t.Errorf("unexpected data: %v", w.Data)
	}
}

func TestDecodeWAV_TruncatedDataChunk(t *testing.T) {
	wav := EncodeWAV([]byte{1, 0, 2, 0, 3, 0}, 8000)
	wav = wav[:len(wav)-2]

	w, err := DecodeWAV(wav)
	if err != nil {
		t.Fatalf("DecodeWAV failed: %v", err)
	}
	if len(w.Data) != 4 {
		t.Errorf("expected data clipped to 4 bytes, got %d", len(w.Data))
	}
}

func TestDecodeWAV_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"not riff", []byte("RIFX\x00\x00\x00\x00WAVE")},
		{"no chunks", []byte("RIFF\x04\x00\x00\x00WAVE")},
		{"data before fmt", []byte("RIFF\x10\x00\x00\x00WAVEdata\x02\x00\x00\x00\x01\x00")},
	}
	for _, tt := range tests {
		if _, err := DecodeWAV(tt.data); err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}
}

func TestSamples_Stereo(t *testing.T) {
	w := &WAV{SampleRate: 8000, Channels: 2, BitsPerSample: 16,
		Data: Float32ToBytes([]float32{1, 0, -1, 0})}
	mono, err := w.Samples()
	if err != nil {
		t.Fatalf("Samples failed: %v", err)
	}
	if len(mono) != 2 || mono[0] != 1 || mono[1] != -1 {
		t.Errorf("expected first channel only, got %v", mono)
	}
}

func TestSamples_UnsupportedDepth(t *testing.T) {
	w := &WAV{Channels: 1, BitsPerSample: 8, Data: []byte{0, 1}}
	if _, err := w.Samples(); err == nil {
		t.Error("expected error for 8-bit PCM")
	}
}
