package audio

import (
	"context"
	"testing"
)

func TestPCMSource_Fill(t *testing.T) {
	src := newPCMSource([]byte{1, 2, 3, 4, 5, 6}, 2)

	out := make([]byte, 4)
	src.fill(out)
	if string(out) != "\x01\x02\x03\x04" {
		t.Fatalf("first period: got %v", out)
	}
	select {
	case <-src.done:
		t.Fatal("done signalled before data ran out")
	default:
	}

	out = []byte{9, 9, 9, 9}
	src.fill(out)
	if string(out) != "\x05\x06\x00\x00" {
		t.Fatalf("second period should be padded with silence, got %v", out)
	}
	select {
	case <-src.done:
	default:
		t.Fatal("done should be signalled once data is exhausted")
	}

	// 数据耗尽后继续回调不应 panic
	src.fill(out)
	if string(out) != "\x00\x00\x00\x00" {
		t.Fatalf("expected silence after end, got %v", out)
	}
}

func TestPlayer_PlayWithoutDevice(t *testing.T) {
	p := &Player{}
	if err := p.Play(context.Background(), nil, 8000); err != nil {
		t.Errorf("empty samples should be a no-op, got %v", err)
	}
	if err := p.Play(context.Background(), []float32{0.1}, 0); err == nil {
		t.Error("expected error for zero sample rate")
	}

	p.Close()
	if err := p.Play(context.Background(), []float32{0.1}, 8000); err == nil {
		t.Error("expected error after Close")
	}
}
