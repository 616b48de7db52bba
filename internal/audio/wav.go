package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// WAV 是解析后的 RIFF/WAVE 线性 PCM 数据。
type WAV struct {
	SampleRate    int
	Channels      int
	BitsPerSample int
	// Data 是 data 块的内容，与输入共享底层内存。
	Data []byte
}

var (
	errNotWAV      = errors.New("不是 RIFF/WAVE 数据")
	errNoFmtChunk  = errors.New("缺少 fmt 块")
	errNoDataChunk = errors.New("缺少 data 块")
)

const wavFormatPCM = 1

// DecodeWAV 解析 AquesTalk 输出的 WAV 数据（PCM 16-bit）。
func DecodeWAV(b []byte) (*WAV, error) {
	if len(b) < 12 || !bytes.Equal(b[0:4], []byte("RIFF")) || !bytes.Equal(b[8:12], []byte("WAVE")) {
		return nil, errNotWAV
	}

	var w WAV
	haveFmt := false
	for p := 12; p+8 <= len(b); {
		id := string(b[p : p+4])
		size := int(binary.LittleEndian.Uint32(b[p+4 : p+8]))
		body := p + 8
		if size < 0 || body+size > len(b) {
			// 部分编码器会把 data 块长度写成占位值，按实际剩余长度截断
			if id != "data" {
				return nil, fmt.Errorf("%s 块长度 %d 超出数据范围", id, size)
			}
			size = len(b) - body
		}

		switch id {
		case "fmt ":
			if size < 16 {
				return nil, fmt.Errorf("fmt 块过短: %d 字节", size)
			}
			if format := binary.LittleEndian.Uint16(b[body:]); format != wavFormatPCM {
				return nil, fmt.Errorf("不支持的 WAV 格式: %d", format)
			}
			w.Channels = int(binary.LittleEndian.Uint16(b[body+2:]))
			w.SampleRate = int(binary.LittleEndian.Uint32(b[body+4:]))
			w.BitsPerSample = int(binary.LittleEndian.Uint16(b[body+14:]))
			haveFmt = true
		case "data":
			if !haveFmt {
				return nil, errNoFmtChunk
			}
			w.Data = b[body : body+size]
			return &w, nil
		}

		// 块按偶数字节对齐
		p = body + size + size&1
	}

	if !haveFmt {
		return nil, errNoFmtChunk
	}
	return nil, errNoDataChunk
}

// Samples 把 16-bit PCM 数据转换为 [-1.0, 1.0] 的 float32 样本，多声道时取第一声道。
func (w *WAV) Samples() ([]float32, error) {
	if w.BitsPerSample != 16 {
		return nil, fmt.Errorf("不支持的位深: %d", w.BitsPerSample)
	}
	samples := BytesToFloat32(w.Data)
	if w.Channels <= 1 {
		return samples, nil
	}
	mono := make([]float32, len(samples)/w.Channels)
	for i := range mono {
		mono[i] = samples[i*w.Channels]
	}
	return mono, nil
}

// EncodeWAV 把单声道 16-bit PCM 数据封装为 WAV。
func EncodeWAV(pcm []byte, sampleRate int) []byte {
	var buf bytes.Buffer
	buf.Grow(44 + len(pcm))

	le := binary.LittleEndian
	buf.WriteString("RIFF")
	binary.Write(&buf, le, uint32(36+len(pcm)))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(&buf, le, uint32(16))
	binary.Write(&buf, le, uint16(wavFormatPCM))
	binary.Write(&buf, le, uint16(1))
	binary.Write(&buf, le, uint32(sampleRate))
	binary.Write(&buf, le, uint32(sampleRate*2))
	binary.Write(&buf, le, uint16(2))
	binary.Write(&buf, le, uint16(16))
	buf.WriteString("data")
	binary.Write(&buf, le, uint32(len(pcm)))
	buf.Write(pcm)
	return buf.Bytes()
}
