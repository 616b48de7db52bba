package audio

import (
	"encoding/binary"
	"math"
)

// BytesToFloat32 把小端 signed 16-bit PCM 字节转换为 [-1.0, 1.0] 的 float32 样本。
// 末尾不足一个样本的字节被忽略。
func BytesToFloat32(b []byte) []float32 {
	out := make([]float32, len(b)/2)
	for i := range out {
		s := int16(binary.LittleEndian.Uint16(b[2*i:]))
		out[i] = float32(s) / math.MaxInt16
	}
	return out
}

// Float32ToBytes 把 float32 样本钳位到 [-1.0, 1.0] 后转换为小端 signed 16-bit PCM。
func Float32ToBytes(in []float32) []byte {
	out := make([]byte, len(in)*2)
	for i, s := range in {
		s = max(-1, min(1, s))
		binary.LittleEndian.PutUint16(out[2*i:], uint16(int16(s*math.MaxInt16)))
	}
	return out
}
