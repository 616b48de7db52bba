package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/unicode/norm"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// inputOptions 描述待合成文本的来源。
type inputOptions struct {
	Text     string
	Path     string // "-" 表示标准输入
	Args     []string
	Encoding string
	NFKC     bool
}

// readInput 从 -text、-input 或位置参数中唯一指定的来源取得文本并统一为 UTF-8。
func readInput(opts inputOptions, stdin io.Reader) (string, error) {
	sources := 0
	for _, set := range []bool{opts.Text != "", opts.Path != "", len(opts.Args) > 0} {
		if set {
			sources++
		}
	}
	if sources > 1 {
		return "", errors.New("-text、-input 和位置参数只能指定其中一个")
	}

	var raw []byte
	switch {
	case opts.Text != "":
		raw = []byte(opts.Text)
	case opts.Path == "-":
		b, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("读取标准输入失败: %w", err)
		}
		raw, err = decodeInput(b, opts.Encoding)
		if err != nil {
			return "", err
		}
	case opts.Path != "":
		b, err := os.ReadFile(opts.Path)
		if err != nil {
			return "", fmt.Errorf("读取输入文件失败: %w", err)
		}
		raw, err = decodeInput(b, opts.Encoding)
		if err != nil {
			return "", err
		}
	default:
		raw = []byte(strings.Join(opts.Args, " "))
	}

	text := string(raw)
	if opts.NFKC {
		text = norm.NFKC.String(text)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", errors.New("没有输入文本，请使用 -text、-input 或位置参数")
	}
	return text, nil
}

// decodeInput 把指定编码的字节转换为 UTF-8。
func decodeInput(b []byte, name string) ([]byte, error) {
	var enc encoding.Encoding
	switch strings.ToLower(strings.ReplaceAll(name, "_", "-")) {
	case "", "utf-8", "utf8":
		b = bytes.TrimPrefix(b, utf8BOM)
		if !utf8.Valid(b) {
			return nil, errors.New("输入不是有效的 UTF-8，请用 -encoding 指定编码")
		}
		return b, nil
	case "utf-16":
		enc = unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM)
	case "shift-jis", "sjis", "cp932":
		enc = japanese.ShiftJIS
	case "euc-jp", "eucjp":
		enc = japanese.EUCJP
	default:
		return nil, fmt.Errorf("不支持的输入编码: %s", name)
	}

	out, err := enc.NewDecoder().Bytes(b)
	if err != nil {
		return nil, fmt.Errorf("按 %s 解码输入失败: %w", name, err)
	}
	return out, nil
}
