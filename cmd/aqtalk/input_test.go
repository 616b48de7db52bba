package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/text/encoding/japanese"
)

func TestReadInput_Text(t *testing.T) {
	got, err := readInput(inputOptions{Text: "  ゆっくりしていってね\n"}, nil)
	if err != nil {
		t.Fatalf("readInput failed: %v", err)
	}
	if got != "ゆっくりしていってね" {
		t.Errorf("got %q", got)
	}
}

func TestReadInput_Args(t *testing.T) {
	got, err := readInput(inputOptions{Args: []string{"今日は", "晴れ"}}, nil)
	if err != nil {
		t.Fatalf("readInput failed: %v", err)
	}
	if got != "今日は 晴れ" {
		t.Errorf("got %q", got)
	}
}

func TestReadInput_StdinShiftJIS(t *testing.T) {
	sjis, err := japanese.ShiftJIS.NewEncoder().String("漢字かな交じり")
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	got, err := readInput(inputOptions{Path: "-", Encoding: "shift_jis"}, strings.NewReader(sjis))
	if err != nil {
		t.Fatalf("readInput failed: %v", err)
	}
	if got != "漢字かな交じり" {
		t.Errorf("got %q", got)
	}
}

func TestReadInput_FileEUCJP(t *testing.T) {
	eucjp, err := japanese.EUCJP.NewEncoder().String("音声合成")
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	path := filepath.Join(t.TempDir(), "in.txt")
	if err := os.WriteFile(path, []byte(eucjp), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := readInput(inputOptions{Path: path, Encoding: "euc-jp"}, nil)
	if err != nil {
		t.Fatalf("readInput failed: %v", err)
	}
	if got != "音声合成" {
		t.Errorf("got %q", got)
	}
}

func TestReadInput_NFKC(t *testing.T) {
	got, err := readInput(inputOptions{Text: "ＡＢＣ１２３ｶﾀｶﾅ", NFKC: true}, nil)
	if err != nil {
		t.Fatalf("readInput failed: %v", err)
	}
	if got != "ABC123カタカナ" {
		t.Errorf("got %q", got)
	}
}

func TestReadInput_Empty(t *testing.T) {
	if _, err := readInput(inputOptions{Text: "   "}, nil); err == nil {
		t.Error("expected error for blank input")
	}
	if _, err := readInput(inputOptions{}, nil); err == nil {
		t.Error("expected error without any input")
	}
}

func TestDecodeInput(t *testing.T) {
	got, err := decodeInput([]byte("\xEF\xBB\xBFテスト"), "UTF-8")
	if err != nil || string(got) != "テスト" {
		t.Errorf("BOM should be stripped: %q, %v", got, err)
	}

	if _, err := decodeInput([]byte{0x82, 0xa0}, "utf-8"); err == nil {
		t.Error("expected error for invalid UTF-8")
	}
	if _, err := decodeInput([]byte("x"), "latin-9"); err == nil {
		t.Error("expected error for unsupported encoding")
	}
}

func TestReadInput_MultipleSources(t *testing.T) {
	tests := []struct {
		name string
		opts inputOptions
	}{
		{"text and input", inputOptions{Text: "あ", Path: "-"}},
		{"text and args", inputOptions{Text: "あ", Args: []string{"い"}}},
		{"input and args", inputOptions{Path: "-", Args: []string{"い"}}},
	}
	for _, tt := range tests {
		if _, err := readInput(tt.opts, strings.NewReader("う")); err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}
}
