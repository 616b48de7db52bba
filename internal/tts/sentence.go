package tts

import (
	"strings"
	"unicode/utf8"
)

// DefaultMaxChunkRunes 是单次送入 AquesTalk 的最大字符数。
// 音声记号列过长时 AquesTalk 返回 200/201，按句切分后分段合成。
const DefaultMaxChunkRunes = 120

func isSentenceEnder(r rune) bool {
	switch r {
	case '。', '！', '？', '．', '!', '?', '\n':
		return true
	}
	return false
}

// extractSentence 从文本开头提取第一个完整句子。
// 返回 (句子, 剩余文本, 是否找到句末标点)。
func extractSentence(text string) (string, string, bool) {
	for i, r := range text {
		if isSentenceEnder(r) {
			splitAt := i + utf8.RuneLen(r)
			return text[:splitAt], text[splitAt:], true
		}
	}
	return "", text, false
}

// splitChunks 将文本按句分割后合并为大段，每段不超过 maxChars 个字符。
// 单句超长时按字符硬切。
func splitChunks(text string, maxChars int) []string {
	if maxChars <= 0 {
		maxChars = DefaultMaxChunkRunes
	}

	var chunks []string
	var current strings.Builder
	currentLen := 0

	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			chunks = append(chunks, s)
		}
		current.Reset()
		currentLen = 0
	}

	add := func(sentence string) {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			return
		}
		n := utf8.RuneCountInString(sentence)
		if currentLen > 0 && currentLen+n > maxChars {
			flush()
		}
		for n > maxChars {
			cut := runeOffset(sentence, maxChars)
			current.WriteString(sentence[:cut])
			flush()
			sentence = sentence[cut:]
			n -= maxChars
		}
		current.WriteString(sentence)
		currentLen += n
	}

	remaining := text
	for {
		sentence, rest, found := extractSentence(remaining)
		if !found {
			add(remaining)
			break
		}
		add(sentence)
		remaining = rest
	}
	flush()
	return chunks
}

// runeOffset 返回第 n 个字符的字节偏移。
func runeOffset(s string, n int) int {
	i := 0
	for off := range s {
		if i == n {
			return off
		}
		i++
	}
	return len(s)
}
