package aqerr

import "fmt"

// Domain 区分两套互不相关的原生错误码。
type Domain int

const (
	// Synthesis 是 AquesTalk 语音合成的错误码域。
	Synthesis Domain = iota
	// Conversion 是 AqKanji2Koe 汉字转音声记号的错误码域。
	Conversion
)

func (d Domain) String() string {
	switch d {
	case Synthesis:
		return "aquestalk"
	case Conversion:
		return "kanji2koe"
	default:
		return fmt.Sprintf("domain(%d)", int(d))
	}
}

// Category 是错误码对应的错误类别。
type Category int

const (
	Unrecognized Category = iota

	// 两个错误码域共用
	Other
	OutOfMemory

	// AquesTalk
	UndefinedSymbol
	NegativeDuration
	UndefinedDelimiter
	InvalidTag
	TagTooLong
	InvalidTagValue
	PlaybackFailed
	AsyncPlaybackFailed
	NoSpeechData
	NotationTooLong
	TooManySymbolsInPhrase
	InternalBufferOverflow
	HeapExhausted

	// AqKanji2Koe
	NullArgument
	NotInitialized
	InputTooLong
	NoSystemDictionary
	UnconvertibleCharacter
	InvalidSystemDictionary
	InvalidUserDictionary
)

var categoryNames = map[Category]string{
	Unrecognized:            "unrecognized",
	Other:                   "other",
	OutOfMemory:             "out of memory",
	UndefinedSymbol:         "undefined reading symbol",
	NegativeDuration:        "negative prosody duration",
	UndefinedDelimiter:      "undefined delimiter",
	InvalidTag:              "invalid tag",
	TagTooLong:              "tag too long",
	InvalidTagValue:         "invalid tag value",
	PlaybackFailed:          "playback failed",
	AsyncPlaybackFailed:     "async playback failed",
	NoSpeechData:            "no speech data",
	NotationTooLong:         "notation too long",
	TooManySymbolsInPhrase:  "too many symbols in phrase",
	InternalBufferOverflow:  "internal buffer overflow",
	HeapExhausted:           "heap exhausted",
	NullArgument:            "null argument",
	NotInitialized:          "not initialized",
	InputTooLong:            "input too long",
	NoSystemDictionary:      "no system dictionary",
	UnconvertibleCharacter:  "unconvertible character",
	InvalidSystemDictionary: "invalid system dictionary",
	InvalidUserDictionary:   "invalid user dictionary",
}

func (c Category) String() string {
	if s, ok := categoryNames[c]; ok {
		return s
	}
	return fmt.Sprintf("category(%d)", int(c))
}

// Descriptor 是一个错误码的翻译结果。
type Descriptor struct {
	Domain   Domain
	Code     int32
	Category Category
	Message  string
}

type entry struct {
	category Category
	message  string
}

// AquesTalk 错误码表。
var synthesisCodes = map[int32]entry{
	100: {Other, "其他错误"},
	101: {OutOfMemory, "内存不足"},
	102: {UndefinedSymbol, "音声记号列中含有未定义的读音记号"},
	103: {NegativeDuration, "韵律数据的时长为负"},
	104: {UndefinedDelimiter, "内部错误（检测到未定义的分隔码）"},
	105: {UndefinedSymbol, "音声记号列中含有未定义的读音记号"},
	106: {InvalidTag, "音声记号列中的标签指定不正确"},
	107: {TagTooLong, "标签长度超出限制（或找不到 '>'）"},
	108: {InvalidTagValue, "标签内的值指定不正确"},
	109: {PlaybackFailed, "无法播放 WAVE（声卡驱动问题）"},
	110: {AsyncPlaybackFailed, "无法播放 WAVE（声卡驱动问题，异步播放）"},
	111: {NoSpeechData, "没有需要发声的数据"},
	200: {NotationTooLong, "音声记号列过长"},
	201: {TooManySymbolsInPhrase, "单个短语中的读音记号过多"},
	202: {InternalBufferOverflow, "音声记号列过长（内部缓冲区溢出）"},
	203: {HeapExhausted, "堆内存不足"},
	204: {InternalBufferOverflow, "音声记号列过长（内部缓冲区溢出）"},
}

// AqKanji2Koe 错误码表，200 与 300 段按区间匹配。
var conversionCodes = map[int32]entry{
	100: {Other, "其他错误"},
	101: {NullArgument, "函数调用参数为 NULL"},
	104: {NotInitialized, "未初始化（未调用初始化例程）"},
	105: {InputTooLong, "输入文本过长"},
	106: {NoSystemDictionary, "未指定系统词典数据"},
	107: {UnconvertibleCharacter, "包含无法转换的字符编码"},
}

// Translate 把原生错误码翻译为 Descriptor。对任意输入都返回结果。
func Translate(domain Domain, code int32) Descriptor {
	d := Descriptor{Domain: domain, Code: code}

	var e entry
	var ok bool
	switch domain {
	case Synthesis:
		e, ok = synthesisCodes[code]
	case Conversion:
		e, ok = conversionCodes[code]
		if !ok {
			switch {
			case code >= 200 && code <= 299:
				e, ok = entry{InvalidSystemDictionary, "系统词典（aqdic.bin）无效"}, true
			case code >= 300 && code <= 399:
				e, ok = entry{InvalidUserDictionary, "用户词典（aq_user.dic）无效"}, true
			}
		}
	}

	if !ok {
		d.Category = Unrecognized
		d.Message = fmt.Sprintf("unrecognized error, code=%d", code)
		return d
	}
	d.Category = e.category
	d.Message = fmt.Sprintf("%s, code=%d", e.message, code)
	return d
}
