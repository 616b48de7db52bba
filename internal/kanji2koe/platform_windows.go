//go:build windows

package kanji2koe

import "github.com/iabetor/aqtalk/internal/native"

var runtimeDeps []native.Dependency

// Windows 版的 AqKanji2Koe_Convert 接收 Shift_JIS，UTF-8 版本单独导出。
const symConvert = "AqKanji2Koe_Convert_utf8"
