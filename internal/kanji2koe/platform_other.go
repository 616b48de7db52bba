//go:build !linux && !windows

package kanji2koe

import "github.com/iabetor/aqtalk/internal/native"

var runtimeDeps []native.Dependency

const symConvert = "AqKanji2Koe_Convert"
