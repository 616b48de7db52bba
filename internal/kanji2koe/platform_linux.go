//go:build linux

package kanji2koe

import "github.com/iabetor/aqtalk/internal/native"

// Linux 版 AqKanji2Koe 依赖 libstdc++ 且未静态链接，需以 RTLD_GLOBAL 预先加载。
var runtimeDeps = []native.Dependency{
	{Name: "libstdc++.so.6", Flags: native.RTLD_LAZY | native.RTLD_GLOBAL},
}

const symConvert = "AqKanji2Koe_Convert"
