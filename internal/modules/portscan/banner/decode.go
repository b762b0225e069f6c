package banner

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"portgrab/internal/core/logger"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/simplifiedchinese"
)

// ===========================================
// 横幅字符编码处理
// ===========================================

const byteOrderMark = "\ufeff"

// Decode 宽松地把服务端返回的原始字节解码为文本
// 处理顺序：
//  1. 合法 UTF-8 直接使用
//  2. 带 BOM 或 meta 声明的内容按检测到的编码转换
//  3. 能完整按 GBK 解码且含中文的内容按 GBK 转换
//  4. 其余情况丢弃非法字节
//
// 返回值已去除首尾空白，解码过程不会失败
func Decode(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}
	return clean(decode(raw))
}

func decode(raw []byte) string {
	if utf8.Valid(raw) {
		return string(raw)
	}

	// 未检测到BOM或meta声明时返回 windows-1252 兜底；声明为utf-8但内容非法时交给后续分支
	if enc, name, certain := charset.DetermineEncoding(raw, ""); certain || (name != "windows-1252" && name != "utf-8") {
		if converted, err := enc.NewDecoder().Bytes(raw); err == nil {
			logger.Debugf("横幅检测到编码: %s", name)
			return string(converted)
		}
	}

	if converted, ok := convertFromGBK(raw); ok {
		logger.Debugf("横幅按GBK编码转换")
		return converted
	}

	return strings.ToValidUTF8(string(raw), "")
}

// convertFromGBK 仅当整段内容都能按GBK解码且包含中文时才接受转换结果
func convertFromGBK(raw []byte) (string, bool) {
	converted, err := simplifiedchinese.GBK.NewDecoder().Bytes(raw)
	if err != nil {
		return "", false
	}
	text := string(converted)
	if strings.ContainsRune(text, utf8.RuneError) {
		return "", false
	}
	for _, r := range text {
		if unicode.Is(unicode.Han, r) {
			return text, true
		}
	}
	return "", false
}

func clean(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, byteOrderMark)
	return strings.TrimSpace(text)
}
