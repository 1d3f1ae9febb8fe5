package common

import (
	"strings"

	"github.com/google/uuid"
)

// GenerateUUID 生成 UUID
func GenerateUUID() string {
	return uuid.New().String()
}

// NormalizeTitle 標準化食譜標題：去除前後空白、壓縮連續空白、轉小寫。
// 對話中的標題比對一律以此為準。
func NormalizeTitle(title string) string {
	return strings.ToLower(strings.Join(strings.Fields(title), " "))
}

// CollapseWhitespace 壓縮連續空白為單一空格
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
