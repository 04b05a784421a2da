package utils

import "fmt"

// Messages printed by the CLI. Server messages are shown as received.
var translations = map[string]map[string]string{
	"en": {
		"survey.closed":       "This survey is closed",
		"survey.closed.body":  "This survey is no longer accepting responses.",
		"respond.progress":    "Progress: %d%%",
		"respond.thanks":      "Thank you! Your response has been submitted.",
		"respond.auth_choice": "This survey is private. Rerun with -anonymous to continue anonymously, or sign in first (login / register).",
		"auth.login_required": "Please log in to continue",
		"auth.access_denied":  "Access denied",
		"auth.expired":        "Your session has expired. Please log in again.",
		"auth.logged_out":     "Logged out",
		"export.written":      "Exported %s",
	},
	"zh": {
		"survey.closed":       "此问卷已关闭",
		"survey.closed.body":  "此问卷不再接受回复。",
		"respond.progress":    "进度：%d%%",
		"respond.thanks":      "谢谢！您的回复已提交。",
		"respond.auth_choice": "此问卷为私有问卷。使用 -anonymous 匿名继续，或先登录（login / register）。",
		"auth.login_required": "请先登录",
		"auth.access_denied":  "无权访问",
		"auth.expired":        "登录已过期，请重新登录。",
		"auth.logged_out":     "已退出登录",
		"export.written":      "已导出 %s",
	},
}

// T returns the translated string for key in locale; falls back to English.
func T(locale, key string) string {
	if m, ok := translations[locale]; ok {
		if v, ok := m[key]; ok {
			return v
		}
	}
	if v, ok := translations["en"][key]; ok {
		return v
	}
	return key
}

// Tf formats the translated string with args.
func Tf(locale, key string, args ...any) string {
	return fmt.Sprintf(T(locale, key), args...)
}
