// redact маскирует чувствительные значения перед записью в лог.
package redact

import "strings"

// Email оставляет первые два символа локальной части и домен: "ad***@x.com".
func Email(s string) string {
	local, domain, ok := strings.Cut(strings.TrimSpace(s), "@")
	if !ok || domain == "" || strings.Contains(domain, "@") {
		return "***"
	}

	if r := []rune(local); len(r) > 2 {
		local = string(r[:2]) + "***"
	} else {
		local = "***"
	}

	return local + "@" + domain
}

// Token никогда не пишет сам токен, только признак его наличия.
func Token(s string) string {
	if s == "" {
		return "[EMPTY_TOKEN]"
	}

	return "[REDACTED_TOKEN]"
}
