package services

import (
	"regexp"
	"strings"
)

var (
	// хештег: # и дальше все, кроме пробелов, # и @
	hashtagRe = regexp.MustCompile(`#[^\s#@]+`)
	// упоминание: @ и дальше буквы, цифры, подчеркивание, точка
	mentionRe = regexp.MustCompile(`@[A-Za-z0-9_.]+`)
)

// ExtractHashtags возвращает имена тегов из текста: в нижнем регистре,
// без дубликатов, в порядке первого появления
func ExtractHashtags(text string) []string {
	matches := hashtagRe.FindAllString(text, -1)
	seen := make(map[string]struct{}, len(matches))
	tags := make([]string, 0, len(matches))
	for _, m := range matches {
		name := strings.ToLower(m[1:])
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		tags = append(tags, name)
	}
	return tags
}

// ExtractMentions возвращает кандидатов-имен пользователей из текста.
// Точка в конце токена считается знаком препинания и отбрасывается:
// "@bob." упоминает bob. Валидность имен здесь не проверяется
func ExtractMentions(text string) []string {
	matches := mentionRe.FindAllString(text, -1)
	seen := make(map[string]struct{}, len(matches))
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		name := strings.TrimRight(m[1:], ".")
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}
