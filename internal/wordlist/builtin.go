package wordlist

import "slices"

var builtin = map[string][]string{
	"ru": {
		"привет", "экран", "код", "программа", "клавиатура",
		"монитор", "свет", "время", "мир", "задача",
		"работа", "слово", "проект", "человек", "книга",
		"город", "машина", "день", "ночь", "вода",
		"огонь", "земля", "небо", "солнце", "жизнь",
		"система", "быстро", "точно", "успех", "школа",
		"язык", "мысль", "музыка", "абзац", "берег",
		"ветер", "голос", "дождь", "осень", "песок",
		"рыба", "утка", "холод", "чай", "шаг",
		"поле", "глаз", "звук", "лес", "рука",
	},
}

var fallback = []string{"ошибка", "загрузки", "словаря", "проверьте", "интернет", "соединение"}

// Builtin returns a copy of the built-in vocabulary for lang.
func Builtin(lang string) ([]string, bool) {
	words, ok := builtin[lang]
	if !ok {
		return nil, false
	}
	return slices.Clone(words), true
}

// BuiltinLangs lists languages with a built-in vocabulary.
func BuiltinLangs() []string {
	langs := make([]string, 0, len(builtin))
	for lang := range builtin {
		langs = append(langs, lang)
	}
	slices.Sort(langs)
	return langs
}

// Fallback returns the vocabulary used when a source fails. Its words spell
// out the failure so the user notices it in the session itself.
func Fallback() []string {
	return slices.Clone(fallback)
}
