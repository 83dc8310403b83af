package services

import (
	"strings"
	"sync"

	"github.com/pemistahl/lingua-go"
)

var (
	languageDetector     lingua.LanguageDetector
	languageDetectorOnce sync.Once
)

func DetectLanguage(content string) string {
	languageDetectorOnce.Do(func() {
		languageDetector = lingua.NewLanguageDetectorBuilder().
			FromLanguages(
				lingua.English,
				lingua.Chinese,
				lingua.Japanese,
				lingua.Korean,
				lingua.Spanish,
				lingua.French,
				lingua.German,
				lingua.Russian,
				lingua.Portuguese,
			).
			WithLowAccuracyMode().
			Build()
	})

	if lang, ok := languageDetector.DetectLanguageOf(content); ok {
		return strings.ToLower(lang.IsoCode639_1().String())
	}
	return ""
}
