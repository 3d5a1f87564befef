package service

import "golang.org/x/text/language"

// Interface languages supported by the console, in preference order. The
// first entry is the fallback when negotiation fails.
var supportedLanguages = []string{
	"en-US",
	"zh-Hans",
	"zh-Hant",
	"ja-JP",
	"ko-KR",
	"pt-BR",
	"de-DE",
	"fr-FR",
}

var languageMatcher language.Matcher

func init() {
	tags := make([]language.Tag, 0, len(supportedLanguages))
	for _, lang := range supportedLanguages {
		tags = append(tags, language.MustParse(lang))
	}
	languageMatcher = language.NewMatcher(tags)
}

// MatchInterfaceLanguage negotiates the interface language from an
// Accept-Language header value against the supported set
func MatchInterfaceLanguage(acceptLanguage string) string {
	if acceptLanguage == "" {
		return supportedLanguages[0]
	}

	preferred, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil {
		return supportedLanguages[0]
	}

	_, index, confidence := languageMatcher.Match(preferred...)
	if confidence == language.No {
		return supportedLanguages[0]
	}

	return supportedLanguages[index]
}
