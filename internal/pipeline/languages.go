package pipeline

import (
	"sort"
)

// supportedLanguages is the set of IETF language tags the intake pipeline
// accepts for recognition and synthesis.
var supportedLanguages = map[string]struct{}{
	"en-US": {}, "hi-IN": {}, "es-ES": {}, "fr-FR": {}, "de-DE": {},
	"it-IT": {}, "ja-JP": {}, "ko-KR": {}, "zh-CN": {}, "ru-RU": {},
	"pt-BR": {}, "nl-NL": {}, "pl-PL": {}, "ar-SA": {}, "tr-TR": {},
	"vi-VN": {}, "th-TH": {}, "id-ID": {}, "ms-MY": {}, "fil-PH": {},
	"uk-UA": {}, "el-GR": {}, "he-IL": {}, "ro-RO": {}, "hu-HU": {},
	"cs-CZ": {}, "da-DK": {}, "fi-FI": {}, "sv-SE": {}, "no-NO": {},
	"sk-SK": {}, "hr-HR": {}, "ca-ES": {}, "nl-BE": {}, "yue-HK": {},
	"af-ZA": {}, "am-ET": {}, "hy-AM": {}, "az-AZ": {}, "eu-ES": {},
	"be-BY": {}, "bn-IN": {}, "bs-BA": {}, "bg-BG": {}, "my-MM": {},
	"km-KH": {}, "zh-TW": {}, "et-EE": {}, "ka-GE": {}, "gu-IN": {},
	"ha-NG": {}, "iw-IL": {}, "is-IS": {}, "ig-NG": {}, "ga-IE": {},
	"jv-ID": {}, "kn-IN": {}, "kk-KZ": {}, "lo-LA": {}, "lv-LV": {},
	"lt-LT": {}, "lb-LU": {}, "mk-MK": {}, "mg-MG": {}, "ml-IN": {},
	"mt-MT": {}, "mi-NZ": {}, "mr-IN": {}, "mn-MN": {}, "ne-NP": {},
	"ny-MW": {}, "or-IN": {}, "ps-AF": {}, "fa-IR": {}, "pa-IN": {},
	"sm-WS": {}, "gd-GB": {}, "sr-RS": {}, "st-LS": {}, "sn-ZW": {},
	"sd-PK": {}, "si-LK": {}, "sl-SI": {}, "so-SO": {}, "su-ID": {},
	"sw-KE": {}, "tl-PH": {}, "tg-TJ": {}, "ta-IN": {}, "tt-RU": {},
	"te-IN": {}, "ti-ER": {}, "ts-ZA": {}, "tk-TM": {}, "ur-PK": {},
	"ug-CN": {}, "uz-UZ": {}, "cy-GB": {}, "xh-ZA": {}, "yi-IL": {},
	"yo-NG": {}, "zu-ZA": {},
}

// LanguageSupported reports whether the pipeline accepts the language tag.
func LanguageSupported(code string) bool {
	_, ok := supportedLanguages[code]
	return ok
}

// SupportedLanguages returns the accepted language tags in sorted order.
func SupportedLanguages() []string {
	codes := make([]string, 0, len(supportedLanguages))
	for code := range supportedLanguages {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
