package i18n

import "strings"

// Translator retrieves localized messages for failure codes.
// data provides optional metadata to embed in the message (for example,
// "expected", "actual" or "key").
type Translator interface {
	Message(code string, data map[string]string) string
}

// dictTranslator is the built-in dictionary-based Translator. Templates use
// {name} placeholders filled from data.
type dictTranslator struct{ lang string }

var catalogue = map[string]map[string]string{
	"en": {
		"mismatch":              "Expected {expected}, actual was {actual}",
		"invalid_type":          "Expected {expected}, actual was {actual}",
		"required":              `Expected key named "{key}" was missing`,
		"unknown_key":           `Key named "{key}" was unexpected`,
		"duplicate_key":         "duplicate key",
		"too_short":             "Expected string with minLength {expected}, actual was {actual}",
		"too_long":              "Expected string with maxLength {expected}, actual was {actual}",
		"too_small":             "Expected number >= {expected}, actual was {actual}",
		"too_big":               "Expected number <= {expected}, actual was {actual}",
		"pattern":               "Expected string matching {expected}, actual was {actual}",
		"invalid_enum":          "Expected one of {expected}, actual was {actual}",
		"invalid_format":        "Expected {expected}, actual was {actual}",
		"too_few_properties":    "Expected at least {expected} properties, actual was {actual}",
		"too_many_properties":   "Expected at most {expected} properties, actual was {actual}",
		"too_few_items":         "Expected at least {expected} items, actual was {actual}",
		"too_many_items":        "Expected at most {expected} items, actual was {actual}",
		"discriminator_missing": `Discriminator property "{key}" was missing`,
		"discriminator_unknown": `Discriminator property "{key}" has unknown value {actual}`,
		"parse_error":           "parse error",
		"incompatible":          "{expected}",
		"operation_removed":     "Operation {key} exists in the older contract but not in the newer one",
	},
	"ja": {
		"mismatch":              "{expected} を期待しましたが、実際は {actual} でした",
		"invalid_type":          "型が不正です: {expected} を期待しましたが、実際は {actual} でした",
		"required":              "必須プロパティ \"{key}\" が不足しています",
		"unknown_key":           "未知のキー \"{key}\" です",
		"duplicate_key":         "キーが重複しています",
		"too_short":             "短すぎます (最小 {expected}、実際 {actual})",
		"too_long":              "長すぎます (最大 {expected}、実際 {actual})",
		"too_small":             "小さすぎます (最小 {expected}、実際 {actual})",
		"too_big":               "大きすぎます (最大 {expected}、実際 {actual})",
		"pattern":               "パターン {expected} に一致しません: {actual}",
		"invalid_enum":          "{expected} のいずれかを期待しましたが、実際は {actual} でした",
		"invalid_format":        "形式が不正です: {expected}",
		"too_few_properties":    "プロパティが少なすぎます (最小 {expected})",
		"too_many_properties":   "プロパティが多すぎます (最大 {expected})",
		"too_few_items":         "要素が少なすぎます (最小 {expected})",
		"too_many_items":        "要素が多すぎます (最大 {expected})",
		"discriminator_missing": "判別プロパティ \"{key}\" がありません",
		"discriminator_unknown": "判別プロパティ \"{key}\" の値 {actual} は未知です",
		"parse_error":           "解析エラー",
		"incompatible":          "{expected}",
		"operation_removed":     "操作 {key} が新しい契約から削除されました",
	},
}

func (t dictTranslator) Message(code string, data map[string]string) string {
	tmpl, ok := catalogue[t.lang][code]
	if !ok {
		tmpl, ok = catalogue["en"][code]
	}
	if !ok {
		return code
	}
	if len(data) == 0 {
		return tmpl
	}
	args := make([]string, 0, len(data)*2)
	for k, v := range data {
		args = append(args, "{"+k+"}", v)
	}
	return strings.NewReplacer(args...).Replace(tmpl)
}

var currentTranslator Translator = dictTranslator{lang: "en"}

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if lang != "ja" {
		lang = "en"
	}
	currentTranslator = dictTranslator{lang: lang}
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version).
func SetTranslator(tr Translator) {
	if tr == nil {
		currentTranslator = dictTranslator{lang: "en"}
		return
	}
	currentTranslator = tr
}

// Current returns the Translator in effect.
func Current() Translator { return currentTranslator }

// New returns the built-in Translator for lang without changing the current one.
func New(lang string) Translator {
	if lang != "ja" {
		lang = "en"
	}
	return dictTranslator{lang: lang}
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string { return currentTranslator.Message(code, data) }
