package i18n

import (
	"strings"
	"sync"
)

// Translator retrieves localized messages for row error codes.
// data provides optional values to embed in the message; a "{name}"
// placeholder is replaced by data["name"].
type Translator interface {
	Message(code string, data map[string]string) string
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

var dictionaries = map[string]map[string]string{
	"en": {
		"unexpected_eof":      "unexpected end of stream while parsing JSONEachRow format",
		"duplicate_field":     "duplicate field found while parsing JSONEachRow format",
		"unknown_field":       "unknown field found while parsing JSONEachRow format",
		"value_parse":         "cannot parse value",
		"syntax_error":        "malformed JSON object",
		"invariant_violation": "logical error",
		"reading_key":         "while reading the value of key {key}",
		"row":                 "at row {row}",
	},
	"ja": {
		"unexpected_eof":      "JSONEachRow 形式の解析中に入力が途切れました",
		"duplicate_field":     "JSONEachRow 形式の解析中に重複したフィールドを検出しました",
		"unknown_field":       "JSONEachRow 形式の解析中に未知のフィールドを検出しました",
		"value_parse":         "値を解析できません",
		"syntax_error":        "JSON オブジェクトの形式が不正です",
		"invariant_violation": "内部エラー",
		"reading_key":         "キー {key} の値を読み込み中",
		"row":                 "{row} 行目",
	},
}

func (t dictTranslator) Message(code string, data map[string]string) string {
	msg, ok := dictionaries[t.lang][code]
	if !ok {
		msg, ok = dictionaries["en"][code]
	}
	if !ok {
		return code
	}
	for k, v := range data {
		msg = strings.ReplaceAll(msg, "{"+k+"}", v)
	}
	return msg
}

var (
	mu                sync.RWMutex
	currentTranslator Translator = dictTranslator{lang: "en"}
)

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if lang != "ja" {
		lang = "en"
	}
	SetTranslator(dictTranslator{lang: lang})
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version).
func SetTranslator(tr Translator) {
	if tr == nil {
		tr = dictTranslator{lang: "en"}
	}
	mu.Lock()
	currentTranslator = tr
	mu.Unlock()
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string {
	mu.RLock()
	tr := currentTranslator
	mu.RUnlock()
	return tr.Message(code, data)
}
