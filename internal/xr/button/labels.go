package button

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

const (
	keyEnter        = "enter-ar"
	keyExit         = "exit-ar"
	keyNotSupported = "ar-not-supported"
	keyNotAllowed   = "ar-not-allowed"
)

var supported = []language.Tag{
	language.English,
	language.TraditionalChinese,
	language.Japanese,
}

var labels = map[language.Tag][4]string{
	language.English:            {"ENTER AR", "EXIT AR", "AR NOT SUPPORTED", "AR NOT ALLOWED"},
	language.TraditionalChinese: {"進入 AR", "離開 AR", "不支援 AR", "未允許 AR"},
	language.Japanese:           {"AR を開始", "AR を終了", "AR 非対応", "AR が許可されていません"},
}

var (
	labelCatalog = buildCatalog()
	matcher      = language.NewMatcher(supported)
)

func buildCatalog() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	keys := [4]string{keyEnter, keyExit, keyNotSupported, keyNotAllowed}
	for tag, texts := range labels {
		for i, key := range keys {
			// SetString only fails on malformed messages; these are constants.
			_ = b.SetString(tag, key, texts[i])
		}
	}
	return b
}

// Printer returns a label printer for a BCP 47 language string; unknown or
// empty input falls back to English.
func Printer(lang string) *message.Printer {
	tag := language.English
	if lang != "" {
		if want, err := language.Parse(lang); err == nil {
			_, idx, conf := matcher.Match(want)
			if conf != language.No {
				tag = supported[idx]
			}
		}
	}
	return message.NewPrinter(tag, message.Catalog(labelCatalog))
}
