package matching

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Message keys. English text doubles as the key.
const (
	msgNewRecord   = "New record! Finished in %s 🎉"
	msgCompleted   = "Great! All correct in %s 🎉"
	msgEmptyTarget = "Drop a process label here"
	msgProgress    = "%d of %d correct"
)

// NoRecord is shown in place of a best time when none is stored.
const NoRecord = "—"

func init() {
	indonesian := map[string]string{
		msgNewRecord:   "Rekor baru! Selesai dalam %s 🎉",
		msgCompleted:   "Hebat! Semua benar dalam %s 🎉",
		msgEmptyTarget: "Taruh label proses di sini",
		msgProgress:    "%d dari %d benar",
	}
	for key, text := range indonesian {
		_ = message.SetString(language.Indonesian, key, text)
		_ = message.SetString(language.English, key, key)
	}
}

// NewPrinter returns a printer for the closest shipped language to lang,
// falling back to Indonesian.
func NewPrinter(lang string) *message.Printer {
	tag := supported[0]
	if lang != "" {
		_, index, confidence := matcher.Match(language.Make(lang))
		if confidence != language.No {
			tag = supported[index]
		}
	}
	return message.NewPrinter(tag)
}

var (
	supported = []language.Tag{language.Indonesian, language.English}
	matcher   = language.NewMatcher(supported)
)

// EmptyTargetPrompt returns the prompt shown on an empty drop target.
func EmptyTargetPrompt(lang string) string {
	return NewPrinter(lang).Sprintf(msgEmptyTarget)
}

// ProgressText returns the localized "n of total correct" summary.
func ProgressText(lang string, correct, total int) string {
	return NewPrinter(lang).Sprintf(msgProgress, correct, total)
}
