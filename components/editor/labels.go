package editor

import (
	"strings"
	"unicode"

	"github.com/ettle/strcase"
	"github.com/microcosm-cc/bluemonday"
)

// HumanizeName turns a form key such as "defaultEditableWidget" into
// "Default editable widget".
func HumanizeName(name string) string {
	snake := strcase.ToSnake(strings.TrimSpace(name))
	if snake == "" {
		return ""
	}
	words := strings.ReplaceAll(snake, "_", " ")
	runes := []rune(words)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

var textPolicy = bluemonday.UGCPolicy()

// SanitizeText strips unsafe markup from free text input.
func SanitizeText(s string) string {
	return strings.TrimSpace(textPolicy.Sanitize(s))
}
