package theme

import (
	"os"
	"strings"
)

// SymbolSet is one rendition of the symbols the screens draw.
type SymbolSet struct {
	Error, ArrowR, Bullet, Ellipsis, Cursor string
}

var (
	unicodeSymbols = SymbolSet{Error: "✗", ArrowR: "→", Bullet: "•", Ellipsis: "…", Cursor: "▸"}
	asciiSymbols   = SymbolSet{Error: "[ERR]", ArrowR: "->", Bullet: "*", Ellipsis: "...", Cursor: ">"}
)

// DetectUnicodeSupport reports whether the terminal likely renders Unicode.
// MVIUSERS_ASCII_SYMBOLS forces ASCII; otherwise the first locale variable
// that is set decides, and no locale at all counts as Unicode.
func DetectUnicodeSupport() bool {
	if v := os.Getenv("MVIUSERS_ASCII_SYMBOLS"); v == "1" || strings.EqualFold(v, "true") {
		return false
	}
	for _, key := range []string{"LC_ALL", "LC_CTYPE", "LANG"} {
		if val := strings.ToLower(os.Getenv(key)); val != "" {
			return strings.Contains(val, "utf-8") || strings.Contains(val, "utf8")
		}
	}
	return true
}

// InitSymbols picks the symbol set for the current terminal. It runs at init
// and again in tests that change the environment.
func InitSymbols() {
	set := unicodeSymbols
	if !DetectUnicodeSupport() {
		set = asciiSymbols
	}
	SymbolError, SymbolArrowR, SymbolBullet = set.Error, set.ArrowR, set.Bullet
	SymbolEllipsis, SymbolCursor = set.Ellipsis, set.Cursor
}

func init() {
	InitSymbols()
}
