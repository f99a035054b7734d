package store

import (
	"crypto/md5"
	"encoding/hex"
)

// md5Hex is the key-construction primitive for the per-language existence
// sets built by PreloadStringsForLang and queried by HasTranslationForLang.
func md5Hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}
