package tinkerpad

import "strings"

// NormalizeFileName forces value to end with the language's extension. A
// value that already ends with it is kept as is; otherwise its last dotted
// suffix, if any, is replaced: "main" -> "main.css", "main.scss" ->
// "main.css", "dir.v2/main" -> "dir.v2/main.css".
func NormalizeFileName(l Language, value string) string {
	ext := l.Extension()
	if ext == "" || strings.HasSuffix(value, ext) {
		return value
	}
	return trimLastExt(value) + ext
}

// trimLastExt drops a trailing ".suffix" where suffix is non-empty and
// contains neither '/' nor '.'.
func trimLastExt(value string) string {
	dot := strings.LastIndexByte(value, '.')
	if dot < 0 || dot == len(value)-1 {
		return value
	}
	if strings.ContainsRune(value[dot+1:], '/') {
		return value
	}
	return value[:dot]
}
