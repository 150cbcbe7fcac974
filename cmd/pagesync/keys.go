package main

type key int

const (
	keyNone key = iota
	keyNext
	keyPrev
	keyQuit
	keyIndicator
	keyOverlay
	keySelect
	keyClear
	keyBookmark
	keyChapter
)

// parseKey decodes single read from raw terminal, n is chapter number for
// keyChapter.
func parseKey(b []byte) (k key, n int) {
	switch string(b) {
	case "\x1b[C", "\x1bOC", "l", "n", " ":
		return keyNext, 0
	case "\x1b[D", "\x1bOD", "h", "p":
		return keyPrev, 0
	case "q", "Q", "\x03", "\x04":
		return keyQuit, 0
	case "t":
		return keyIndicator, 0
	case "o":
		return keyOverlay, 0
	case "v":
		return keySelect, 0
	case "c":
		return keyClear, 0
	case "b":
		return keyBookmark, 0
	}
	if len(b) == 1 && b[0] >= '1' && b[0] <= '9' {
		return keyChapter, int(b[0] - '0')
	}
	return keyNone, 0
}
