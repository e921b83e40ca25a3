package chat

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// flushWords splits buf into a part safe to emit now and a tail that may
// still grow. Fragments are only released at whitespace boundaries so a word
// is never split across two chunks. The emitted part keeps its trailing
// whitespace; the tail is the trailing run of non-space characters.
func flushWords(buf string) (emit, rest string) {
	cut := strings.LastIndexFunc(buf, unicode.IsSpace)
	if cut < 0 {
		return "", buf
	}
	// The boundary rune may be multi-byte (non-breaking space, thin space);
	// cut past the whole rune, not just its first byte.
	_, size := utf8.DecodeRuneInString(buf[cut:])
	return buf[:cut+size], buf[cut+size:]
}

// wordChunks splits a complete text into word-bounded fragments for
// streaming answers that were computed synchronously.
func wordChunks(text string) []string {
	fields := strings.SplitAfter(text, " ")
	chunks := make([]string, 0, len(fields))
	for _, f := range fields {
		if f != "" {
			chunks = append(chunks, f)
		}
	}
	return chunks
}
