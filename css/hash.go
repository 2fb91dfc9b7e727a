package css

import (
	"strconv"
	"unicode/utf16"
)

// HashPrefix starts every scope identifier so it is always a valid CSS
// identifier, even when the base36 part begins with a digit.
const HashPrefix = "css-"

// rollingHash is the classic 31x string hash computed over UTF-16 code
// units, wrapping at 32 bits on every step.
type rollingHash int32

func (h *rollingHash) add(r rune) {
	if r >= 0x10000 {
		r1, r2 := utf16.EncodeRune(r)
		h.addUnit(r1)
		h.addUnit(r2)
		return
	}
	h.addUnit(r)
}

func (h *rollingHash) addUnit(u rune) {
	*h = (*h << 5) - *h + rollingHash(u)
}

// String renders the accumulator as unsigned base36 with HashPrefix.
func (h rollingHash) String() string {
	return HashPrefix + strconv.FormatUint(uint64(uint32(h)), 36)
}

// HashString returns the scope identifier for raw template text. It is
// equivalent to the hash produced by compiling a template with a single
// segment containing s and no line comments.
func HashString(s string) string {
	var h rollingHash
	for _, r := range s {
		h.add(r)
	}
	return h.String()
}
