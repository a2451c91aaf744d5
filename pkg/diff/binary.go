package diff

// DefaultSniffLen is how many leading bytes are inspected for binary content.
const DefaultSniffLen = 8000

// IsBinary reports whether the first sniffLen bytes of data contain a NUL
// or a control character other than common whitespace, backspace and ESC.
func IsBinary(data []byte, sniffLen int) bool {
	if sniffLen <= 0 {
		sniffLen = DefaultSniffLen
	}
	if len(data) > sniffLen {
		data = data[:sniffLen]
	}
	for _, c := range data {
		if c >= 0x20 && c != 0x7f {
			continue
		}
		switch c {
		case '\t', '\n', '\r', '\f', '\v', '\b', 0x1b:
			continue
		}
		return true
	}
	return false
}
