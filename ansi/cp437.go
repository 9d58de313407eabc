package ansi

import "strings"

// cp437ToUnicode maps the upper 128 bytes of CP437 to Unicode runes.
// Indices 0-127 correspond to 0x80-0xFF.
var cp437ToUnicode = [128]rune{
	'Ç', 'ü', 'é', 'â', 'ä', 'à', 'å', 'ç', // 80-87
	'ê', 'ë', 'è', 'ï', 'î', 'ì', 'Ä', 'Å', // 88-8F
	'É', 'æ', 'Æ', 'ô', 'ö', 'ò', 'û', 'ù', // 90-97
	'ÿ', 'Ö', 'Ü', '¢', '£', '¥', '₧', 'ƒ', // 98-9F
	'á', 'í', 'ó', 'ú', 'ñ', 'Ñ', 'ª', 'º', // A0-A7
	'¿', '⌐', '¬', '½', '¼', '¡', '«', '»', // A8-AF
	'░', '▒', '▓', '│', '┤', '╡', '╢', '╖', // B0-B7
	'╕', '╣', '║', '╗', '╝', '╜', '╛', '┐', // B8-BF
	'└', '┴', '┬', '├', '─', '┼', '╞', '╟', // C0-C7
	'╚', '╔', '╩', '╦', '╠', '═', '╬', '╧', // C8-CF
	'╨', '╤', '╥', '╙', '╘', '╒', '╓', '╫', // D0-D7
	'╪', '┘', '┌', '█', '▄', '▌', '▐', '▀', // D8-DF
	'α', 'ß', 'Γ', 'π', 'Σ', 'σ', 'µ', 'τ', // E0-E7
	'Φ', 'Θ', 'Ω', 'δ', '∞', 'φ', 'ε', '∩', // E8-EF
	'≡', '±', '≥', '≤', '⌠', '⌡', '÷', '≈', // F0-F7
	'°', '∙', '·', '√', 'ⁿ', '²', '■', ' ', // F8-FF
}

// DecodeCP437 converts CP437 encoded bytes (the native encoding of door
// art) to a UTF-8 string for modern terminals.
func DecodeCP437(data []byte) string {
	var sb strings.Builder
	sb.Grow(len(data))

	for _, b := range data {
		if b < 0x80 {
			sb.WriteByte(b)
		} else {
			sb.WriteRune(cp437ToUnicode[b-0x80])
		}
	}
	return sb.String()
}
