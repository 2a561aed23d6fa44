package conv

// U8Hex writes 2-digit uppercase hex without 0x, zero-padded.
func U8Hex(buf []byte, n uint8) []byte {
	if len(buf) < 2 {
		return buf[:0]
	}
	const hexd = "0123456789ABCDEF"
	i := len(buf)
	buf[i-1] = hexd[n&0xF]
	buf[i-2] = hexd[n>>4]
	return buf[i-2:]
}
