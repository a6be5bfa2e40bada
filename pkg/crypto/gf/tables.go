package gf

// GF(2^8) exp and log tables over 0x11B with generator 3. The exp table is
// doubled so that log(a)+log(b) never needs a modulo.
var (
	gf8Exp [510]byte
	gf8Log [256]byte
)

func init() {
	x := uint16(1)
	for i := 0; i < 255; i++ {
		gf8Exp[i] = byte(x)
		gf8Exp[i+255] = byte(x)
		gf8Log[x] = byte(i)

		// x *= 3, i.e. (x << 1) ^ x
		x = (x << 1) ^ x
		if x&0x100 != 0 {
			x ^= 0x100 | gf8Poly
		}
	}
	gf8Log[0] = 0
}
