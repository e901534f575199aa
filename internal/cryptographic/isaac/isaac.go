package isaac

const (
	sizeLog = 8
	size    = 1 << sizeLog
	mask    = (size - 1) << 2
	golden  = 0x9e3779b9
)

// Generator is an ISAAC keystream seeded from four words. It is not safe for
// concurrent use; each direction of a session owns its own Generator.
type Generator struct {
	seed [4]int32

	rsl   [size]uint32
	mem   [size]uint32
	a     uint32
	b     uint32
	c     uint32
	count int
}

// New seeds a generator. The seed array is copied, so later changes to the
// caller's array do not reach the generator.
func New(seed [4]int32) *Generator {
	g := &Generator{seed: seed}
	for i, s := range seed {
		g.rsl[i] = uint32(s)
	}
	g.init()
	return g
}

// Seed returns the words the generator was created with.
func (g *Generator) Seed() [4]int32 {
	return g.seed
}

// NextInt returns the next keystream word.
func (g *Generator) NextInt() int32 {
	if g.count == 0 {
		g.isaac()
		g.count = size
	}
	g.count--
	return int32(g.rsl[g.count])
}

func (g *Generator) isaac() {
	g.c++
	g.b += g.c

	for i := 0; i < size; i++ {
		x := g.mem[i]
		switch i & 3 {
		case 0:
			g.a ^= g.a << 13
		case 1:
			g.a ^= g.a >> 6
		case 2:
			g.a ^= g.a << 2
		case 3:
			g.a ^= g.a >> 16
		}
		g.a += g.mem[(i+size/2)&(size-1)]
		y := g.mem[(x&mask)>>2] + g.a + g.b
		g.mem[i] = y
		g.b = g.mem[((y>>sizeLog)&mask)>>2] + x
		g.rsl[i] = g.b
	}
}

func mix(v *[8]uint32) {
	v[0] ^= v[1] << 11
	v[3] += v[0]
	v[1] += v[2]
	v[1] ^= v[2] >> 2
	v[4] += v[1]
	v[2] += v[3]
	v[2] ^= v[3] << 8
	v[5] += v[2]
	v[3] += v[4]
	v[3] ^= v[4] >> 16
	v[6] += v[3]
	v[4] += v[5]
	v[4] ^= v[5] << 10
	v[7] += v[4]
	v[5] += v[6]
	v[5] ^= v[6] >> 4
	v[0] += v[5]
	v[6] += v[7]
	v[6] ^= v[7] << 8
	v[1] += v[6]
	v[7] += v[0]
	v[7] ^= v[0] >> 9
	v[2] += v[7]
	v[0] += v[1]
}

func (g *Generator) init() {
	var v [8]uint32
	for i := range v {
		v[i] = golden
	}
	for i := 0; i < 4; i++ {
		mix(&v)
	}

	for pass := 0; pass < 2; pass++ {
		for i := 0; i < size; i += 8 {
			for j := range v {
				if pass == 0 {
					v[j] += g.rsl[i+j]
				} else {
					v[j] += g.mem[i+j]
				}
			}
			mix(&v)
			copy(g.mem[i:i+8], v[:])
		}
	}

	g.isaac()
	g.count = size
}
