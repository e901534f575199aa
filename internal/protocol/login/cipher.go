package login

import "login_gateway/internal/cryptographic/isaac"

// EncodeSeedOffset is added to each seed word for the server-to-client stream.
const EncodeSeedOffset = 50

// derivePair seeds the decode stream with seed and the encode stream with a
// copy of seed offset by EncodeSeedOffset. seed is passed by value, so the
// decode generator never observes the offset.
func derivePair(newGenerator GeneratorFactory, seed [4]int32) isaac.Pair {
	decode := newGenerator(seed)

	for i := range seed {
		seed[i] += EncodeSeedOffset
	}

	return isaac.Pair{
		Encode: newGenerator(seed),
		Decode: decode,
	}
}
