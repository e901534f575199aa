package isaac

// Pair holds the two keystreams of one session: Decode for bytes the client
// sends, Encode for bytes the server sends. Ownership passes to the session
// that accepted the login.
type Pair struct {
	Encode *Generator
	Decode *Generator
}
