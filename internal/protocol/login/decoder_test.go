package login

import (
	"bytes"
	"crypto/rand"
	stdrsa "crypto/rsa"
	"errors"
	"strings"
	"sync"
	"testing"

	"golang.org/x/crypto/cryptobyte"

	"login_gateway/internal/cryptographic/isaac"
	"login_gateway/internal/cryptographic/rsa"
	"login_gateway/internal/model"
	"login_gateway/internal/protocol/version"
)

const testMachineInfoVersion = 6

var (
	keyOnce sync.Once
	testKey *stdrsa.PrivateKey
	keyErr  error
)

func rsaKey(t *testing.T) *stdrsa.PrivateKey {
	t.Helper()
	keyOnce.Do(func() {
		testKey, keyErr = stdrsa.GenerateKey(rand.Reader, 1024)
	})
	if keyErr != nil {
		t.Fatalf("GenerateKey: %v", keyErr)
	}
	return testKey
}

func newTestDecoder(t *testing.T, opts ...Option) (*Decoder, Encrypter) {
	t.Helper()
	key := rsaKey(t)
	dec, err := rsa.FromPrivateKey(key)
	if err != nil {
		t.Fatalf("FromPrivateKey: %v", err)
	}
	return NewDecoder(dec, version.MachineInfo{Version: testMachineInfoVersion}, opts...), rsa.NewEncrypter(&key.PublicKey)
}

func machineInfo(v uint8) []byte {
	var b cryptobyte.Builder
	version.MachineInfo{Version: v}.Append(&b, []byte("linux/amd64"))
	return b.BytesOrPanic()
}

func validFrame() *ClientFrame {
	f := &ClientFrame{
		Kind:            model.FrameStandard,
		Release:         180,
		ProtocolVersion: 1,
		ClientType:      model.ClientAndroid,
		Secure: model.SecureBlock{
			Check:      model.SecureCheck,
			Seed:       [4]int32{10, 20, 30, 40},
			SessionKey: 0x0102030405060708,
			Variant: model.FreshBlock{
				AuthKind: model.AuthRegular,
				AuthCode: 0,
				Password: "secret1",
			},
		},
		Username:       "alice",
		LowMemory:      true,
		Resizable:      true,
		FrameWidth:     765,
		FrameHeight:    503,
		AreaKey:        "area-key",
		OpaqueID:       -42,
		VersionBlock:   machineInfo(testMachineInfoVersion),
		ScriptsEnabled: true,
		Checksums:      [model.ChecksumsSent]int32{1, 2, 3, 4, 5, 6, 7, 8, 9},
	}
	for i := range f.InstallRandom {
		f.InstallRandom[i] = byte(i + 1)
	}
	return f
}

func encodeFrame(t *testing.T, f *ClientFrame, enc Encrypter) []byte {
	t.Helper()
	data, err := f.Encode(enc)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	return data
}

type recordConn struct {
	bytes.Buffer
	closed bool
}

func (c *recordConn) Close() error {
	c.closed = true
	return nil
}

func decodeAll(t *testing.T, d *Decoder, data []byte) (*model.LoginRequest, error) {
	t.Helper()
	st := NewState("203.0.113.7")
	return d.Decode(st, bytes.NewBuffer(data))
}

func TestDecodeShortHeaderIsIdempotent(t *testing.T) {
	d, _ := newTestDecoder(t)
	st := NewState("203.0.113.7")
	in := bytes.NewBuffer([]byte{byte(model.FrameStandard), 0})

	for i := 0; i < 3; i++ {
		req, err := d.Decode(st, in)
		if err != nil || req != nil {
			t.Fatalf("call %d: got (%v, %v), want (nil, nil)", i, req, err)
		}
		if st.Phase != AwaitingHeader || st.PayloadLength != 0 {
			t.Fatalf("call %d: state changed: %+v", i, st)
		}
		if in.Len() != 2 {
			t.Fatalf("call %d: consumed bytes, %d left", i, in.Len())
		}
	}
}

func TestProcessUnknownFrameKind(t *testing.T) {
	d, _ := newTestDecoder(t)
	st := NewState("203.0.113.7")
	payload := bytes.Repeat([]byte{0xab}, 10)
	in := bytes.NewBuffer(append([]byte{17, 0, 10}, payload...))
	conn := &recordConn{}

	req, err := d.Process(st, in, conn)
	if req != nil {
		t.Fatalf("unexpected request %+v", req)
	}
	if !IsKind(err, KindProtocolViolation) {
		t.Fatalf("err = %v, want protocol violation", err)
	}
	if got := conn.Bytes(); !bytes.Equal(got, []byte{byte(model.StatusLoginServerRejectedSession)}) {
		t.Fatalf("response = %v, want exactly one session-rejected byte", got)
	}
	if !conn.closed {
		t.Fatalf("connection not closed")
	}
	// only the kind byte is read
	if in.Len() != 12 {
		t.Fatalf("%d bytes left, want 12", in.Len())
	}
	if st.Phase != Done {
		t.Fatalf("phase = %v, want done", st.Phase)
	}
}

func TestDecodeEndToEnd(t *testing.T) {
	d, enc := newTestDecoder(t)
	f := validFrame()

	req, err := decodeAll(t, d, encodeFrame(t, f, enc))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if req == nil {
		t.Fatalf("no request for a complete frame")
	}

	if req.Credentials.Username != "alice" || req.Credentials.Password != "secret1" {
		t.Errorf("credentials = %+v", req.Credentials)
	}
	if req.Credentials.Address != "203.0.113.7" {
		t.Errorf("address = %q", req.Credentials.Address)
	}
	if req.Credentials.UsernameHash != 0 || req.Credentials.DisplayID != 0 {
		t.Errorf("placeholders set: %+v", req.Credentials)
	}
	if req.Reconnecting {
		t.Errorf("reconnecting = true for a standard frame")
	}
	if req.Release != 180 || req.ProtocolVersion != 1 {
		t.Errorf("release/protocol = %d/%d", req.Release, req.ProtocolVersion)
	}
	for i := 0; i < model.ChecksumSlots; i++ {
		want := int32(0)
		if i < model.ChecksumsSent {
			want = int32(i + 1)
		}
		if req.Checksums[i] != want {
			t.Errorf("checksums[%d] = %d, want %d", i, req.Checksums[i], want)
		}
	}

	m := req.Metadata
	if !m.LowMemory || !req.LowMemory || !m.Resizable {
		t.Errorf("flags: low=%v resizable=%v", m.LowMemory, m.Resizable)
	}
	if m.ClientType != model.ClientAndroid {
		t.Errorf("client type = %v", m.ClientType)
	}
	if m.FrameWidth != 765 || m.FrameHeight != 503 {
		t.Errorf("frame = %dx%d", m.FrameWidth, m.FrameHeight)
	}
	if m.InstallRandom != f.InstallRandom {
		t.Errorf("install random = %v", m.InstallRandom)
	}
	if m.AreaKey != "area-key" || m.OpaqueID != -42 {
		t.Errorf("passthrough = %q/%d", m.AreaKey, m.OpaqueID)
	}
	if !m.ScriptsEnabled {
		t.Errorf("scripts flag lost")
	}

	if got := req.Ciphers.Decode.Seed(); got != [4]int32{10, 20, 30, 40} {
		t.Errorf("decode seed = %v", got)
	}
	if got := req.Ciphers.Encode.Seed(); got != [4]int32{60, 70, 80, 90} {
		t.Errorf("encode seed = %v", got)
	}
}

func TestDecodeFragmented(t *testing.T) {
	d, enc := newTestDecoder(t)
	data := encodeFrame(t, validFrame(), enc)

	st := NewState("203.0.113.7")
	in := new(bytes.Buffer)
	for i, b := range data {
		in.WriteByte(b)
		req, err := d.Decode(st, in)
		if err != nil {
			t.Fatalf("byte %d: %v", i, err)
		}
		last := i == len(data)-1
		if last != (req != nil) {
			t.Fatalf("byte %d of %d: request = %v", i, len(data), req)
		}
		if i == HeaderSize-2 && st.Phase != AwaitingHeader {
			t.Fatalf("left header phase early")
		}
		if i >= HeaderSize-1 && !last && st.Phase != AwaitingPayload {
			t.Fatalf("byte %d: phase = %v", i, st.Phase)
		}
		if last && req.Credentials.Username != "alice" {
			t.Fatalf("username = %q", req.Credentials.Username)
		}
	}
	if in.Len() != 0 {
		t.Fatalf("%d bytes left unread", in.Len())
	}
}

func TestDecodeLeavesFollowingBytes(t *testing.T) {
	d, enc := newTestDecoder(t)
	data := append(encodeFrame(t, validFrame(), enc), 0xde, 0xad)

	st := NewState("203.0.113.7")
	in := bytes.NewBuffer(data)
	if _, err := d.Decode(st, in); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !bytes.Equal(in.Bytes(), []byte{0xde, 0xad}) {
		t.Fatalf("payload stage consumed past its length: %x left", in.Bytes())
	}
}

func TestPasswordLengthBounds(t *testing.T) {
	d, enc := newTestDecoder(t)

	tests := []struct {
		length int
		accept bool
	}{
		{3, false},
		{4, true},
		{20, true},
		{21, false},
	}
	for _, tt := range tests {
		f := validFrame()
		f.Secure.Variant = model.FreshBlock{AuthKind: model.AuthRegular, Password: strings.Repeat("p", tt.length)}

		req, err := decodeAll(t, d, encodeFrame(t, f, enc))
		if tt.accept {
			if err != nil || req == nil {
				t.Errorf("password length %d: got (%v, %v), want accept", tt.length, req, err)
			}
			continue
		}
		if !IsKind(err, KindInvalidCredentials) {
			t.Errorf("password length %d: err = %v, want invalid credentials", tt.length, err)
		}
	}
}

func TestUsernameLengthBounds(t *testing.T) {
	d, enc := newTestDecoder(t)

	tests := []struct {
		length int
		accept bool
	}{
		{0, false},
		{1, true},
		{12, true},
		{13, false},
	}
	for _, tt := range tests {
		f := validFrame()
		f.Username = strings.Repeat("u", tt.length)

		req, err := decodeAll(t, d, encodeFrame(t, f, enc))
		if tt.accept {
			if err != nil || req == nil {
				t.Errorf("username length %d: got (%v, %v), want accept", tt.length, req, err)
			}
			continue
		}
		if !IsKind(err, KindInvalidCredentials) {
			t.Errorf("username length %d: err = %v, want invalid credentials", tt.length, err)
		}
	}
}

func TestProcessInvalidCredentialsResponds(t *testing.T) {
	d, enc := newTestDecoder(t)
	f := validFrame()
	f.Secure.Variant = model.FreshBlock{AuthKind: model.AuthRegular, Password: "abc"}

	conn := &recordConn{}
	req, err := d.Process(NewState("203.0.113.7"), bytes.NewBuffer(encodeFrame(t, f, enc)), conn)
	if req != nil || err == nil {
		t.Fatalf("got (%v, %v), want rejection", req, err)
	}
	if !bytes.Equal(conn.Bytes(), []byte{byte(model.StatusInvalidCredentials)}) || !conn.closed {
		t.Fatalf("response = %v closed=%v", conn.Bytes(), conn.closed)
	}
}

func TestDecodeReconnect(t *testing.T) {
	d, enc := newTestDecoder(t)
	f := validFrame()
	f.Kind = model.FrameReconnecting
	f.Secure.Variant = model.ReconnectBlock{PreviousSeed: [4]int32{-1, -2, -3, -4}}

	req, err := decodeAll(t, d, encodeFrame(t, f, enc))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !req.Reconnecting {
		t.Errorf("reconnecting = false")
	}
	if req.Credentials.Password != "" {
		t.Errorf("password = %q, want empty", req.Credentials.Password)
	}
	if req.Credentials.Username != "alice" || req.Checksums[8] != 9 {
		t.Errorf("stream misaligned after reconnect block: %+v", req.Credentials)
	}
	if req.PreviousSeed != [4]int32{-1, -2, -3, -4} {
		t.Errorf("previous seed = %v", req.PreviousSeed)
	}
}

func TestDecodeReconnectRejectsFreshLayout(t *testing.T) {
	d, enc := newTestDecoder(t)
	f := validFrame()
	// header says reconnecting but the secure block carries a short login layout
	f.Kind = model.FrameReconnecting
	f.Secure.Variant = model.FreshBlock{AuthKind: model.AuthRegular, Password: "pw"}

	_, err := decodeAll(t, d, encodeFrame(t, f, enc))
	if !IsKind(err, KindProtocolViolation) {
		t.Fatalf("err = %v, want protocol violation", err)
	}
}

func TestDecodeAuthKinds(t *testing.T) {
	d, enc := newTestDecoder(t)

	for _, kind := range []model.AuthKind{
		model.AuthTrustedComputer,
		model.AuthAuthenticator,
		model.AuthTrustedAuthenticator,
		model.AuthRegular,
		7,
	} {
		f := validFrame()
		f.Secure.Variant = model.FreshBlock{AuthKind: kind, AuthCode: 123456, Password: "hunter22"}

		req, err := decodeAll(t, d, encodeFrame(t, f, enc))
		if err != nil {
			t.Errorf("auth kind %d: %v", kind, err)
			continue
		}
		if req.Credentials.Password != "hunter22" || req.Credentials.Username != "alice" {
			t.Errorf("auth kind %d: misaligned, credentials = %+v", kind, req.Credentials)
		}
	}
}

func TestDecodeSecureCheckMismatch(t *testing.T) {
	d, enc := newTestDecoder(t)
	f := validFrame()
	f.Secure.Check = 2

	conn := &recordConn{}
	_, err := d.Process(NewState("203.0.113.7"), bytes.NewBuffer(encodeFrame(t, f, enc)), conn)
	if !IsKind(err, KindProtocolViolation) {
		t.Fatalf("err = %v, want protocol violation", err)
	}
	if !bytes.Equal(conn.Bytes(), []byte{byte(model.StatusLoginServerRejectedSession)}) {
		t.Fatalf("response = %v", conn.Bytes())
	}
}

func TestDecodeVersionMismatch(t *testing.T) {
	d, enc := newTestDecoder(t)
	f := validFrame()
	f.VersionBlock = machineInfo(testMachineInfoVersion - 1)

	conn := &recordConn{}
	_, err := d.Process(NewState("203.0.113.7"), bytes.NewBuffer(encodeFrame(t, f, enc)), conn)
	if !IsKind(err, KindVersionMismatch) {
		t.Fatalf("err = %v, want version mismatch", err)
	}
	if !bytes.Equal(conn.Bytes(), []byte{byte(model.StatusGameUpdated)}) || !conn.closed {
		t.Fatalf("response = %v closed=%v", conn.Bytes(), conn.closed)
	}
}

func TestDecodeTruncatedPayload(t *testing.T) {
	d, _ := newTestDecoder(t)

	tests := map[string][]byte{
		"short prefix":         {byte(model.FrameStandard), 0, 4, 0, 0, 0, 180},
		"secure past end":      {byte(model.FrameStandard), 0, 11, 0, 0, 0, 180, 0, 0, 0, 1, 0, 0, 50},
		"undecryptable secure": {byte(model.FrameStandard), 0, 13, 0, 0, 0, 180, 0, 0, 0, 1, 0, 0, 2, 0, 0},
	}
	for name, data := range tests {
		_, err := decodeAll(t, d, data)
		if !IsKind(err, KindProtocolViolation) {
			t.Errorf("%s: err = %v, want protocol violation", name, err)
		}
	}
}

func TestDecodeAfterDone(t *testing.T) {
	d, enc := newTestDecoder(t)
	st := NewState("203.0.113.7")
	in := bytes.NewBuffer(encodeFrame(t, validFrame(), enc))
	if _, err := d.Decode(st, in); err != nil {
		t.Fatalf("Decode: %v", err)
	}

	in.Write([]byte{byte(model.FrameStandard), 0, 0})
	if _, err := d.Decode(st, in); !errors.Is(err, ErrFinished) {
		t.Fatalf("err = %v, want ErrFinished", err)
	}
}

func TestDerivePairValueSemantics(t *testing.T) {
	seed := [4]int32{1, 2, 3, 4}
	p := derivePair(isaac.New, seed)

	if got := p.Decode.Seed(); got != [4]int32{1, 2, 3, 4} {
		t.Errorf("decode seed = %v", got)
	}
	if got := p.Encode.Seed(); got != [4]int32{51, 52, 53, 54} {
		t.Errorf("encode seed = %v", got)
	}
	if seed != [4]int32{1, 2, 3, 4} {
		t.Errorf("caller seed mutated: %v", seed)
	}
}

func TestDecoderUsesCollaborators(t *testing.T) {
	var seeds [][4]int32
	var deciphered int
	d, enc := newTestDecoder(t,
		WithGeneratorFactory(func(seed [4]int32) *isaac.Generator {
			seeds = append(seeds, seed)
			return isaac.New(seed)
		}),
	)
	inner := d.decipher
	WithStreamDecipher(func(buf []byte, key [4]int32) error {
		deciphered = len(buf)
		return inner(buf, key)
	})(d)

	if _, err := decodeAll(t, d, encodeFrame(t, validFrame(), enc)); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(seeds) != 2 || seeds[0] != [4]int32{10, 20, 30, 40} || seeds[1] != [4]int32{60, 70, 80, 90} {
		t.Fatalf("generator seeds = %v", seeds)
	}
	if deciphered == 0 {
		t.Fatalf("stream decipher not invoked")
	}
}

func TestProcessEmitsEvents(t *testing.T) {
	var events []model.LoginEvent
	d, enc := newTestDecoder(t, WithEventSink(SinkFunc(func(ev model.LoginEvent) {
		events = append(events, ev)
	})))

	conn := &recordConn{}
	req, err := d.Process(NewState("203.0.113.7"), bytes.NewBuffer(encodeFrame(t, validFrame(), enc)), conn)
	if err != nil || req == nil {
		t.Fatalf("Process: (%v, %v)", req, err)
	}
	if conn.Len() != 0 || conn.closed {
		t.Fatalf("accepted login wrote %v closed=%v", conn.Bytes(), conn.closed)
	}

	bad := validFrame()
	bad.Username = ""
	_, _ = d.Process(NewState("198.51.100.1"), bytes.NewBuffer(encodeFrame(t, bad, enc)), &recordConn{})

	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].Kind != model.EventAccepted || events[0].Username != "alice" {
		t.Errorf("first event = %+v", events[0])
	}
	if events[1].Kind != model.EventRejected || events[1].Status != model.StatusInvalidCredentials ||
		events[1].Reason != KindInvalidCredentials.String() || events[1].Address != "198.51.100.1" {
		t.Errorf("second event = %+v", events[1])
	}
}
