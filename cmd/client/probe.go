package main

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"login_gateway/internal/cryptographic/rsa"
	"login_gateway/internal/model"
	"login_gateway/internal/protocol/login"
	"login_gateway/internal/protocol/version"
	"login_gateway/internal/utils/log"

	"go.uber.org/zap"
	"golang.org/x/crypto/cryptobyte"
)

const probeTimeout = 10 * time.Second

// probeOptions is bound from the parsed usage, so it names every option.
type probeOptions struct {
	Probe       bool   `docopt:"--probe"`
	Ops         string `docopt:"--ops"`
	Log         string `docopt:"--log"`
	Gateway     string `docopt:"--gateway"`
	Key         string `docopt:"--key"`
	Release     string `docopt:"--release"`
	MachineInfo string `docopt:"--machine-info"`
	Reconnect   bool   `docopt:"--reconnect"`
	Previous    string `docopt:"--previous"`
	Help        bool   `docopt:"--help"`
	Username    string `docopt:"<username>"`
	Password    string `docopt:"<password>"`
}

func runProbe(p probeOptions) error {
	pub, err := rsa.LoadPublicKeyPEM(p.Key)
	if err != nil {
		return err
	}

	frame, err := probeFrame(p)
	if err != nil {
		return err
	}
	data, err := frame.Encode(rsa.NewEncrypter(pub))
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}

	conn, err := net.DialTimeout("tcp", p.Gateway, probeTimeout)
	if err != nil {
		return err
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(probeTimeout))

	if _, err := conn.Write(data); err != nil {
		return fmt.Errorf("send frame: %w", err)
	}

	status := make([]byte, 1)
	if _, err := io.ReadFull(conn, status); err != nil {
		return fmt.Errorf("read status: %w", err)
	}

	s := model.Status(status[0])
	log.Debug("probe answered", zap.String("username", p.Username), zap.Uint8("status", status[0]))
	fmt.Printf("%d %s seed=%s\n", s, s, formatSeed(frame.Secure.Seed))
	if !s.Accepted() {
		return fmt.Errorf("login refused: %s", s)
	}
	return nil
}

func probeFrame(p probeOptions) (*login.ClientFrame, error) {
	release, err := strconv.ParseUint(p.Release, 10, 32)
	if err != nil {
		return nil, fmt.Errorf("bad --release: %w", err)
	}
	machineInfo, err := strconv.ParseUint(p.MachineInfo, 10, 8)
	if err != nil {
		return nil, fmt.Errorf("bad --machine-info: %w", err)
	}

	var raw [16]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return nil, err
	}
	var seed [4]int32
	for i := range seed {
		seed[i] = int32(binary.BigEndian.Uint32(raw[i*4:]))
	}

	var variant model.SecureVariant = model.FreshBlock{
		AuthKind: model.AuthRegular,
		Password: p.Password,
	}
	kind := model.FrameStandard
	if p.Reconnect {
		previous, err := parseSeed(p.Previous)
		if err != nil {
			return nil, fmt.Errorf("bad --previous: %w", err)
		}
		kind = model.FrameReconnecting
		variant = model.ReconnectBlock{PreviousSeed: previous}
	}

	var vb cryptobyte.Builder
	version.MachineInfo{Version: uint8(machineInfo)}.Append(&vb, []byte("probe"))
	info, err := vb.Bytes()
	if err != nil {
		return nil, err
	}

	return &login.ClientFrame{
		Kind:            kind,
		Release:         uint32(release),
		ProtocolVersion: 1,
		ClientType:      model.ClientDesktop,
		Secure: model.SecureBlock{
			Check:   model.SecureCheck,
			Seed:    seed,
			Variant: variant,
		},
		Username:     p.Username,
		FrameWidth:   765,
		FrameHeight:  503,
		VersionBlock: info,
	}, nil
}

func formatSeed(seed [4]int32) string {
	parts := make([]string, len(seed))
	for i, v := range seed {
		parts[i] = strconv.FormatInt(int64(v), 10)
	}
	return strings.Join(parts, ",")
}

func parseSeed(v string) ([4]int32, error) {
	var seed [4]int32
	parts := strings.Split(v, ",")
	if len(parts) != len(seed) {
		return seed, fmt.Errorf("want %d comma-separated words, got %q", len(seed), v)
	}
	for i, part := range parts {
		n, err := strconv.ParseInt(strings.TrimSpace(part), 10, 32)
		if err != nil {
			return seed, err
		}
		seed[i] = int32(n)
	}
	return seed, nil
}
