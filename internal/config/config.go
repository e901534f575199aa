package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"login_gateway/internal/cryptographic/rsa"
)

type (
	Config struct {
		GatewayAddr    string `json:"gateway_addr"`
		OpsAddr        string `json:"ops_addr"`
		ReadBufferSize int    `json:"read_buffer_size"`

		// HandshakeTimeout bounds how long a client may take to send its
		// login frame. Zero disables the deadline.
		HandshakeTimeout Duration `json:"handshake_timeout"`

		Log LogConfig `json:"log"`
		RSA RSAConfig `json:"rsa"`

		// MachineInfoVersion is the client machine-info block version the
		// gateway accepts; anything else is told the game has updated.
		MachineInfoVersion uint8 `json:"machine_info_version"`

		Mongo MongoConfig `json:"mongo"`
		Redis RedisConfig `json:"redis"`

		SessionTTL    Duration `json:"session_ttl"`
		SessionSecret string   `json:"session_secret"`
		AutoRegister  bool     `json:"auto_register"`
	}

	LogConfig struct {
		Level       string `json:"level"`
		Development bool   `json:"development"`
	}

	// RSAConfig takes either a PEM file or a hex modulus and private exponent.
	RSAConfig struct {
		KeyFile  string `json:"key_file"`
		Modulus  string `json:"modulus"`
		Exponent string `json:"exponent"`
	}

	MongoConfig struct {
		URI      string `json:"uri"`
		Database string `json:"database"`
	}

	RedisConfig struct {
		Addr     string `json:"addr"`
		Password string `json:"password"`
		DB       int    `json:"db"`
	}

	// Duration reads "90s" style strings from JSON.
	Duration struct {
		time.Duration
	}
)

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func Default() *Config {
	return &Config{
		GatewayAddr:        "0.0.0.0:43594",
		OpsAddr:            "localhost:9090",
		ReadBufferSize:     4096,
		HandshakeTimeout:   Duration{30 * time.Second},
		Log:                LogConfig{Level: "info"},
		MachineInfoVersion: 6,
		Mongo: MongoConfig{
			URI:      "mongodb://localhost:27017",
			Database: "game",
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		SessionTTL: Duration{2 * time.Hour},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.GatewayAddr == "" {
		return errors.New("config: gateway_addr is empty")
	}
	if c.OpsAddr == "" {
		return errors.New("config: ops_addr is empty")
	}
	if c.ReadBufferSize <= 0 {
		return errors.New("config: read_buffer_size must be positive")
	}
	if c.HandshakeTimeout.Duration < 0 {
		return errors.New("config: handshake_timeout is negative")
	}
	if c.RSA.KeyFile == "" && (c.RSA.Modulus == "" || c.RSA.Exponent == "") {
		return errors.New("config: rsa needs key_file or modulus and exponent")
	}
	if c.SessionSecret == "" {
		return errors.New("config: session_secret is empty")
	}
	if c.SessionTTL.Duration <= 0 {
		return errors.New("config: session_ttl must be positive")
	}
	return nil
}

// Decrypter builds the secure-block decrypter from the configured key.
func (c *Config) Decrypter() (*rsa.Decrypter, error) {
	if c.RSA.KeyFile != "" {
		key, err := rsa.LoadPrivateKeyPEM(c.RSA.KeyFile)
		if err != nil {
			return nil, err
		}
		return rsa.FromPrivateKey(key)
	}
	return rsa.FromHex(c.RSA.Modulus, c.RSA.Exponent)
}
