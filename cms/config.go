package cms

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Setting keys read from Settings.
const (
	KeyBase   = "cms_base"
	KeyCard   = "cms_card"
	KeyFilter = "cms_filter"
)

// Defaults used when a key is absent.
const (
	DefaultBase   = 0x220
	DefaultCard   = CardGameBlaster
	DefaultFilter = "on"
)

// Card selects the hardware variant.
type Card string

const (
	// CardGameBlaster is the standalone card with the detection register.
	CardGameBlaster Card = "gb"
	// CardAddOn is the chip pair fitted to another card, without the
	// detection register.
	CardAddOn Card = "cms"
)

var (
	ErrInvalidCard = errors.New("invalid card type")
	ErrInvalidPort = errors.New("invalid base port")
)

// validPorts lists the base ports each card can be jumpered to.
var validPorts = map[Card][]uint16{
	CardGameBlaster: {0x210, 0x220, 0x230, 0x240, 0x250, 0x260},
	CardAddOn:       {0x220, 0x240, 0x260, 0x280, 0x2A0, 0x2C0, 0x2E0, 0x300},
}

// HasDetection reports whether the card carries the detection register.
func (c Card) HasDetection() bool {
	return c == CardGameBlaster
}

// PortValid reports whether base is a legal base port for the card.
func (c Card) PortValid(base uint16) bool {
	for _, p := range validPorts[c] {
		if p == base {
			return true
		}
	}
	return false
}

// Config is the validated configuration a device is opened with.
type Config struct {
	Base   uint16
	Card   Card
	Filter string
}

// Settings is the configuration store the device reads from and writes
// corrected values back to.
type Settings interface {
	GetString(key string) string
	SetString(key, value string)
}

// Options is a Settings backed by a string map, the form front ends pass
// core options in.
type Options map[string]string

// GetString returns the value for key, or "" if unset.
func (o Options) GetString(key string) string {
	return o[key]
}

// SetString stores value under key.
func (o Options) SetString(key, value string) {
	o[key] = value
}

// LoadConfig reads and validates the device settings. Missing keys take
// their defaults.
func LoadConfig(s Settings) (Config, error) {
	cfg := Config{
		Base:   DefaultBase,
		Card:   DefaultCard,
		Filter: DefaultFilter,
	}

	if v := strings.TrimSpace(s.GetString(KeyBase)); v != "" {
		base, err := parseHex(v)
		if err != nil {
			return Config{}, fmt.Errorf("%w: %q", ErrInvalidPort, v)
		}
		cfg.Base = base
	}

	if v := strings.TrimSpace(s.GetString(KeyCard)); v != "" {
		cfg.Card = Card(strings.ToLower(v))
	}
	if _, ok := validPorts[cfg.Card]; !ok {
		return Config{}, fmt.Errorf("%w: %q", ErrInvalidCard, cfg.Card)
	}
	if !cfg.Card.PortValid(cfg.Base) {
		return Config{}, fmt.Errorf("%w: 0x%03x not available on %s card", ErrInvalidPort, cfg.Base, cfg.Card)
	}

	if v := strings.TrimSpace(s.GetString(KeyFilter)); v != "" {
		cfg.Filter = v
	}
	return cfg, nil
}

// parseHex accepts "220", "0x220" and "220h".
func parseHex(s string) (uint16, error) {
	s = strings.ToLower(s)
	s = strings.TrimPrefix(s, "0x")
	s = strings.TrimSuffix(s, "h")
	v, err := strconv.ParseUint(s, 16, 16)
	return uint16(v), err
}

// parseSwitch interprets boolean-like filter settings.
func parseSwitch(s string) (on, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on", "true", "yes", "1":
		return true, true
	case "off", "false", "no", "0":
		return false, true
	}
	return false, false
}
