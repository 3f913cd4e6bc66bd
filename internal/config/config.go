package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
)

type Duration struct {
	time.Duration
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		d.Duration = time.Duration(value)
		return nil
	case string:
		var err error
		d.Duration, err = time.ParseDuration(value)
		if err != nil {
			return err
		}
		return nil
	default:
		return errors.New("invalid duration")
	}
}

// Output formats
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatXML   = "xml"
)

// Color modes
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

type Configuration struct {
	Format            string   `json:"format" validate:"oneof=table json xml"`
	Color             string   `json:"color" validate:"oneof=auto always never"`
	ResolveDNS        bool     `json:"resolveDNS"`
	DnsServer         string   `json:"dnsServer" validate:"omitempty,hostname_port"`
	DnsConnectTimeout Duration `json:"dnsConnectTimeout"`
	DnsTimeout        Duration `json:"dnsTimeout"`
	DnsCacheTimeout   Duration `json:"dnsCacheTimeout"`
}

// Defaults returns the configuration used when no config file is given.
func Defaults() Configuration {
	return Configuration{
		Format: FormatTable,
		Color:  ColorAuto,
		DnsConnectTimeout: Duration{
			Duration: 1 * time.Second,
		},
		DnsTimeout: Duration{
			Duration: 10 * time.Second,
		},
		DnsCacheTimeout: Duration{
			Duration: 1 * time.Hour,
		},
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the option values, it is also called by GetConfig.
func (c *Configuration) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid value %q for %s", fe.Value(), fe.Field())
		}
		return err
	}
	if c.DnsTimeout.Duration <= 0 || c.DnsConnectTimeout.Duration <= 0 {
		return errors.New("dns timeouts must be positive")
	}
	return nil
}

func GetConfig(defaults Configuration, f string) (*Configuration, error) {
	if f == "" {
		return nil, fmt.Errorf("please provide a valid config file")
	}

	b, err := os.ReadFile(f) // nolint: gosec
	if err != nil {
		return nil, err
	}
	reader := bytes.NewReader(b)

	decoder := json.NewDecoder(reader)
	decoder.DisallowUnknownFields()
	if err = decoder.Decode(&defaults); err != nil {
		return nil, err
	}

	if err := defaults.Validate(); err != nil {
		return nil, err
	}

	return &defaults, nil
}
