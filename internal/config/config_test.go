package config

import (
	"path"
	"testing"
	"time"
)

func TestGetConfig(t *testing.T) {
	c, err := GetConfig(Defaults(), path.Join("..", "..", "testdata", "test.json"))
	if err != nil {
		t.Fatalf("got error when reading config file: %v", err)
	}
	if c == nil {
		t.Fatal("got a nil config object")
	}
	if c.Format != FormatJSON {
		t.Fatalf("wrong format %q", c.Format)
	}
	if !c.ResolveDNS {
		t.Fatal("resolveDNS not set")
	}
	if c.DnsTimeout.Duration != 5*time.Second {
		t.Fatalf("wrong dns timeout %s", c.DnsTimeout)
	}
	// not in the file, keeps the default
	if c.Color != ColorAuto {
		t.Fatalf("wrong color %q", c.Color)
	}
}

func TestGetConfigErrors(t *testing.T) {
	_, err := GetConfig(Defaults(), "")
	if err == nil {
		t.Fatal("expected error on empty filename")
	}
	_, err = GetConfig(Defaults(), "this_does_not_exist")
	if err == nil {
		t.Fatal("expected error on invalid file")
	}
}

func TestGetConfigInvalid(t *testing.T) {
	_, err := GetConfig(Defaults(), path.Join("..", "..", "testdata", "invalid.json"))
	if err == nil {
		t.Fatal("expected error when reading config file but got none")
	}
}

func TestValidate(t *testing.T) {
	c := Defaults()
	if err := c.Validate(); err != nil {
		t.Fatalf("defaults do not validate: %v", err)
	}

	c.Color = "sometimes"
	if err := c.Validate(); err == nil {
		t.Fatal("expected error on invalid color")
	}

	c = Defaults()
	c.DnsServer = "not a server"
	if err := c.Validate(); err == nil {
		t.Fatal("expected error on invalid dns server")
	}

	c = Defaults()
	c.DnsServer = "127.0.0.1:53"
	if err := c.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
