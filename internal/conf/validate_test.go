package conf_test

import (
	"errors"
	"testing"

	"github.com/heycatch/wirewizard/internal/conf"
)

func TestValidateName(t *testing.T) {
	valid := []string{
		"a",
		"wg",
		"wg0",
		"home-vpn",
		"office.eu_1",
		"a=b+c.d-e",
		"abcdefghijklmnopq", // 17 chars, the maximum
	}
	for _, name := range valid {
		if err := conf.ValidateName(name); err != nil {
			t.Errorf("ValidateName(%q) = %v, want nil", name, err)
		}
	}

	invalid := []string{
		"-wg0",
		"wg0-",
		".hidden",
		"wg 0",
		"wg/0",
		"tünnel",
		"abcdefghijklmnopqr", // 18 chars
	}
	for _, name := range invalid {
		if err := conf.ValidateName(name); !errors.Is(err, conf.ErrInvalidName) {
			t.Errorf("ValidateName(%q) = %v, want ErrInvalidName", name, err)
		}
	}

	if err := conf.ValidateName(""); !errors.Is(err, conf.ErrEmptyName) {
		t.Errorf("ValidateName(\"\") = %v, want ErrEmptyName", err)
	}
}
