package wg_test

import (
	"testing"

	"github.com/heycatch/wirewizard/internal/wg"
)

func TestGenerateKeyPair(t *testing.T) {
	priv, pub, err := wg.GenerateKeyPair()
	if err != nil {
		t.Fatal(err)
	}
	if priv == "" || pub == "" {
		t.Fatalf("empty key material: priv=%q pub=%q", priv, pub)
	}
	if priv == pub {
		t.Fatal("private and public key are identical")
	}
}

func TestPublicKeyFromPrivate_MatchesGenerated(t *testing.T) {
	priv, pub, err := wg.GenerateKeyPair()
	if err != nil {
		t.Fatal(err)
	}

	derived, err := wg.PublicKeyFromPrivate(priv)
	if err != nil {
		t.Fatal(err)
	}
	if derived != pub {
		t.Fatalf("derived public key %q does not match generated %q", derived, pub)
	}
}

func TestPublicKeyFromPrivate_Invalid(t *testing.T) {
	for _, in := range []string{"", "not-base64!!", "dG9vc2hvcnQ="} {
		if _, err := wg.PublicKeyFromPrivate(in); err == nil {
			t.Errorf("PublicKeyFromPrivate(%q): expected error", in)
		}
	}
}

func TestGeneratePresharedKey_Unique(t *testing.T) {
	a, err := wg.GeneratePresharedKey()
	if err != nil {
		t.Fatal(err)
	}
	b, err := wg.GeneratePresharedKey()
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Fatal("two preshared keys are identical")
	}
}
