package validate

import (
	"errors"
	"testing"

	"github.com/selimozcann/linkflow/internal/apperr"
)

func TestValidateInvalidInput(t *testing.T) {
	v := New(nil)
	inputs := []string{
		"",
		"   ",
		"not a url",
		"example.com/path",
		"/relative/only",
		"http://",
		"ftp://example.com/file",
		"javascript:alert(1)",
		"http://[::1",
	}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			_, err := v.Validate(in)
			if !errors.Is(err, apperr.ErrInvalidInput) {
				t.Fatalf("Validate(%q) err = %v, want invalid input", in, err)
			}
		})
	}
}

func TestValidateBlocked(t *testing.T) {
	v := New(nil)
	inputs := []string{
		"http://localhost/",
		"http://LocalHost:3000/admin",
		"http://127.0.0.1/",
		"https://127.10.0.1:8443/x",
		"http://192.168.0.10/",
		"http://10.0.0.5/metadata",
	}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			_, err := v.Validate(in)
			if !errors.Is(err, apperr.ErrBlockedTarget) {
				t.Fatalf("Validate(%q) err = %v, want blocked", in, err)
			}
		})
	}
}

func TestPrefixGuardIsCoarse(t *testing.T) {
	// The default guard only looks at hostname text.
	v := New(PrefixGuard{})
	for _, in := range []string{
		"http://169.254.169.254/latest/meta-data",
		"http://172.16.0.1/",
		"http://[::1]/",
		"http://10example.com/",
	} {
		if _, err := v.Validate(in); err != nil {
			t.Fatalf("Validate(%q) unexpected err: %v", in, err)
		}
	}
}

func TestCIDRGuard(t *testing.T) {
	v := New(CIDRGuard{})
	for _, in := range []string{
		"http://169.254.169.254/latest/meta-data",
		"http://172.16.0.1/",
		"http://[::1]/",
		"http://localhost/",
		"http://10.0.0.1/",
		"http://metadata.internal/",
	} {
		if _, err := v.Validate(in); !errors.Is(err, apperr.ErrBlockedTarget) {
			t.Fatalf("Validate(%q) err = %v, want blocked", in, err)
		}
	}
	if _, err := v.Validate("https://example.com/"); err != nil {
		t.Fatalf("public host rejected: %v", err)
	}
}

func TestValidateAccepts(t *testing.T) {
	v := New(nil)
	u, err := v.Validate("  https://example.com/a?b=c  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.String() != "https://example.com/a?b=c" {
		t.Fatalf("unexpected URL %s", u)
	}
}

func TestGuardFor(t *testing.T) {
	if _, ok := GuardFor("strict").(CIDRGuard); !ok {
		t.Fatalf("strict should map to CIDRGuard")
	}
	if _, ok := GuardFor("off").(AllowAllGuard); !ok {
		t.Fatalf("off should map to AllowAllGuard")
	}
	if _, ok := GuardFor("").(PrefixGuard); !ok {
		t.Fatalf("default should map to PrefixGuard")
	}
}
