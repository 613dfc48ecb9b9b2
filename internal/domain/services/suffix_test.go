package services

import (
	"strings"
	"testing"
)

func TestRegisteredDomain(t *testing.T) {
	s := NewDefaultSuffixList()

	tests := []struct {
		host string
		want string
	}{
		{"blog.example.co.uk", "example.co.uk"},
		{"example.co.uk", "example.co.uk"},
		{"www.example.com", "example.com"},
		{"example.com", "example.com"},
		{"a.b.c.example.com", "example.com"},
		{"paypa1-login.tk", "paypa1-login.tk"},
		{"192.168.1.1", "192.168.1.1"},
		{"[2001:db8::1]", "[2001:db8::1]"},
		{"2001:db8::1", "2001:db8::1"},
		{"localhost", "localhost"},
		{"EXAMPLE.COM", "example.com"},
		{"example.com.", "example.com"},
		// unknown suffix falls back to last two labels
		{"foo.bar.unknowntld", "bar.unknowntld"},
	}
	for _, tt := range tests {
		if got := s.RegisteredDomain(tt.host); got != tt.want {
			t.Errorf("RegisteredDomain(%q) = %q, want %q", tt.host, got, tt.want)
		}
	}
}

func TestRegisteredDomainWildcardAndException(t *testing.T) {
	s := NewSuffixList([]string{"com", "*.ck", "!www.ck"})

	tests := []struct {
		host string
		want string
	}{
		// *.ck makes bar.ck a public suffix
		{"foo.bar.ck", "foo.bar.ck"},
		// exception rule wins over the wildcard
		{"www.ck", "www.ck"},
		{"sub.www.ck", "www.ck"},
	}
	for _, tt := range tests {
		if got := s.RegisteredDomain(tt.host); got != tt.want {
			t.Errorf("RegisteredDomain(%q) = %q, want %q", tt.host, got, tt.want)
		}
	}
}

func TestParseSuffixList(t *testing.T) {
	input := strings.NewReader(`
// comment line
com
co.uk

*.ck
!www.ck
`)
	s, err := ParseSuffixList(input)
	if err != nil {
		t.Fatalf("ParseSuffixList: %v", err)
	}
	if got := s.RegisteredDomain("shop.example.co.uk"); got != "example.co.uk" {
		t.Errorf("RegisteredDomain(shop.example.co.uk) = %q, want example.co.uk", got)
	}
	if got := s.RegisteredDomain("www.ck"); got != "www.ck" {
		t.Errorf("exception rule not honored, got %q", got)
	}
}
