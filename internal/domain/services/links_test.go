package services

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestExtractLinks(t *testing.T) {
	x := NewLinkExtractor(NewDefaultSuffixList())

	body := "Check https://example.com/a, then http://bit.ly/x! Also www.test.co.uk/path."
	links := x.ExtractLinks(body)

	var got []string
	for _, l := range links {
		got = append(got, l.Original)
	}
	want := []string{"https://example.com/a", "http://bit.ly/x", "www.test.co.uk/path"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("extracted URLs mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractLinksNone(t *testing.T) {
	x := NewLinkExtractor(NewDefaultSuffixList())
	if links := x.ExtractLinks("no urls in this text at all"); len(links) != 0 {
		t.Errorf("ExtractLinks = %v, want none", links)
	}
}

func TestParseLink(t *testing.T) {
	x := NewLinkExtractor(NewDefaultSuffixList())

	link, err := x.ParseLink("HTTP://User@Blog.Example.co.uk:8080/Login?a=1&b=2")
	if err != nil {
		t.Fatalf("ParseLink: %v", err)
	}
	if link.Scheme != "http" {
		t.Errorf("Scheme = %q, want http", link.Scheme)
	}
	if link.Host != "blog.example.co.uk" {
		t.Errorf("Host = %q, want blog.example.co.uk", link.Host)
	}
	if link.RegisteredDomain != "example.co.uk" {
		t.Errorf("RegisteredDomain = %q, want example.co.uk", link.RegisteredDomain)
	}
	if link.Port != "8080" {
		t.Errorf("Port = %q, want 8080", link.Port)
	}
	if !link.HasUserInfo {
		t.Error("HasUserInfo = false, want true")
	}
	if link.Query["a"] != "1" || link.Query["b"] != "2" {
		t.Errorf("Query = %v", link.Query)
	}
}

func TestParseLinkBareHost(t *testing.T) {
	x := NewLinkExtractor(NewDefaultSuffixList())

	link, err := x.ParseLink("www.example.com/path")
	if err != nil {
		t.Fatalf("ParseLink: %v", err)
	}
	if link.Scheme != "https" {
		t.Errorf("Scheme = %q, want https for bare host", link.Scheme)
	}
	if link.Host != "www.example.com" {
		t.Errorf("Host = %q", link.Host)
	}
}

func TestParseLinkInvalid(t *testing.T) {
	x := NewLinkExtractor(NewDefaultSuffixList())
	if _, err := x.ParseLink("https://"); err == nil {
		t.Error("ParseLink(https://) succeeded, want error")
	}
}
