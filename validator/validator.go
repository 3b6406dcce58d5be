// Package validator checks that a candidate string is a well-formed URL on an allowed host.
package validator

import (
	"net/url"
	"strings"

	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/ytrelay/ytrelay/video"
)

// DefaultHosts is the host whitelist used when none is configured.
var DefaultHosts = []string{"youtube.com", "www.youtube.com", "youtu.be"}

// Validator holds an immutable host whitelist.
type Validator struct {
	hosts []string
}

// New returns a Validator accepting the given hosts. An empty list falls back to DefaultHosts.
func New(hosts []string) *Validator {
	normalized := lo.Uniq(lo.FilterMap(hosts, func(h string, _ int) (string, bool) {
		h = strings.ToLower(strings.TrimSpace(h))
		return h, h != ""
	}))
	if len(normalized) == 0 {
		normalized = append([]string(nil), DefaultHosts...)
	}
	return &Validator{hosts: normalized}
}

// Hosts returns a copy of the whitelist.
func (v *Validator) Hosts() []string {
	return append([]string(nil), v.hosts...)
}

// Validate returns the validated URL, or None when raw does not parse, lacks a scheme or host,
// or names a host outside the whitelist. It never panics and performs no I/O.
func (v *Validator) Validate(raw string) mo.Option[video.URL] {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return mo.None[video.URL]()
	}

	host := strings.ToLower(parsed.Hostname())
	if !lo.Contains(v.hosts, host) {
		return mo.None[video.URL]()
	}

	return mo.Some(video.URL{Raw: raw, Parsed: parsed, Host: host})
}

// Valid is a convenience for callers that only need the verdict.
func (v *Validator) Valid(raw string) bool {
	return v.Validate(raw).IsPresent()
}
