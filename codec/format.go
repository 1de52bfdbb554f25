// Package codec checks and synthesizes the string formats that string
// patterns may declare.
package codec

import (
	"fmt"
	"math/rand/v2"
	"net/netip"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Format validates and generates one string format.
type Format struct {
	Name     string
	Check    func(s string) error
	Generate func(rng *rand.Rand) string
	// Sized generates a value exactly n bytes long. It is nil for formats
	// with a fixed length and reports false when n is too short.
	Sized func(rng *rand.Rand, n int) (string, bool)
}

var formats = map[string]Format{
	"date-time": {Name: "date-time", Check: checkRFC3339, Generate: genDateTime},
	"date":      {Name: "date", Check: checkDate, Generate: genDate},
	"uuid":      {Name: "uuid", Check: checkUUID, Generate: genUUID},
	"email":     {Name: "email", Check: tagCheck("email"), Generate: genEmail, Sized: sizedEmail},
	"hostname":  {Name: "hostname", Check: tagCheck("hostname_rfc1123"), Generate: genHostname, Sized: sizedHostname},
	"ipv4":      {Name: "ipv4", Check: tagCheck("ipv4"), Generate: genIPv4},
	"ipv6":      {Name: "ipv6", Check: tagCheck("ipv6"), Generate: genIPv6},
	"uri":       {Name: "uri", Check: tagCheck("uri"), Generate: genURI, Sized: sizedURI},
}

// Lookup returns the Format registered under name.
func Lookup(name string) (Format, bool) {
	f, ok := formats[name]
	return f, ok
}

// Known reports whether name is a supported format.
func Known(name string) bool {
	_, ok := formats[name]
	return ok
}

// ParseRFC3339 accepts RFC3339Nano (trailing zeros optional) and RFC3339.
func ParseRFC3339(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		if t2, err2 := time.Parse(time.RFC3339, s); err2 == nil {
			return t2, nil
		}
		return time.Time{}, err
	}
	return t, nil
}

// FormatRFC3339Canonical normalizes to UTC and formats using RFC3339Nano
// (Go trims trailing zeros).
func FormatRFC3339Canonical(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func checkRFC3339(s string) error {
	if _, err := ParseRFC3339(s); err != nil {
		return fmt.Errorf("invalid RFC3339 time: %w", err)
	}
	return nil
}

func checkDate(s string) error {
	if _, err := time.Parse(time.DateOnly, s); err != nil {
		return fmt.Errorf("invalid date: %w", err)
	}
	return nil
}

// uuid.Parse also takes the urn: and braced forms; only the plain 36
// character form is a uuid string.
func checkUUID(s string) error {
	if _, err := uuid.Parse(s); err != nil || len(s) != 36 {
		return fmt.Errorf("invalid uuid %q", s)
	}
	return nil
}

// tags is safe for concurrent use and caches nothing per call.
var tags = validator.New()

func tagCheck(tag string) func(string) error {
	return func(s string) error {
		if err := tags.Var(s, tag); err != nil {
			return fmt.Errorf("invalid %s %q", tag, s)
		}
		return nil
	}
}

// base is the fixed origin for generated timestamps so output stays in a
// plausible range.
var base = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

func intN(rng *rand.Rand, n int) int {
	if rng != nil {
		return rng.IntN(n)
	}
	return rand.IntN(n)
}

func genDateTime(rng *rand.Rand) string {
	return FormatRFC3339Canonical(base.Add(time.Duration(intN(rng, 5*365*24*3600)) * time.Second))
}

func genDate(rng *rand.Rand) string {
	return base.AddDate(0, 0, intN(rng, 5*365)).Format(time.DateOnly)
}

// rngReader feeds uuid generation from the resolver's source so seeded runs
// repeat.
type rngReader struct{ rng *rand.Rand }

func (r rngReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = byte(intN(r.rng, 256))
	}
	return len(p), nil
}

func genUUID(rng *rand.Rand) string {
	return uuid.Must(uuid.NewRandomFromReader(rngReader{rng})).String()
}

const letters = "abcdefghijklmnopqrstuvwxyz"

func word(rng *rand.Rand, n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = letters[intN(rng, len(letters))]
	}
	return string(b)
}

func genEmail(rng *rand.Rand) string { return word(rng, 6) + "@example.com" }

func genHostname(rng *rand.Rand) string { return word(rng, 8) + ".example.com" }

func genURI(rng *rand.Rand) string { return "https://example.com/" + word(rng, 8) }

func sizedEmail(rng *rand.Rand, n int) (string, bool) {
	for _, domain := range []string{"@example.com", "@x.io"} {
		if n > len(domain) {
			return word(rng, n-len(domain)) + domain, true
		}
	}
	return "", false
}

// Labels stay under the 63 byte limit.
func sizedHostname(rng *rand.Rand, n int) (string, bool) {
	if n < 1 {
		return "", false
	}
	b := []byte(word(rng, n))
	for i := 60; i < n-1; i += 61 {
		b[i] = '.'
	}
	return string(b), true
}

func sizedURI(rng *rand.Rand, n int) (string, bool) {
	for _, prefix := range []string{"https://example.com/", "x:"} {
		if n > len(prefix) {
			return prefix + word(rng, n-len(prefix)), true
		}
	}
	return "", false
}

func genIPv4(rng *rand.Rand) string {
	var b [4]byte
	_, _ = rngReader{rng}.Read(b[:])
	b[0] = 10
	return netip.AddrFrom4(b).String()
}

func genIPv6(rng *rand.Rand) string {
	var b [16]byte
	_, _ = rngReader{rng}.Read(b[:])
	b[0], b[1] = 0xfd, 0x00
	return netip.AddrFrom16(b).String()
}
