package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Category identifies a class of personally identifiable information.
// The numeric order of the constants is the detection priority: a span
// claimed by an earlier category is never reconsidered by a later one.
type Category int

const (
	// CategoryEmail is an e-mail address.
	CategoryEmail Category = iota
	// CategoryPhone is a phone number.
	CategoryPhone
	// CategoryIP is a dotted-quad IPv4 address.
	CategoryIP
)

// Categories lists every category in detection priority order.
var Categories = []Category{CategoryEmail, CategoryPhone, CategoryIP}

// String returns the upper-case category name used in reports.
func (c Category) String() string {
	switch c {
	case CategoryEmail:
		return "EMAIL"
	case CategoryPhone:
		return "PHONE"
	case CategoryIP:
		return "IP"
	default:
		return "UNKNOWN"
	}
}

// Title returns the human-readable plural label of the category.
func (c Category) Title() string {
	switch c {
	case CategoryEmail:
		return "Email Addresses"
	case CategoryPhone:
		return "Phone Numbers"
	case CategoryIP:
		return "IP Addresses"
	default:
		return "Unknown"
	}
}

// Sentinel returns the literal token substituted for a masked span.
// Sentinels contain neither digits nor '@', so no pattern can re-flag them.
func (c Category) Sentinel() string {
	switch c {
	case CategoryEmail:
		return "|||EMAIL_ADDRESS|||"
	case CategoryPhone:
		return "|||PHONE_NUMBER|||"
	case CategoryIP:
		return "|||IP_ADDRESS|||"
	default:
		return "|||UNKNOWN|||"
	}
}

// ParseCategory converts a name such as "email" or "IP" into a Category.
func ParseCategory(s string) (Category, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "EMAIL":
		return CategoryEmail, nil
	case "PHONE":
		return CategoryPhone, nil
	case "IP":
		return CategoryIP, nil
	default:
		return 0, fmt.Errorf("unknown PII category %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler so categories serialize
// by name, including when used as map keys.
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Category) UnmarshalText(text []byte) error {
	parsed, err := ParseCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// PIIMatch is one span claimed by a detector category in one record.
// Context is cut from the text before masking, so reviewers see the
// real surroundings of the match.
type PIIMatch struct {
	// Category is the detector category that claimed the span.
	Category Category `json:"category"`

	// MatchedText is the original substring that was masked.
	MatchedText string `json:"matched_text"`

	// ContextBefore holds up to the configured number of characters
	// immediately preceding the match.
	ContextBefore string `json:"context_before"`

	// ContextAfter holds up to the configured number of characters
	// immediately following the match.
	ContextAfter string `json:"context_after"`

	// OriginURL is the URL of the record the match was found in.
	OriginURL string `json:"origin_url"`

	// Start and End are byte offsets of the span in the normalized text.
	Start int `json:"start"`
	End   int `json:"end"`
}

// Overlaps reports whether two matches share at least one byte.
func (m PIIMatch) Overlaps(other PIIMatch) bool {
	return m.Start < other.End && other.Start < m.End
}

// PIICounters accumulates the true number of matches per category over one run.
type PIICounters struct {
	Email int `json:"email"`
	Phone int `json:"phone"`
	IP    int `json:"ip"`
}

// Add increments the counter of the given category by n.
func (c *PIICounters) Add(category Category, n int) {
	switch category {
	case CategoryEmail:
		c.Email += n
	case CategoryPhone:
		c.Phone += n
	case CategoryIP:
		c.IP += n
	}
}

// Get returns the counter of the given category.
func (c PIICounters) Get(category Category) int {
	switch category {
	case CategoryEmail:
		return c.Email
	case CategoryPhone:
		return c.Phone
	case CategoryIP:
		return c.IP
	default:
		return 0
	}
}

// Total returns the sum of all category counters.
func (c PIICounters) Total() int {
	return c.Email + c.Phone + c.IP
}

// Merge adds other's counters into c.
func (c *PIICounters) Merge(other PIICounters) {
	c.Email += other.Email
	c.Phone += other.Phone
	c.IP += other.IP
}

// String renders the counters in a compact form for logs.
func (c PIICounters) String() string {
	data, _ := json.Marshal(c) //nolint:errcheck,errchkjson // plain struct of ints
	return string(data)
}
