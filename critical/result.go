package critical

import (
	"errors"

	"critcss/browser"
	"critcss/markup"
)

// Result of a page transformation.
// ENUM(unchanged, success)
type Outcome int

// Result carries transformed page. When Outcome is unchanged HTML is the
// original markup byte for byte, Tags is empty and Err tells why.
type Result struct {
	Outcome Outcome
	HTML    string
	Tags    []markup.InjectionTag
	Err     error
}

// Apply places injection tags into result markup.
func (r Result) Apply() (string, error) {
	if r.Outcome != OutcomeSuccess {
		return r.HTML, nil
	}
	return markup.Apply(r.HTML, r.Tags)
}

// IsTimeout reports if page was left unchanged because it did not settle in
// time.
func (r Result) IsTimeout() bool {
	return errors.Is(r.Err, browser.ErrTimeout)
}
