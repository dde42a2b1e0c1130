// Package classifier decides whether an access-log line records a checkout
// page hit and extracts the checkout flow, transaction id, and client address.
package classifier

import (
	"regexp"
	"strings"
)

// Flow identifies a checkout flow.
type Flow string

const (
	// FlowHobbit is the checkout reached via payment/<id>.
	FlowHobbit Flow = "hobbit"

	// FlowColumbus is the checkout reached via order/profiles/<id>/payments/new.
	FlowColumbus Flow = "columbus"
)

// Flows lists all flows in report order.
var Flows = []Flow{FlowHobbit, FlowColumbus}

// Reason records why a line was or was not extracted.
type Reason string

const (
	ReasonExtracted     Reason = "extracted"
	ReasonStatus        Reason = "status"
	ReasonPath          Reason = "path"
	ReasonURLMismatch   Reason = "url"
	ReasonMissingClient Reason = "address"
)

// Reasons lists all reasons in pipeline order.
var Reasons = []Reason{ReasonStatus, ReasonPath, ReasonURLMismatch, ReasonMissingClient, ReasonExtracted}

// Substrings checked before any pattern matching.
const (
	statusOK       = ":200,"
	hobbitMarker   = "/payment/"
	columbusMarker = "/payments/new"
)

var (
	// Capture groups: 1 = hobbit id, 2 = columbus id. Exactly one participates.
	urlPattern = regexp.MustCompile(
		`requestUrl":"https?://[^"]+/(?:payment/([a-fA-F0-9-]{36})|order/profiles/([a-fA-F0-9-]{36})/payments/new)"`)

	addrPattern = regexp.MustCompile(`remoteIp":"(\d{1,3}(?:\.\d{1,3}){3})"`)
)

// Extraction is the relevant content of a checkout log line.
type Extraction struct {
	Flow Flow
	ID   string
	Addr string
}

// Classify returns the extraction for line, or false if the line is not a
// successful checkout hit with a client address.
func Classify(line string) (Extraction, bool) {
	ext, reason := Inspect(line)
	return ext, reason == ReasonExtracted
}

// Inspect classifies line and reports the stage that rejected it.
// The Extraction is only valid when the reason is ReasonExtracted.
func Inspect(line string) (Extraction, Reason) {
	if !strings.Contains(line, statusOK) {
		return Extraction{}, ReasonStatus
	}
	if !strings.Contains(line, hobbitMarker) && !strings.Contains(line, columbusMarker) {
		return Extraction{}, ReasonPath
	}

	m := urlPattern.FindStringSubmatch(line)
	if m == nil {
		return Extraction{}, ReasonURLMismatch
	}

	// A payment line without a client address is not counted at all.
	addr := addrPattern.FindStringSubmatch(line)
	if addr == nil {
		return Extraction{}, ReasonMissingClient
	}

	ext := Extraction{Addr: addr[1]}
	if m[1] != "" {
		ext.Flow = FlowHobbit
		ext.ID = m[1]
	} else {
		ext.Flow = FlowColumbus
		ext.ID = m[2]
	}
	return ext, ReasonExtracted
}
