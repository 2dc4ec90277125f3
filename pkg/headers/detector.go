// Package headers scores email header maps for authentication failures and
// identity-spoofing anomalies. Assess is a pure function of the header map:
// missing headers are treated as absent, every check runs independently, and
// the additive score is capped at 1.0.
package headers

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Check weights. No single check is fatal on its own; SPF and DKIM failures
// together already push the score to 0.8.
const (
	spfFailWeight     = 0.4
	dkimFailWeight    = 0.4
	replyToWeight     = 0.3
	displayNameWeight = 0.1
)

var reAngleAddr = regexp.MustCompile(`<([^>]+)>`)

// authorityKeywords are display-name tokens that impersonate authority or
// manufacture urgency ("IT Support", "Billing Alert", ...).
var authorityKeywords = []string{
	"support", "billing", "admin", "security", "alert", "account", "update",
}

// Assessment is the header-scoring result: a score in [0,1] and one anomaly
// string per triggered check, in check order.
type Assessment struct {
	Score     float64  `json:"header_risk_score"`
	Anomalies []string `json:"anomalies_detected"`
}

// Assess runs all header checks and accumulates their anomalies. Header
// values are NFKC-normalized and lowercased before matching so fullwidth or
// compatibility-form lookalikes cannot slip past the substring checks.
func Assess(hdrs map[string]string) Assessment {
	var anomalies []string
	score := 0.0

	spf := normValue(hdrs["Received-SPF"])
	if strings.Contains(spf, "fail") || strings.Contains(spf, "softfail") {
		anomalies = append(anomalies, "SPF validation failed, sender IP is not authorized.")
		score += spfFailWeight
	}

	auth := normValue(hdrs["Authentication-Results"])
	if strings.Contains(auth, "dkim=fail") {
		anomalies = append(anomalies, "DKIM signature validation failed. Email may be spoofed.")
		score += dkimFailWeight
	}

	from := normValue(hdrs["From"])
	replyTo := normValue(hdrs["Reply-To"])

	fromAddr := extractAddress(from)
	replyToAddr := extractAddress(replyTo)
	if fromAddr != "" && replyToAddr != "" &&
		!strings.Contains(replyToAddr, fromAddr) && !strings.Contains(fromAddr, replyToAddr) {
		anomalies = append(anomalies, fmt.Sprintf(
			"Reply-To address (%s) does not match From address (%s).", replyToAddr, fromAddr))
		score += replyToWeight
	}

	if displayName := extractDisplayName(from); containsAny(displayName, authorityKeywords) {
		anomalies = append(anomalies, "Sender display name contains typical urgency/authority keywords.")
		score += displayNameWeight
	}

	if score > 1.0 {
		score = 1.0
	}
	return Assessment{Score: score, Anomalies: anomalies}
}

func normValue(v string) string {
	return strings.ToLower(norm.NFKC.String(v))
}

// extractAddress pulls the addr-spec out of an angle-bracketed mailbox,
// falling back to the whole value for bare addresses.
func extractAddress(mailbox string) string {
	if m := reAngleAddr.FindStringSubmatch(mailbox); m != nil {
		return m[1]
	}
	return mailbox
}

// extractDisplayName returns the part before the bracketed address, or the
// whole value when there is no bracket.
func extractDisplayName(mailbox string) string {
	if i := strings.Index(mailbox, "<"); i >= 0 {
		return strings.TrimSpace(mailbox[:i])
	}
	return mailbox
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
