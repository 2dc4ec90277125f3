// Package urlfeat extracts the fixed 30-column structural feature vector
// used by the URL decision-forest model. Feature names and the ternary
// encoding follow the Kaggle "Phishing Website Detector" dataset convention:
// 1 = legitimate indicator, -1 = phishing indicator, 0 = suspicious/unknown.
//
// Extraction is a total function: it never performs network I/O and never
// fails on malformed input. Anything that would require external data (WHOIS,
// DNS, page content, traffic rank) is pinned to a documented conservative
// constant.
package urlfeat

import (
	"net/url"
	"regexp"
	"strings"
)

// Ternary feature values.
const (
	Legit      int8 = 1
	Suspicious int8 = -1
	Neutral    int8 = 0
)

// Compiled once at package init, shared by all calls.
var (
	reIPv4Host  = regexp.MustCompile(`^\d{1,3}(\.\d{1,3}){3}$`)
	reShortener = regexp.MustCompile(`(?i)bit\.ly|goo\.gl|tinyurl|t\.co|ow\.ly|is\.gd|buff\.ly|short\.to`)
)

// featureNames is the canonical column order. Order is load-bearing: it must
// match the training-time column order of the decision-forest model unless
// the caller realigns via Vector.Align.
var featureNames = []string{
	"UsingIP", "LongURL", "ShortURL", "Symbol@", "Redirecting//",
	"PrefixSuffix-", "SubDomains", "HTTPS", "DomainRegLen", "Favicon",
	"NonStdPort", "HTTPSDomainURL", "RequestURL", "AnchorURL",
	"LinksInScriptTags", "ServerFormHandler", "InfoEmail", "AbnormalURL",
	"WebsiteForwarding", "StatusBarCust", "DisableRightClick",
	"UsingPopupWindow", "IframeRedirection", "AgeofDomain", "DNSRecording",
	"WebsiteTraffic", "PageRank", "GoogleIndex", "LinksPointingToPage",
	"StatsReport",
}

// FeatureCount is the number of columns Extract always produces.
const FeatureCount = 30

// FeatureNames returns a copy of the canonical column order.
func FeatureNames() []string {
	out := make([]string, len(featureNames))
	copy(out, featureNames)
	return out
}

// Extract parses the raw URL string into the 30-feature vector. Parse errors
// degrade to empty scheme/host/path components rather than returning an
// error, so every string input yields a complete vector.
func Extract(rawURL string) Vector {
	var scheme, host string
	var port string

	if parsed, err := url.Parse(rawURL); err == nil {
		scheme = parsed.Scheme
		host = parsed.Hostname()
		port = parsed.Port()
	}

	lowerURL := strings.ToLower(rawURL)
	lowerHost := strings.ToLower(host)

	values := make([]int8, 0, FeatureCount)
	put := func(v int8) { values = append(values, v) }

	// UsingIP: raw IPv4 literal as host.
	put(ternary(reIPv4Host.MatchString(host), Suspicious, Legit))

	// LongURL: <54 legit, 54-75 neutral, >75 suspicious.
	switch n := len(rawURL); {
	case n < 54:
		put(Legit)
	case n <= 75:
		put(Neutral)
	default:
		put(Suspicious)
	}

	// ShortURL: known shortener service anywhere in the URL.
	put(ternary(reShortener.MatchString(rawURL), Suspicious, Legit))

	// Symbol@: '@' makes browsers discard everything before it.
	put(ternary(strings.Contains(rawURL, "@"), Suspicious, Legit))

	// Redirecting//: a '//' after the scheme separator.
	put(ternary(strings.LastIndex(rawURL, "//") > 7, Suspicious, Legit))

	// PrefixSuffix-: hyphenated host, typical of brand imitation.
	put(ternary(strings.Contains(host, "-"), Suspicious, Legit))

	// SubDomains: dot count in host.
	switch dots := strings.Count(host, "."); {
	case dots <= 1:
		put(Legit)
	case dots == 2:
		put(Neutral)
	default:
		put(Suspicious)
	}

	// HTTPS scheme.
	put(ternary(scheme == "https", Legit, Suspicious))

	// DomainRegLen: needs WHOIS, pinned suspicious.
	put(Suspicious)

	// Favicon: needs page fetch, pinned suspicious.
	put(Suspicious)

	// NonStdPort: explicit port other than 80/443.
	put(ternary(port != "" && port != "80" && port != "443", Suspicious, Legit))

	// HTTPSDomainURL: the token "https" inside the host itself.
	put(ternary(strings.Contains(lowerHost, "https"), Suspicious, Legit))

	// RequestURL, AnchorURL, LinksInScriptTags, ServerFormHandler:
	// all need page content, pinned suspicious.
	put(Suspicious)
	put(Suspicious)
	put(Suspicious)
	put(Suspicious)

	// InfoEmail: mailto: handler in the URL.
	put(ternary(strings.Contains(lowerURL, "mailto:"), Suspicious, Legit))

	// AbnormalURL: needs WHOIS identity comparison, pinned suspicious.
	put(Suspicious)

	// WebsiteForwarding: redirect count unknown, pinned neutral.
	put(Neutral)

	// StatusBarCust, DisableRightClick, UsingPopupWindow, IframeRedirection:
	// need JS/DOM analysis, pinned legit.
	put(Legit)
	put(Legit)
	put(Legit)
	put(Legit)

	// AgeofDomain: needs WHOIS, pinned suspicious.
	put(Suspicious)

	// DNSRecording: needs DNS lookup, pinned present.
	put(Legit)

	// WebsiteTraffic, PageRank: need external rank APIs, pinned suspicious.
	put(Suspicious)
	put(Suspicious)

	// GoogleIndex: assume indexed.
	put(Legit)

	// LinksPointingToPage: needs backlink data, pinned neutral.
	put(Neutral)

	// StatsReport: needs blacklist feeds, pinned legit.
	put(Legit)

	return Vector{values: values}
}

func ternary(cond bool, yes, no int8) int8 {
	if cond {
		return yes
	}
	return no
}
