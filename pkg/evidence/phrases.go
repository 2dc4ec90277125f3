package evidence

// featurePhrases translates the URL model's dataset column names into
// plain-language reasons. Keys must stay in sync with the column names the
// extractor and model service use.
var featurePhrases = map[string]string{
	"UsingIP":             "The link uses a raw IP address instead of a domain name — a common phishing trick to bypass filters.",
	"LongURL":             "The URL is unusually long, which can be used to hide the real destination.",
	"ShortURL":            "The link uses a URL shortener (e.g. bit.ly), masking where it actually leads.",
	"Symbol@":             "The URL contains an '@' symbol, which makes browsers ignore everything before it — a classic redirect trick.",
	"Redirecting//":       "The URL has an unexpected double-slash redirect, possibly sending you to a different site.",
	"PrefixSuffix-":       "The domain contains a hyphen (e.g. paypal-login.com), often used to imitate legitimate brands.",
	"SubDomains":          "The URL has multiple subdomains (e.g. secure.login.bank.example.com), making it look official when it isn't.",
	"HTTPS":               "The site does not use HTTPS, so your connection is not encrypted.",
	"DomainRegLen":        "The domain was registered for a very short period — phishing sites are often short-lived.",
	"Favicon":             "The site loads its favicon from a different domain, which is unusual for legitimate sites.",
	"NonStdPort":          "The URL uses a non-standard port, which legitimate websites rarely do.",
	"HTTPSDomainURL":      "The word 'https' appears inside the domain name itself — a spoofing trick to look secure.",
	"RequestURL":          "External resources on this page are loaded from suspicious origins.",
	"AnchorURL":           "Links on this page point to a different domain than expected.",
	"LinksInScriptTags":   "Script or link tags reference external, potentially untrusted sources.",
	"ServerFormHandler":   "Form data may be submitted to a suspicious or blank destination.",
	"InfoEmail":           "The page sends data to an email address instead of a secure server.",
	"AbnormalURL":         "The URL structure is abnormal compared to the domain it claims to be.",
	"WebsiteForwarding":   "The page redirects you through multiple URLs — commonly used in phishing chains.",
	"StatusBarCust":       "The site customises the browser status bar to hide the true link destination.",
	"DisableRightClick":   "Right-click is disabled, preventing you from inspecting the page — a phishing red flag.",
	"UsingPopupWindow":    "The site uses pop-up windows, which can be used to steal credentials.",
	"IframeRedirection":   "The page uses hidden iframes that may load malicious content.",
	"AgeofDomain":         "The domain is very new — most phishing sites are created days before an attack.",
	"DNSRecording":        "No DNS record was found for this domain, suggesting it may be fake.",
	"WebsiteTraffic":      "The site has very low traffic, which is uncommon for legitimate organisations.",
	"PageRank":            "The site has a very low PageRank, indicating low trust and authority.",
	"GoogleIndex":         "The site is not indexed by Google — legitimate sites almost always are.",
	"LinksPointingToPage": "Very few or no external sites link to this page — a sign of low trust.",
	"StatsReport":         "This URL appears in known phishing/malware blacklists.",
}

// keywordPhrases translates high-signal email tokens into reasons.
// Unrecognized tokens fall back to a generated phrase embedding the token.
var keywordPhrases = map[string]string{
	"urgent":      "The email creates a false sense of urgency (e.g. 'urgent', 'immediately').",
	"verify":      "The email asks you to verify your account details — a classic phishing tactic.",
	"suspended":   "The email threatens account suspension to pressure you into acting quickly.",
	"password":    "The email mentions passwords or login credentials.",
	"login":       "The email includes an unexpected login link or prompt.",
	"update":      "The email requests an unexpected update of your personal information.",
	"account":     "The email refers to your 'account' combined with urgent language.",
	"click":       "The email pressures you to click a link immediately.",
	"immediately": "The email demands immediate action — a pressure tactic.",
}

// Fallback phrases when no signal clears the significance bar or the
// generator had to recover from an internal failure.
const (
	fallbackURLPattern   = "The overall URL pattern matches known phishing websites."
	fallbackURLDegraded  = "The URL matches patterns commonly seen in phishing links."
	fallbackTextPattern  = "The wording and tone match known phishing emails."
	fallbackTextDegraded = "The wording matches patterns commonly seen in phishing emails."
)
