// Package filescan performs static heuristic analysis of an in-memory file
// buffer: extension risk, double-extension spoofing, magic-byte/extension
// mismatch, Shannon entropy, suspicious string content, and Office macro
// indicators. No sandboxing, no disk or network I/O; the caller supplies the
// bytes and is responsible for capping their size (the HTTP boundary enforces
// 10 MiB).
package filescan

import (
	"bytes"
	"fmt"
	"math"
	"strings"
)

// Verdict buckets the normalized risk score.
type Verdict string

const (
	VerdictSafe       Verdict = "safe"
	VerdictSuspicious Verdict = "suspicious"
	VerdictDangerous  Verdict = "dangerous"

	dangerousThreshold  = 0.6
	suspiciousThreshold = 0.3
)

// textScanWindow bounds how much of the buffer is decoded for string
// pattern scanning. Entropy and macro scanning still see the full buffer.
const textScanWindow = 100 * 1024

// Assessment is the aggregate scan result. Score is risk points normalized
// by the points budget that actually applied to this input; the denominator
// varies because the macro check only runs for macro-capable files, and the
// verdict thresholds are calibrated against that behavior.
type Assessment struct {
	Filename     string   `json:"filename"`
	SizeBytes    int      `json:"size_bytes"`
	Score        float64  `json:"risk_score"`
	Verdict      Verdict  `json:"verdict"`
	DetectedType string   `json:"detected_type"`
	Entropy      float64  `json:"entropy"`
	Reasons      []string `json:"reasons"`
}

// Scan runs all six heuristic checks over the buffer. It is total: empty
// content, oversized content, and undecodable bytes all degrade to neutral
// findings rather than errors.
func Scan(filename string, content []byte) Assessment {
	var reasons []string
	riskPoints := 0
	maxPoints := 0

	ext := strings.ToLower(extension(filename))

	// 1. Extension risk.
	maxPoints += 30
	switch {
	case dangerousExtensions[ext]:
		riskPoints += 30
		reasons = append(reasons, fmt.Sprintf("File extension '%s' is a known dangerous/executable type.", ext))
	case macroExtensions[ext]:
		riskPoints += 20
		reasons = append(reasons, fmt.Sprintf("Office file '%s' can contain macros — a common malware delivery method.", ext))
	case archiveExtensions[ext]:
		riskPoints += 5
		reasons = append(reasons, fmt.Sprintf("Archive file '%s' — contents cannot be verified without extraction.", ext))
	}

	// 2. Double-extension spoofing (invoice.pdf.exe).
	maxPoints += 20
	if fakeExt, realExt, ok := splitDoubleExtension(filename); ok {
		if dangerousExtensions[realExt] && !dangerousExtensions[fakeExt] {
			riskPoints += 20
			reasons = append(reasons, fmt.Sprintf(
				"Double extension detected: '%s%s' — file pretends to be '%s' but is actually '%s'.",
				fakeExt, realExt, fakeExt, realExt))
		}
	}

	// 3. Magic-byte vs extension mismatch.
	maxPoints += 25
	detectedType := detectMagic(content)
	if detectedType != "" {
		if isExecutableDisguise(detectedType, ext) {
			riskPoints += 25
			reasons = append(reasons, fmt.Sprintf(
				"File contains a Windows executable signature but has extension '%s'. Likely a disguised malware binary.", ext))
		} else if expected, known := expectedTypes[ext]; known && !typeMatches(detectedType, expected) {
			riskPoints += 25
			reasons = append(reasons, fmt.Sprintf(
				"File signature mismatch: extension is '%s' but actual content is '%s'. This file may be disguised.",
				ext, detectedType))
		}
	} else if dangerousExtensions[ext] {
		riskPoints += 5
		reasons = append(reasons, "File signature could not be identified — unusual for this file type.")
	}

	// 4. Entropy.
	maxPoints += 15
	entropy := shannonEntropy(content)
	if entropy > 7.5 {
		riskPoints += 15
		reasons = append(reasons, fmt.Sprintf(
			"Very high entropy (%.2f/8.0) — file may be packed, encrypted, or obfuscated. Malware often uses packing to avoid detection.",
			entropy))
	} else if entropy > 6.8 {
		riskPoints += 5
		reasons = append(reasons, fmt.Sprintf(
			"Elevated entropy (%.2f/8.0) — could indicate compressed or encoded content.", entropy))
	}

	// 5. Suspicious string content in the decoded text window.
	maxPoints += 30
	if text := decodeWindow(content); text != "" {
		var found []string
		for _, p := range suspiciousPatterns {
			if p.re.MatchString(text) {
				found = append(found, p.desc)
			}
		}
		if len(found) > 0 {
			pts := len(found) * 8
			if pts > 30 {
				pts = 30
			}
			riskPoints += pts
			if len(found) > 5 {
				found = found[:5]
			}
			reasons = append(reasons, found...)
		}
	}

	// 6. Office macro indicators — only for macro-capable extensions or
	// legacy OLE2 containers, scanned over raw bytes.
	if macroExtensions[ext] || strings.Contains(detectedType, "OLE2") {
		maxPoints += 10
		var found []string
		for _, kw := range macroKeywords {
			if bytes.Contains(content, kw) {
				found = append(found, string(kw))
			}
		}
		if len(found) > 0 {
			riskPoints += 10
			if len(found) > 3 {
				found = found[:3]
			}
			reasons = append(reasons, fmt.Sprintf(
				"Contains macro indicators: %s. Malicious macros are a top malware delivery method.",
				strings.Join(found, ", ")))
		}
	}

	score := 0.0
	if maxPoints > 0 {
		score = math.Min(1.0, round3(float64(riskPoints)/float64(maxPoints)))
	}

	verdict := VerdictSafe
	switch {
	case score >= dangerousThreshold:
		verdict = VerdictDangerous
	case score >= suspiciousThreshold:
		verdict = VerdictSuspicious
	}

	if len(reasons) == 0 {
		reasons = []string{"No suspicious indicators found."}
	}

	if detectedType == "" {
		detectedType = "Unknown"
	}

	return Assessment{
		Filename:     filename,
		SizeBytes:    len(content),
		Score:        score,
		Verdict:      verdict,
		DetectedType: detectedType,
		Entropy:      round2(entropy),
		Reasons:      reasons,
	}
}

// extension returns the final dot-segment including the dot, or "".
func extension(filename string) string {
	if i := strings.LastIndex(filename, "."); i != -1 {
		return filename[i:]
	}
	return ""
}

// splitDoubleExtension returns the last two dot-segments as extensions when
// the filename has at least two dots.
func splitDoubleExtension(filename string) (fakeExt, realExt string, ok bool) {
	parts := strings.Split(filename, ".")
	if len(parts) < 3 {
		return "", "", false
	}
	fakeExt = "." + strings.ToLower(parts[len(parts)-2])
	realExt = "." + strings.ToLower(parts[len(parts)-1])
	return fakeExt, realExt, true
}

// detectMagic identifies the true file type from leading bytes, or "".
func detectMagic(content []byte) string {
	for _, sig := range magicSignatures {
		if bytes.HasPrefix(content, sig.prefix) {
			return sig.desc
		}
	}
	return ""
}

// isExecutableDisguise reports a PE signature under a non-executable
// extension. This takes priority over the generic mismatch rule.
func isExecutableDisguise(detectedType, ext string) bool {
	return strings.Contains(detectedType, "PE executable") && !executableExtensions[ext]
}

func typeMatches(detectedType string, expected []string) bool {
	for _, e := range expected {
		if strings.Contains(detectedType, e) {
			return true
		}
	}
	return false
}

// shannonEntropy measures byte-distribution randomness in bits per byte:
// 0 for uniform/repetitive content, 8 for maximal randomness. Empty content
// is 0.
func shannonEntropy(data []byte) float64 {
	if len(data) == 0 {
		return 0.0
	}
	var freq [256]int
	for _, b := range data {
		freq[b]++
	}
	total := float64(len(data))
	entropy := 0.0
	for _, count := range freq {
		if count == 0 {
			continue
		}
		p := float64(count) / total
		entropy -= p * math.Log2(p)
	}
	return entropy
}

// decodeWindow converts the first textScanWindow bytes to valid UTF-8,
// dropping invalid sequences. Never fails.
func decodeWindow(content []byte) string {
	if len(content) > textScanWindow {
		content = content[:textScanWindow]
	}
	return strings.ToValidUTF8(string(content), "")
}

func round3(x float64) float64 { return math.Round(x*1000) / 1000 }
func round2(x float64) float64 { return math.Round(x*100) / 100 }
