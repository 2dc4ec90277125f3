package filescan

import (
	"bytes"
	"strings"
	"testing"
)

func TestEmptyTextFile(t *testing.T) {
	res := Scan("a.txt", nil)

	if res.Entropy != 0.0 {
		t.Errorf("empty content: entropy = %f, want 0.0", res.Entropy)
	}
	if res.Verdict != VerdictSafe {
		t.Errorf("empty content: verdict = %s, want safe", res.Verdict)
	}
	if res.Score != 0.0 {
		t.Errorf("empty content: score = %f, want 0.0", res.Score)
	}
	if res.SizeBytes != 0 {
		t.Errorf("empty content: size = %d, want 0", res.SizeBytes)
	}
	if len(res.Reasons) != 1 || res.Reasons[0] != "No suspicious indicators found." {
		t.Errorf("empty content should get the fallback reason, got %v", res.Reasons)
	}
}

func TestDisguisedExecutable(t *testing.T) {
	// PE signature under a .pdf extension: the executable-disguise rule
	// contributes the full 25-point signature budget.
	res := Scan("invoice.pdf", []byte("MZ\x90\x00 some pe payload"))

	if !anyContains(res.Reasons, "executable signature") {
		t.Errorf("reasons should flag the PE signature, got %v", res.Reasons)
	}
	if !anyContains(res.Reasons, ".pdf") {
		t.Errorf("reasons should mention the .pdf extension, got %v", res.Reasons)
	}
	// signature budget only: 25 / 120
	if want := round3(25.0 / 120.0); res.Score != want {
		t.Errorf("score = %f, want %f", res.Score, want)
	}
	if res.DetectedType != "PE executable (Windows EXE/DLL)" {
		t.Errorf("detected type = %q", res.DetectedType)
	}
}

func TestDoubleExtension(t *testing.T) {
	// Double extension scores regardless of byte content: 30 (dangerous
	// ext) + 20 (double ext) out of 120 applicable points.
	res := Scan("invoice.pdf.exe", []byte("plain text"))

	if !anyContains(res.Reasons, "Double extension") {
		t.Errorf("reasons should flag the double extension, got %v", res.Reasons)
	}
	// 30 + 20 + 5 (dangerous ext with no recognizable signature) = 55/120
	if want := round3(55.0 / 120.0); res.Score != want {
		t.Errorf("score = %f, want %f", res.Score, want)
	}
	if res.Verdict != VerdictSuspicious {
		t.Errorf("verdict = %s, want suspicious", res.Verdict)
	}
}

func TestExtensionTiers(t *testing.T) {
	tests := []struct {
		filename string
		substr   string
	}{
		{"run.exe", "dangerous/executable"},
		{"report.xlsm", "can contain macros"},
		{"bundle.zip", "cannot be verified without extraction"},
	}

	for _, tc := range tests {
		t.Run(tc.filename, func(t *testing.T) {
			res := Scan(tc.filename, []byte("x"))
			if !anyContains(res.Reasons, tc.substr) {
				t.Errorf("Scan(%s): reasons %v should contain %q", tc.filename, res.Reasons, tc.substr)
			}
		})
	}
}

func TestSignatureMismatch(t *testing.T) {
	// PNG bytes under a .zip extension: generic mismatch rule.
	res := Scan("archive.zip", []byte("\x89PNG\r\n\x1a\n"))

	if !anyContains(res.Reasons, "signature mismatch") {
		t.Errorf("reasons should flag the mismatch, got %v", res.Reasons)
	}
	if res.DetectedType != "PNG image" {
		t.Errorf("detected type = %q, want PNG image", res.DetectedType)
	}
}

func TestMatchingSignatureScoresNothing(t *testing.T) {
	res := Scan("photo.png", []byte("\x89PNG\r\n\x1a\n rest of image"))
	if res.Score != 0.0 {
		t.Errorf("matching PNG: score = %f, want 0.0", res.Score)
	}
	if res.Verdict != VerdictSafe {
		t.Errorf("matching PNG: verdict = %s, want safe", res.Verdict)
	}
}

func TestMaximalEntropy(t *testing.T) {
	// A perfectly uniform byte distribution has entropy 8.0.
	content := make([]byte, 256*16)
	for i := range content {
		content[i] = byte(i % 256)
	}

	res := Scan("data.bin", content)
	if res.Entropy != 8.0 {
		t.Errorf("uniform bytes: entropy = %f, want 8.0", res.Entropy)
	}
	if !anyContains(res.Reasons, "Very high entropy") {
		t.Errorf("reasons should flag high entropy, got %v", res.Reasons)
	}
}

func TestSuspiciousStrings(t *testing.T) {
	content := []byte("powershell -enc ABC; Invoke-WebRequest http://x; wget http://y; " +
		"eval(code); exec(more); rm -rf /; chmod 777 /tmp; nc -e /bin/sh")

	res := Scan("notes.txt", content)

	var patternReasons int
	for _, r := range res.Reasons {
		if !strings.Contains(r, "entropy") {
			patternReasons++
		}
	}
	// pattern contribution caps at 30 points and 5 surfaced reasons
	if patternReasons > 5 {
		t.Errorf("at most 5 pattern reasons should surface, got %d: %v", patternReasons, res.Reasons)
	}
	if !anyContains(res.Reasons, "PowerShell") {
		t.Errorf("reasons should mention PowerShell, got %v", res.Reasons)
	}
}

func TestPatternPointsCapped(t *testing.T) {
	// 8 distinct patterns * 8 points caps at 30; with no other findings the
	// score stays within [0,1].
	content := []byte("powershell cmd.exe Invoke-Expression wget  /bin/bash base64 -d <script> eval( exec( HKEY_LOCAL_MACHINE rm -rf / chmod 777 net user  ncat ")
	res := Scan("dump.txt", content)

	if res.Score < 0.0 || res.Score > 1.0 {
		t.Errorf("score %f out of [0,1]", res.Score)
	}
	// 30 pattern points out of 120 applicable
	if want := round3(30.0 / 120.0); res.Score != want {
		t.Errorf("score = %f, want %f", res.Score, want)
	}
}

func TestMacroIndicators(t *testing.T) {
	content := []byte("...VBA...AutoOpen...Shell...CreateObject...")

	t.Run("macro extension", func(t *testing.T) {
		res := Scan("report.docm", content)
		if !anyContains(res.Reasons, "macro indicators") {
			t.Errorf("reasons should flag macro indicators, got %v", res.Reasons)
		}
		// at most 3 keywords listed
		for _, r := range res.Reasons {
			if strings.Contains(r, "macro indicators") && strings.Count(r, ",") > 2 {
				t.Errorf("macro reason should list at most 3 keywords: %q", r)
			}
		}
	})

	t.Run("ole2 signature", func(t *testing.T) {
		ole := append([]byte{0xd0, 0xcf, 0x11, 0xe0}, content...)
		res := Scan("legacy.doc", ole)
		if !anyContains(res.Reasons, "macro indicators") {
			t.Errorf("OLE2 content should trigger the macro check, got %v", res.Reasons)
		}
	})

	t.Run("not evaluated for plain text", func(t *testing.T) {
		res := Scan("notes.txt", content)
		if anyContains(res.Reasons, "macro indicators") {
			t.Errorf("macro check must not run for .txt, got %v", res.Reasons)
		}
	})
}

func TestVariableDenominator(t *testing.T) {
	// The macro budget only joins the denominator when the check applies:
	// the same dangerous extension scores differently against 120 vs 130.
	plain := Scan("run.exe", []byte("MZ"))
	if want := round3(30.0 / 120.0); plain.Score != want {
		t.Errorf("exe score = %f, want %f (120-point denominator)", plain.Score, want)
	}

	macro := Scan("sheet.xlsm", bytes.Repeat([]byte("A"), 64))
	// 20 (macro-capable ext) / 130 (macro budget applies)
	if want := round3(20.0 / 130.0); macro.Score != want {
		t.Errorf("xlsm score = %f, want %f (130-point denominator)", macro.Score, want)
	}
}

func TestVerdictThresholds(t *testing.T) {
	// Dangerous ext + double ext + disguised PE + suspicious strings pushes
	// over the dangerous line.
	content := []byte("MZ\x90powershell Invoke-Expression wget nc -e")
	res := Scan("statement.pdf.exe", content)

	if res.Verdict != VerdictDangerous {
		t.Errorf("verdict = %s (score %f), want dangerous", res.Verdict, res.Score)
	}
}

func TestScoreAlwaysNormalized(t *testing.T) {
	inputs := []struct {
		name    string
		content []byte
	}{
		{"evil.pdf.exe", []byte("MZ powershell wget eval( rm -rf / nc -e chmod 777 net user ")},
		{"x.docm", append([]byte{0xd0, 0xcf, 0x11, 0xe0}, []byte("VBA Shell AutoOpen powershell")...)},
		{"plain.txt", []byte("hello world")},
		{"empty.exe", nil},
	}
	for _, in := range inputs {
		res := Scan(in.name, in.content)
		if res.Score < 0.0 || res.Score > 1.0 {
			t.Errorf("Scan(%s): score %f out of [0,1]", in.name, res.Score)
		}
	}
}

func TestOversizedTextWindow(t *testing.T) {
	// Patterns beyond the 100 KB text window are not scanned; entropy and
	// the rest of the checks still see the full buffer.
	content := append(bytes.Repeat([]byte("A"), textScanWindow), []byte("powershell")...)
	res := Scan("big.txt", content)
	if anyContains(res.Reasons, "PowerShell") {
		t.Errorf("pattern past the text window must not match, got %v", res.Reasons)
	}
}

func anyContains(list []string, substr string) bool {
	for _, s := range list {
		if strings.Contains(s, substr) {
			return true
		}
	}
	return false
}
