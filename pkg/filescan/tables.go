package filescan

import "regexp"

// Extension risk sets. Keys include the leading dot and are matched
// case-insensitively against the filename's final extension.
var dangerousExtensions = map[string]bool{
	".exe": true, ".bat": true, ".cmd": true, ".scr": true, ".pif": true, ".com": true,
	".msi": true, ".msp": true, ".mst": true,
	".ps1": true, ".psm1": true, ".psd1": true,
	".vbs": true, ".vbe": true, ".js": true, ".jse": true, ".wsf": true, ".wsh": true,
	".hta": true, ".cpl": true, ".inf": true, ".reg": true,
	".jar": true,
	".app": true, ".command": true,
	".sh": true, ".bash": true,
	".dll": true, ".sys": true,
	".iso": true, ".img": true,
}

var macroExtensions = map[string]bool{
	".docm": true, ".xlsm": true, ".pptm": true, ".dotm": true, ".xltm": true,
}

var archiveExtensions = map[string]bool{
	".zip": true, ".rar": true, ".7z": true, ".tar": true, ".gz": true,
}

// executableExtensions are the extensions that legitimately carry a PE
// signature; anything else with an MZ header is a disguised binary.
var executableExtensions = map[string]bool{
	".exe": true, ".dll": true, ".sys": true, ".scr": true,
}

// signature maps a leading-byte prefix to a human-readable type description.
// Longer prefixes are listed before shorter ones that share a leading byte so
// prefix matching never short-circuits on the generic entry.
type signature struct {
	prefix []byte
	desc   string
}

var magicSignatures = []signature{
	{[]byte{0x7f, 'E', 'L', 'F'}, "ELF executable (Linux/macOS)"},
	{[]byte("PK\x03\x04"), "ZIP archive (or Office OOXML / JAR)"},
	{[]byte{0xd0, 0xcf, 0x11, 0xe0}, "OLE2 document (legacy Office with potential macros)"},
	{[]byte("%PDF"), "PDF document"},
	{[]byte("\x89PNG"), "PNG image"},
	{[]byte{0xff, 0xd8, 0xff}, "JPEG image"},
	{[]byte("GIF87a"), "GIF image"},
	{[]byte("GIF89a"), "GIF image"},
	{[]byte("Rar!"), "RAR archive"},
	{[]byte{'7', 'z', 0xbc, 0xaf}, "7-Zip archive"},
	{[]byte{0xca, 0xfe, 0xba, 0xbe}, "macOS Mach-O / Java class"},
	{[]byte{0xfe, 0xed, 0xfa}, "macOS Mach-O executable"},
	{[]byte{0xcf, 0xfa, 0xed, 0xfe}, "macOS Mach-O executable (64-bit)"},
	{[]byte{0x1f, 0x8b}, "GZIP compressed"},
	{[]byte("MZ"), "PE executable (Windows EXE/DLL)"},
}

// expectedTypes maps extensions to substrings that must appear in the
// detected type description for the signature to be considered a match.
var expectedTypes = map[string][]string{
	".exe":  {"PE executable"},
	".dll":  {"PE executable"},
	".pdf":  {"PDF document"},
	".png":  {"PNG image"},
	".jpg":  {"JPEG image"},
	".jpeg": {"JPEG image"},
	".gif":  {"GIF image"},
	".zip":  {"ZIP archive"},
	".docx": {"ZIP archive"},
	".xlsx": {"ZIP archive"},
	".pptx": {"ZIP archive"},
	".doc":  {"OLE2 document"},
	".xls":  {"OLE2 document"},
	".rar":  {"RAR archive"},
	".7z":   {"7-Zip archive"},
	".gz":   {"GZIP compressed"},
	".jar":  {"ZIP archive"},
}

// textPattern pairs a compiled regex with the reason surfaced on a match.
// The list order is the order reasons are reported in.
type textPattern struct {
	re   *regexp.Regexp
	desc string
}

// suspiciousPatterns are compiled once at package load, never per scan.
var suspiciousPatterns = []textPattern{
	{regexp.MustCompile(`(?i)powershell`), "Contains PowerShell reference"},
	{regexp.MustCompile(`(?i)cmd\.exe|command\.com`), "References Windows command interpreter"},
	{regexp.MustCompile(`(?i)Invoke-(WebRequest|Expression|Mimikatz)`), "Contains PowerShell attack commands"},
	{regexp.MustCompile(`(?i)wget\s|curl\s`), "Contains download commands (wget/curl)"},
	{regexp.MustCompile(`(?i)/bin/(ba)?sh`), "Contains Unix shell reference"},
	{regexp.MustCompile(`(?i)base64[_\s]*-?d(ecode)?`), "Contains base64 decode instructions"},
	{regexp.MustCompile(`(?i)<script[^>]*>`), "Contains embedded script tags"},
	{regexp.MustCompile(`(?i)eval\s*\(`), "Contains eval() — potential code injection"},
	{regexp.MustCompile(`(?i)exec\s*\(`), "Contains exec() — potential code execution"},
	{regexp.MustCompile(`(?i)HKEY_(LOCAL_MACHINE|CURRENT_USER)`), "Modifies Windows registry"},
	{regexp.MustCompile(`\\\\[A-Za-z0-9]+\\`), "Contains UNC network path"},
	{regexp.MustCompile(`(?i)rm\s+-rf\s+/`), "Contains destructive delete command"},
	{regexp.MustCompile(`(?i)chmod\s+777`), "Sets overly permissive file permissions"},
	{regexp.MustCompile(`(?i)net\s+user\s+`), "Attempts user account manipulation"},
	{regexp.MustCompile(`(?i)nc\s+-[el]|ncat\s+`), "Contains netcat (reverse shell) command"},
}

// macroKeywords are raw byte sequences that indicate VBA macro machinery
// inside Office documents. Scanned against raw bytes, not decoded text.
var macroKeywords = [][]byte{
	[]byte("VBA"), []byte("AutoOpen"), []byte("Auto_Open"),
	[]byte("Workbook_Open"), []byte("Document_Open"),
	[]byte("Shell"), []byte("CreateObject"),
}
