package solve

import "testing"

func TestMapStatus(t *testing.T) {
	tests := []struct {
		line   string
		phrase string
		ok     bool
	}{
		{"[INFO] connection established", "Connected…", true},
		{"[INFO] Found PDF file: q.pdf (2048 bytes)", "Document received…", true},
		{"[INFO] Initializing PDF processing...", "Preparing document…", true},
		{"[INFO] Processing 'q.pdf'...", "Processing document…", true},
		{"[INFO] Uploading file to analysis backend...", "Analyzing document…", true},
		{"[INFO] Upload completed in 1.21 seconds", "Document analyzed…", true},
		{"[INFO] extraction complete", "Text extracted, preparing solution…", true},
		{"[INFO] Generating solutions...", "Generating solution…", true},
		{"[INFO] Processing complete.", "Solution complete", true},
		{"[DEBUG] tokens used: 412", "", false},
		{"[INFO] some unrecognized progress line", "", false},
		{"[WARNING] could not clean up temp file", "", false},
		{"[ERROR] something broke", "Error: something broke", true},
		{"[ERROR] processing failed. Error: file is encrypted", "Error: file is encrypted", true},
		{"[ERROR]", "Error: something went wrong", true},
	}

	for _, tt := range tests {
		phrase, ok := MapStatus(tt.line)
		if ok != tt.ok || phrase != tt.phrase {
			t.Errorf("MapStatus(%q) = (%q, %v), want (%q, %v)", tt.line, phrase, ok, tt.phrase, tt.ok)
		}
	}
}
