package main

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/addons-ops/blocktool/pkg/blocklist"
)

func sampleClassification() blocklist.Classification {
	return blocklist.Classification{
		Existing: []blocklist.Match{
			{
				Guid: "bad@ext.com",
				Entry: &blocklist.Entry{
					GuidPattern:   "bad@ext.com",
					VersionRanges: []blocklist.VersionRange{blocklist.AllVersions(blocklist.SeverityHard)},
					BugReference:  "https://tracker.example/show?id=111",
					Enabled:       true,
				},
			},
			{
				Guid: "covered@ext.com",
				Entry: &blocklist.Entry{
					GuidPattern:   `/^((covered@ext\.com))$/`,
					VersionRanges: []blocklist.VersionRange{blocklist.AllVersions(blocklist.SeveritySoft)},
					Enabled:       false,
				},
			},
		},
		New: []string{"new@ext.com"},
	}
}

func TestValidateFormat(t *testing.T) {
	for _, valid := range allowedFormats {
		if _, err := validateFormat(valid); err != nil {
			t.Errorf("Expected %q to validate, got %v", valid, err)
		}
	}
	if _, err := validateFormat("yaml"); err == nil {
		t.Error("Expected an error for an unknown format")
	}
}

func TestFormatDefault(t *testing.T) {
	out, err := formatClassification(sampleClassification(), FormatDefault)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	for _, want := range []string{"Already blocked (2):", "bad@ext.com (bug 111, hard)", "disabled", `<- /^((covered@ext\.com))$/`, "New (1):", "new@ext.com"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestFormatOneLine(t *testing.T) {
	out, err := formatClassification(sampleClassification(), FormatOneLine)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	expected := "existing: bad@ext.com covered@ext.com | new: new@ext.com"
	if out != expected {
		t.Errorf("Expected %q, got %q", expected, out)
	}
}

func TestFormatJSON(t *testing.T) {
	out, err := formatClassification(sampleClassification(), FormatJSON)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	var decoded struct {
		Existing map[string]string `json:"existing"`
		New      []string          `json:"new"`
	}
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("Expected valid JSON, got %v:\n%s", err, out)
	}
	if decoded.Existing["covered@ext.com"] != `/^((covered@ext\.com))$/` {
		t.Errorf("Expected regex pattern recorded for covered@ext.com, got %+v", decoded.Existing)
	}
	if !reflect.DeepEqual(decoded.New, []string{"new@ext.com"}) {
		t.Errorf("Expected new guids, got %v", decoded.New)
	}
}
