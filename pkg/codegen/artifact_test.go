package codegen

import (
	"errors"
	"strings"
	"testing"

	"github.com/taskpilot-dev/taskpilot/pkg/api"
)

func TestParseArtifact(t *testing.T) {
	art, err := ParseArtifact(`{"application_type": "script", "code": "print('hi')"}`)
	if err != nil {
		t.Fatalf("ParseArtifact: %v", err)
	}
	if art.ApplicationType != api.ApplicationTypeScript {
		t.Errorf("type = %q, want script", art.ApplicationType)
	}
	if art.Code != "print('hi')" {
		t.Errorf("code = %q", art.Code)
	}
}

func TestParseArtifactAliases(t *testing.T) {
	art, err := ParseArtifact(`{"application_type": "bash", "code": "echo hi"}`)
	if err != nil {
		t.Fatalf("ParseArtifact: %v", err)
	}
	if art.ApplicationType != api.ApplicationTypeShell {
		t.Errorf("type = %q, want shell", art.ApplicationType)
	}
}

func TestParseArtifactFenced(t *testing.T) {
	for _, content := range []string{
		"```json\n{\"application_type\": \"shell\", \"code\": \"ls\"}\n```",
		"```\n{\"application_type\": \"shell\", \"code\": \"ls\"}\n```",
	} {
		art, err := ParseArtifact(content)
		if err != nil {
			t.Errorf("ParseArtifact(%q): %v", content, err)
			continue
		}
		if art.Code != "ls" {
			t.Errorf("code = %q, want ls", art.Code)
		}
	}
}

func TestParseArtifactEmpty(t *testing.T) {
	for _, content := range []string{"", "   ", "\n\t"} {
		if _, err := ParseArtifact(content); !errors.Is(err, ErrEmptyResponse) {
			t.Errorf("ParseArtifact(%q) = %v, want ErrEmptyResponse", content, err)
		}
	}
}

func TestParseArtifactMalformed(t *testing.T) {
	tests := []struct {
		name    string
		content string
		reason  string
	}{
		{name: "prose", content: "Sure, here is the code you asked for.", reason: "invalid"},
		{name: "missing type", content: `{"code": "print(1)"}`, reason: "application_type"},
		{name: "missing code", content: `{"application_type": "script"}`, reason: "code"},
		{name: "unknown type", content: `{"application_type": "ruby", "code": "puts 1"}`, reason: "ruby"},
		{name: "blank code", content: `{"application_type": "script", "code": "  "}`, reason: "empty code"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseArtifact(tt.content)
			var malformed *MalformedResponseError
			if !errors.As(err, &malformed) {
				t.Fatalf("error = %v, want MalformedResponseError", err)
			}
			if !strings.Contains(malformed.Reason, tt.reason) {
				t.Errorf("reason = %q, want substring %q", malformed.Reason, tt.reason)
			}
			if malformed.Raw != tt.content {
				t.Errorf("raw content not preserved")
			}
		})
	}
}

func TestFeedbackTask(t *testing.T) {
	got := FeedbackTask("list files", "lss", "lss: command not found")
	for _, want := range []string{
		"The previous attempt failed.",
		"Task: list files",
		"Generated Code: lss",
		"Error: lss: command not found",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("feedback task missing %q:\n%s", want, got)
		}
	}
}
