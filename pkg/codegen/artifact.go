package codegen

import (
	"encoding/json"
	"strings"

	"github.com/taskpilot-dev/taskpilot/pkg/api"
)

// ParseArtifact decodes a model reply into an artifact. Markdown code fences
// around the JSON are tolerated and stripped; everything else must match the
// prompt contract exactly.
func ParseArtifact(content string) (*api.Artifact, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil, ErrEmptyResponse
	}
	trimmed = stripCodeFence(trimmed)

	var raw struct {
		ApplicationType *string `json:"application_type"`
		Code            *string `json:"code"`
	}
	if err := json.Unmarshal([]byte(trimmed), &raw); err != nil {
		return nil, &MalformedResponseError{Reason: err.Error(), Raw: content}
	}
	if raw.ApplicationType == nil {
		return nil, &MalformedResponseError{Reason: "missing application_type", Raw: content}
	}
	if raw.Code == nil {
		return nil, &MalformedResponseError{Reason: "missing code", Raw: content}
	}
	appType, err := api.ParseApplicationType(*raw.ApplicationType)
	if err != nil {
		return nil, &MalformedResponseError{Reason: err.Error(), Raw: content}
	}
	if strings.TrimSpace(*raw.Code) == "" {
		return nil, &MalformedResponseError{Reason: "empty code", Raw: content}
	}
	return &api.Artifact{ApplicationType: appType, Code: *raw.Code}, nil
}

// stripCodeFence removes a surrounding markdown fence, with or without a
// language tag, and returns the enclosed text.
func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	rest := s[3:]
	if idx := strings.IndexByte(rest, '\n'); idx >= 0 {
		rest = rest[idx+1:]
	}
	rest = strings.TrimSuffix(strings.TrimSpace(rest), "```")
	return strings.TrimSpace(rest)
}
