package models

import (
	"encoding/json"
	"testing"
)

// TestAttachmentUnmarshal_StringID tests the common Jira Server shape
func TestAttachmentUnmarshal_StringID(t *testing.T) {
	raw := `{"id":"10001","filename":"log.txt","mimeType":"text/plain","created":"2024-05-01T10:00:00.000+0000","content":"http://x/log.txt","size":42}`
	var a Attachment
	if err := json.Unmarshal([]byte(raw), &a); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if a.ID != "10001" {
		t.Errorf("Expected id \"10001\", got %q", a.ID)
	}
	if a.Filename != "log.txt" || a.Size != 42 {
		t.Errorf("Unexpected attachment: %+v", a)
	}
}

// TestAttachmentUnmarshal_NumericID tests id re-encoded as a number
func TestAttachmentUnmarshal_NumericID(t *testing.T) {
	raw := `{"id":10001,"filename":"log.txt","size":42}`
	var a Attachment
	if err := json.Unmarshal([]byte(raw), &a); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if a.ID != "10001" {
		t.Errorf("Expected numeric id coerced to \"10001\", got %q", a.ID)
	}
}

// TestAttachmentUnmarshal_MissingID tests that an absent id stays empty
func TestAttachmentUnmarshal_MissingID(t *testing.T) {
	var a Attachment
	if err := json.Unmarshal([]byte(`{"filename":"x"}`), &a); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if a.ID != "" {
		t.Errorf("Expected empty id, got %q", a.ID)
	}
}

// TestIssueResponseUnmarshal tests the nested fields.attachment shape
func TestIssueResponseUnmarshal(t *testing.T) {
	raw := `{"key":"AB-1","fields":{"attachment":[{"id":"1","filename":"a"},{"id":"2","filename":"b"}]}}`
	var issue IssueResponse
	if err := json.Unmarshal([]byte(raw), &issue); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if issue.Key != "AB-1" {
		t.Errorf("Expected key AB-1, got %q", issue.Key)
	}
	if len(issue.Fields.Attachment) != 2 {
		t.Fatalf("Expected 2 attachments, got %d", len(issue.Fields.Attachment))
	}
	if issue.Fields.Attachment[1].Filename != "b" {
		t.Errorf("Unexpected second attachment: %+v", issue.Fields.Attachment[1])
	}
}
