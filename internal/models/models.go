package models

import (
	"encoding/json"
	"strconv"
)

type (
	// Config holds the application's configuration settings.
	Config struct {
		BaseURL             string `toml:"BaseUrl" json:"BaseUrl"`
		User                string `toml:"User" json:"User"`
		Token               string `toml:"Token" json:"Token"`
		OutputDir           string `toml:"OutputDir" json:"OutputDir"`
		HistoryPath         string `toml:"HistoryPath" json:"HistoryPath"` // Relative to OutputDir if not absolute
		LogLevel            string `toml:"LogLevel" json:"LogLevel"`
		LogFormat           string `toml:"LogFormat" json:"LogFormat"`
		LogFilePath         string `toml:"LogFilePath" json:"LogFilePath"`
		APIClientTimeoutSec int    `toml:"ApiClientTimeoutSec" json:"ApiClientTimeoutSec"`
		LogApiRequests      bool   `toml:"LogApiRequests" json:"LogApiRequests"`
		SaveHistory         bool   `toml:"SaveHistory" json:"SaveHistory"`
	}

	// Attachment is one attachment descriptor from an issue response.
	// Immutable once parsed; Size is the byte count the server claims,
	// which the download pipeline verifies at end of stream.
	Attachment struct {
		ID       string `json:"id"`
		Filename string `json:"filename"`
		MimeType string `json:"mimeType"`
		Created  string `json:"created"`
		Content  string `json:"content"` // Download URL
		Size     uint64 `json:"size"`
	}

	// IssueResponse mirrors the subset of the Jira issue payload
	// returned for ?fields=attachment.
	IssueResponse struct {
		Key    string      `json:"key"`
		Fields IssueFields `json:"fields"`
	}

	// IssueFields carries the attachment array of an issue.
	IssueFields struct {
		Attachment []Attachment `json:"attachment"`
	}

	// HistoryEntry records one completed download in the history store.
	HistoryEntry struct {
		IssueKey     string `json:"issueKey"`
		AttachmentID string `json:"attachmentId"`
		Filename     string `json:"filename"`
		Path         string `json:"path"`
		Checksum     string `json:"checksum"` // blake3 hex of the file on disk
		DownloadedAt string `json:"downloadedAt"`
		Size         uint64 `json:"size"`
	}
)

// UnmarshalJSON accepts the id field as either a JSON string or a
// number; Jira Server returns strings while some proxies re-encode
// them as integers.
func (a *Attachment) UnmarshalJSON(data []byte) error {
	type alias Attachment
	aux := struct {
		ID json.RawMessage `json:"id"`
		*alias
	}{alias: (*alias)(a)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if len(aux.ID) == 0 {
		return nil
	}
	var id string
	if err := json.Unmarshal(aux.ID, &id); err == nil {
		a.ID = id
		return nil
	}
	var n int64
	if err := json.Unmarshal(aux.ID, &n); err != nil {
		return err
	}
	a.ID = strconv.FormatInt(n, 10)
	return nil
}
