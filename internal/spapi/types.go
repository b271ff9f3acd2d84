package spapi

import (
	"encoding/json"
	"log/slog"
	"time"
)

// File represents a file in a SharePoint document library.
// Fields are normalized from the REST response; callers never see raw API data.
type File struct {
	UniqueID          string
	Name              string
	ServerRelativeURL string
	Length            int64
	MajorVersion      int
	MinorVersion      int
	TimeCreated       time.Time
	TimeLastModified  time.Time
}

// Folder represents a folder in a SharePoint document library.
type Folder struct {
	UniqueID          string
	Name              string
	ServerRelativeURL string
	ItemCount         int
	TimeCreated       time.Time
	TimeLastModified  time.Time
}

// fileResponse mirrors the SharePoint file JSON exactly.
// Unexported; callers use File via toFile() normalization.
// Length is json.Number because SharePoint serializes Edm.Int64 as a string
// under verbose OData and as a number under nometadata.
type fileResponse struct {
	UniqueID          string      `json:"UniqueId"`
	Name              string      `json:"Name"`
	ServerRelativeURL string      `json:"ServerRelativeUrl"`
	Length            json.Number `json:"Length"`
	MajorVersion      int         `json:"MajorVersion"`
	MinorVersion      int         `json:"MinorVersion"`
	TimeCreated       string      `json:"TimeCreated"`
	TimeLastModified  string      `json:"TimeLastModified"`
}

// folderResponse mirrors the SharePoint folder JSON, optionally carrying the
// expanded Files and Folders collections.
type folderResponse struct {
	UniqueID          string           `json:"UniqueId"`
	Name              string           `json:"Name"`
	ServerRelativeURL string           `json:"ServerRelativeUrl"`
	ItemCount         int              `json:"ItemCount"`
	Exists            bool             `json:"Exists"`
	TimeCreated       string           `json:"TimeCreated"`
	TimeLastModified  string           `json:"TimeLastModified"`
	Files             []fileResponse   `json:"Files"`
	Folders           []folderResponse `json:"Folders"`
}

// contextInfoResponse mirrors the /_api/contextinfo response.
type contextInfoResponse struct {
	FormDigestValue          string `json:"FormDigestValue"`
	FormDigestTimeoutSeconds int    `json:"FormDigestTimeoutSeconds"`
}

// toFile normalizes a SharePoint file response into our File type.
func (f *fileResponse) toFile(logger *slog.Logger) File {
	length, err := f.Length.Int64()
	if err != nil && f.Length != "" {
		logger.Warn("invalid file length, using zero",
			slog.String("name", f.Name),
			slog.String("raw", f.Length.String()),
		)

		length = 0
	}

	return File{
		UniqueID:          f.UniqueID,
		Name:              f.Name,
		ServerRelativeURL: f.ServerRelativeURL,
		Length:            length,
		MajorVersion:      f.MajorVersion,
		MinorVersion:      f.MinorVersion,
		TimeCreated:       parseTimestamp(f.TimeCreated, "TimeCreated", f.Name, logger),
		TimeLastModified:  parseTimestamp(f.TimeLastModified, "TimeLastModified", f.Name, logger),
	}
}

// toFolder normalizes a SharePoint folder response into our Folder type.
func (f *folderResponse) toFolder(logger *slog.Logger) Folder {
	return Folder{
		UniqueID:          f.UniqueID,
		Name:              f.Name,
		ServerRelativeURL: f.ServerRelativeURL,
		ItemCount:         f.ItemCount,
		TimeCreated:       parseTimestamp(f.TimeCreated, "TimeCreated", f.Name, logger),
		TimeLastModified:  parseTimestamp(f.TimeLastModified, "TimeLastModified", f.Name, logger),
	}
}

// parseTimestamp parses an RFC3339 timestamp from the API.
// Invalid timestamps are logged and returned as the zero time.
func parseTimestamp(raw, field, name string, logger *slog.Logger) time.Time {
	if raw == "" {
		return time.Time{}
	}

	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		logger.Warn("invalid timestamp",
			slog.String("field", field),
			slog.String("item", name),
			slog.String("raw", raw),
			slog.String("error", err.Error()),
		)

		return time.Time{}
	}

	return t
}
