package spapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
)

// GetFolder resolves a folder by its server-relative path
// (e.g. "/sites/ps.all/Shared Documents/General").
func (c *Client) GetFolder(ctx context.Context, serverRelPath string) (*Folder, error) {
	c.logger.Debug("resolving folder",
		slog.String("path", serverRelPath),
	)

	path := fmt.Sprintf("/_api/web/GetFolderByServerRelativeUrl('%s')", quoteServerRelativeURL(serverRelPath))

	var fr folderResponse
	if err := c.getJSON(ctx, path, &fr); err != nil {
		return nil, err
	}

	folder := fr.toFolder(c.logger)

	return &folder, nil
}

// getFolderExpanded fetches a folder with its Files and Folders collections
// expanded in a single request. Shared by ListFiles and ListFolders.
func (c *Client) getFolderExpanded(ctx context.Context, serverRelPath string) (*folderResponse, error) {
	path := fmt.Sprintf("/_api/web/GetFolderByServerRelativeUrl('%s')?$expand=Files,Folders",
		quoteServerRelativeURL(serverRelPath))

	var fr folderResponse
	if err := c.getJSON(ctx, path, &fr); err != nil {
		return nil, err
	}

	return &fr, nil
}

// ListFiles returns the files directly inside the folder at the given
// server-relative path, in the order the API reports them.
func (c *Client) ListFiles(ctx context.Context, serverRelPath string) ([]File, error) {
	c.logger.Debug("listing files",
		slog.String("path", serverRelPath),
	)

	fr, err := c.getFolderExpanded(ctx, serverRelPath)
	if err != nil {
		return nil, err
	}

	files := make([]File, 0, len(fr.Files))
	for i := range fr.Files {
		files = append(files, fr.Files[i].toFile(c.logger))
	}

	c.logger.Debug("listed files",
		slog.String("path", serverRelPath),
		slog.Int("count", len(files)),
	)

	return files, nil
}

// ListFolders returns the subfolders directly inside the folder at the given
// server-relative path, in the order the API reports them.
func (c *Client) ListFolders(ctx context.Context, serverRelPath string) ([]Folder, error) {
	c.logger.Debug("listing folders",
		slog.String("path", serverRelPath),
	)

	fr, err := c.getFolderExpanded(ctx, serverRelPath)
	if err != nil {
		return nil, err
	}

	folders := make([]Folder, 0, len(fr.Folders))
	for i := range fr.Folders {
		folders = append(folders, fr.Folders[i].toFolder(c.logger))
	}

	c.logger.Debug("listed folders",
		slog.String("path", serverRelPath),
		slog.Int("count", len(folders)),
	)

	return folders, nil
}

// CreateFolder creates a subfolder named name under the folder at
// parentServerRelPath. SharePoint's Folders/Add is idempotent on name
// collision: it returns the existing folder rather than erroring.
func (c *Client) CreateFolder(ctx context.Context, parentServerRelPath, name string) (*Folder, error) {
	c.logger.Info("creating folder",
		slog.String("parent", parentServerRelPath),
		slog.String("name", name),
	)

	path := fmt.Sprintf("/_api/web/GetFolderByServerRelativeUrl('%s')/Folders/Add('%s')",
		quoteServerRelativeURL(parentServerRelPath), quoteServerRelativeURL(name))

	resp, err := c.Do(ctx, http.MethodPost, path, nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var fr folderResponse
	if decErr := decodeJSON(resp.Body, &fr); decErr != nil {
		return nil, decErr
	}

	folder := fr.toFolder(c.logger)

	return &folder, nil
}
