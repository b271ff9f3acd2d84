package spapi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// Upload creates or replaces a file named name inside the folder at the
// given server-relative path. The whole content is sent in one request;
// there is no chunking or resumption.
func (c *Client) Upload(ctx context.Context, folderServerRelPath, name string, content []byte) (*File, error) {
	c.logger.Info("uploading file",
		slog.String("folder", folderServerRelPath),
		slog.String("name", name),
		slog.Int("size", len(content)),
	)

	path := fmt.Sprintf("/_api/web/GetFolderByServerRelativeUrl('%s')/Files/Add(url='%s',overwrite=true)",
		quoteServerRelativeURL(folderServerRelPath), quoteServerRelativeURL(name))

	resp, err := c.Do(ctx, http.MethodPost, path, bytes.NewReader(content), "application/octet-stream")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var fr fileResponse
	if decErr := decodeJSON(resp.Body, &fr); decErr != nil {
		return nil, decErr
	}

	file := fr.toFile(c.logger)

	c.logger.Debug("upload complete",
		slog.String("path", file.ServerRelativeURL),
		slog.Int64("length", file.Length),
	)

	return &file, nil
}

// OpenBinary reads the full binary content of the file at the given
// server-relative path.
func (c *Client) OpenBinary(ctx context.Context, fileServerRelPath string) ([]byte, error) {
	c.logger.Info("downloading file",
		slog.String("path", fileServerRelPath),
	)

	path := fmt.Sprintf("/_api/web/GetFileByServerRelativeUrl('%s')/$value",
		quoteServerRelativeURL(fileServerRelPath))

	resp, err := c.Do(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("spapi: reading file content: %w", err)
	}

	c.logger.Debug("download complete",
		slog.String("path", fileServerRelPath),
		slog.Int("size", len(content)),
	)

	return content, nil
}
