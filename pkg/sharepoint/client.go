package sharepoint

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/spgo/sharepoint-go/internal/spapi"
)

// DefaultDocumentLibrary is the document library used when Config leaves
// DocumentLibrary empty.
const DefaultDocumentLibrary = "Shared Documents"

// Permissions for files and directories created by DownloadFile.
const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// Config holds the connection parameters for a Client. All fields except
// DocumentLibrary are required when authenticating with user credentials.
// Config is copied at construction and never mutated afterwards.
type Config struct {
	// BaseURL is the tenant root, e.g. "https://contoso.sharepoint.com".
	BaseURL string
	// Username and Password are the user credentials presented to the
	// security token service.
	Username string
	Password string
	// SiteName is the site path segment, e.g. "ps.all" for
	// "https://contoso.sharepoint.com/sites/ps.all".
	SiteName string
	// DocumentLibrary defaults to DefaultDocumentLibrary.
	DocumentLibrary string
}

// FileInfo describes a file handle returned by ListFiles.
type FileInfo struct {
	UniqueID          string
	Name              string
	ServerRelativeURL string
	Length            int64
	MajorVersion      int
	MinorVersion      int
	TimeCreated       time.Time
	TimeLastModified  time.Time
}

// FolderInfo describes a folder handle returned by ListFolders.
type FolderInfo struct {
	UniqueID          string
	Name              string
	ServerRelativeURL string
	ItemCount         int
	TimeCreated       time.Time
	TimeLastModified  time.Time
}

// FileMetadata is the read-only metadata projection returned by
// GetFileMetadata. It reflects remote state at query time and is not
// persisted anywhere.
type FileMetadata struct {
	FileID           string
	FileName         string
	MajorVersion     int
	MinorVersion     int
	FileSize         int64
	TimeCreated      time.Time
	TimeLastModified time.Time
}

type options struct {
	httpClient *http.Client
	logger     *slog.Logger
	stsURL     string
	authorizer spapi.Authorizer
	userAgent  string
}

// Option customizes client construction.
type Option func(*options)

// WithHTTPClient sets the HTTP client used for all requests, including
// authentication. Timeout behavior is inherited from this client as-is.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.httpClient = hc }
}

// WithLogger sets the logger. The client logs through it at debug/info
// level only; it never logs credentials.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithSTSURL overrides the security token service endpoint used for
// user-credential authentication. Intended for tests and sovereign clouds.
func WithSTSURL(u string) Option {
	return func(o *options) { o.stsURL = u }
}

// WithAuthorizer supplies a pre-built authorizer (e.g. app-only OAuth),
// bypassing user-credential authentication. Username and Password are
// ignored when this option is set.
func WithAuthorizer(a spapi.Authorizer) Option {
	return func(o *options) { o.authorizer = a }
}

// WithUserAgent overrides the User-Agent header on all requests.
func WithUserAgent(ua string) Option {
	return func(o *options) { o.userAgent = ua }
}

// Client is a session-holding client for one SharePoint site's document
// library. Construct it with New; the zero value is not usable.
//
// The client holds one authenticated session for its lifetime and is
// intended for single-threaded use.
type Client struct {
	cfg    Config
	api    *spapi.Client
	logger *slog.Logger
}

// New authenticates against the site and returns a ready Client.
// Authentication is eager: rejected credentials or an unreachable site fail
// here with *AuthError, and no client is produced.
func New(ctx context.Context, cfg Config, opts ...Option) (*Client, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	if cfg.BaseURL == "" || cfg.SiteName == "" {
		return nil, errors.New("sharepoint: BaseURL and SiteName are required")
	}

	if o.logger == nil {
		o.logger = slog.Default()
	}

	if cfg.DocumentLibrary == "" {
		cfg.DocumentLibrary = DefaultDocumentLibrary
	}

	siteURL := strings.TrimRight(cfg.BaseURL, "/") + "/sites/" + cfg.SiteName

	auth := o.authorizer
	if auth == nil {
		var err error

		auth, err = spapi.AuthenticateUser(ctx, o.httpClient, siteURL, cfg.Username, cfg.Password, o.stsURL, o.logger)
		if err != nil {
			return nil, &AuthError{Site: siteURL, Err: err}
		}
	}

	return &Client{
		cfg:    cfg,
		api:    spapi.NewClient(siteURL, o.httpClient, auth, o.logger, o.userAgent),
		logger: o.logger,
	}, nil
}

// serverRelative builds the server-relative path for a caller-supplied
// path relative to the document library:
// "/sites/{site}/{library}/{rel}". An empty rel addresses the library root.
func (c *Client) serverRelative(rel string) string {
	base := "/sites/" + c.cfg.SiteName + "/" + c.cfg.DocumentLibrary

	rel = strings.Trim(rel, "/")
	if rel == "" {
		return base
	}

	return base + "/" + rel
}

// resolveFolder resolves a caller-supplied folder path into a remote folder
// handle. Every folder-scoped operation calls this before its body runs;
// handles are recomputed per call, never cached.
func (c *Client) resolveFolder(ctx context.Context, folder string) (*spapi.Folder, error) {
	p := c.serverRelative(folder)

	f, err := c.api.GetFolder(ctx, p)
	if err != nil {
		return nil, &RemoteError{Op: "resolving folder", Path: p, Err: err}
	}

	return f, nil
}

// UploadFile reads the local file at localPath fully into memory and
// creates or replaces a file of the same base name inside remoteFolder.
// A failed upload leaves the remote file absent or in whatever state the
// remote API's own atomicity provides; there is no rollback.
func (c *Client) UploadFile(ctx context.Context, localPath, remoteFolder string) error {
	content, err := os.ReadFile(localPath)
	if err != nil {
		return &LocalError{Op: "reading local file", Path: localPath, Err: err}
	}

	folder, err := c.resolveFolder(ctx, remoteFolder)
	if err != nil {
		return err
	}

	name := filepath.Base(localPath)

	if _, err := c.api.Upload(ctx, folder.ServerRelativeURL, name, content); err != nil {
		return &RemoteError{Op: "uploading file", Path: folder.ServerRelativeURL + "/" + name, Err: err}
	}

	return nil
}

// DownloadFile reads the full binary content of the file at remoteSource
// (relative to the document library) and writes it into the local directory
// localDestination, creating the directory tree if absent. The local file
// is named after the remote base name.
func (c *Client) DownloadFile(ctx context.Context, remoteSource, localDestination string) error {
	remotePath := c.serverRelative(remoteSource)

	content, err := c.api.OpenBinary(ctx, remotePath)
	if err != nil {
		return &RemoteError{Op: "downloading file", Path: remotePath, Err: err}
	}

	if err := os.MkdirAll(localDestination, dirPerm); err != nil {
		return &LocalError{Op: "creating destination directory", Path: localDestination, Err: err}
	}

	localPath := filepath.Join(localDestination, path.Base(remotePath))

	if err := os.WriteFile(localPath, content, filePerm); err != nil {
		return &LocalError{Op: "writing local file", Path: localPath, Err: err}
	}

	return nil
}

// CreateFolder creates a folder named newFolderName under parentFolder.
// SharePoint's folder-add call is idempotent on name collision: creating an
// existing name succeeds and no duplicate entry appears in ListFolders.
func (c *Client) CreateFolder(ctx context.Context, parentFolder, newFolderName string) error {
	folder, err := c.resolveFolder(ctx, parentFolder)
	if err != nil {
		return err
	}

	if _, err := c.api.CreateFolder(ctx, folder.ServerRelativeURL, newFolderName); err != nil {
		return &RemoteError{Op: "creating folder", Path: folder.ServerRelativeURL + "/" + newFolderName, Err: err}
	}

	return nil
}

// ListFiles returns the files directly inside parentFolder, in the order
// the remote API reports them. On error no partial list is returned.
func (c *Client) ListFiles(ctx context.Context, parentFolder string) ([]FileInfo, error) {
	folder, err := c.resolveFolder(ctx, parentFolder)
	if err != nil {
		return nil, err
	}

	files, err := c.api.ListFiles(ctx, folder.ServerRelativeURL)
	if err != nil {
		return nil, &RemoteError{Op: "listing files", Path: folder.ServerRelativeURL, Err: err}
	}

	infos := make([]FileInfo, 0, len(files))
	for _, f := range files {
		infos = append(infos, FileInfo(f))
	}

	return infos, nil
}

// ListFolders returns the subfolders directly inside parentFolder, in the
// order the remote API reports them.
func (c *Client) ListFolders(ctx context.Context, parentFolder string) ([]FolderInfo, error) {
	folder, err := c.resolveFolder(ctx, parentFolder)
	if err != nil {
		return nil, err
	}

	folders, err := c.api.ListFolders(ctx, folder.ServerRelativeURL)
	if err != nil {
		return nil, &RemoteError{Op: "listing folders", Path: folder.ServerRelativeURL, Err: err}
	}

	infos := make([]FolderInfo, 0, len(folders))
	for _, f := range folders {
		infos = append(infos, FolderInfo(f))
	}

	return infos, nil
}

// GetFileMetadata returns one metadata record per file in folderName, in
// ListFiles order. It performs no additional remote calls beyond the listing.
func (c *Client) GetFileMetadata(ctx context.Context, folderName string) ([]FileMetadata, error) {
	files, err := c.ListFiles(ctx, folderName)
	if err != nil {
		return nil, err
	}

	meta := make([]FileMetadata, 0, len(files))
	for _, f := range files {
		meta = append(meta, FileMetadata{
			FileID:           f.UniqueID,
			FileName:         f.Name,
			MajorVersion:     f.MajorVersion,
			MinorVersion:     f.MinorVersion,
			FileSize:         f.Length,
			TimeCreated:      f.TimeCreated,
			TimeLastModified: f.TimeLastModified,
		})
	}

	return meta, nil
}
