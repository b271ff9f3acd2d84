package sharepoint_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spgo/sharepoint-go/internal/spapi"
	"github.com/spgo/sharepoint-go/pkg/sharepoint"
	"github.com/spgo/sharepoint-go/testutil"
)

const (
	testUser     = "user@example.com"
	testPassword = "hunter2"
	testSite     = "test"
	testLibrary  = "Shared Documents"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestClient authenticates a client against a fresh fake site.
func newTestClient(t *testing.T) (*sharepoint.Client, *testutil.FakeSharePoint) {
	t.Helper()

	fake := testutil.NewFakeSharePoint(testUser, testPassword, testSite, testLibrary)
	t.Cleanup(fake.Close)

	client, err := sharepoint.New(context.Background(), sharepoint.Config{
		BaseURL:  fake.BaseURL(),
		Username: testUser,
		Password: testPassword,
		SiteName: testSite,
	}, sharepoint.WithSTSURL(fake.STSURL()), sharepoint.WithLogger(discardLogger()))
	require.NoError(t, err)

	return client, fake
}

// writeLocalFile creates a file with the given content in a temp dir and
// returns its path.
func writeLocalFile(t *testing.T, name string, content []byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, content, 0o644))

	return path
}

func TestNew_BadCredentials(t *testing.T) {
	fake := testutil.NewFakeSharePoint(testUser, testPassword, testSite, testLibrary)
	defer fake.Close()

	client, err := sharepoint.New(context.Background(), sharepoint.Config{
		BaseURL:  fake.BaseURL(),
		Username: testUser,
		Password: "wrong",
		SiteName: testSite,
	}, sharepoint.WithSTSURL(fake.STSURL()), sharepoint.WithLogger(discardLogger()))

	require.Error(t, err)
	assert.Nil(t, client)

	var authErr *sharepoint.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Contains(t, authErr.Site, "/sites/"+testSite)
	assert.ErrorIs(t, err, sharepoint.ErrAuthFailed)
}

func TestNew_MissingConfig(t *testing.T) {
	_, err := sharepoint.New(context.Background(), sharepoint.Config{})
	require.Error(t, err)
}

func TestUploadDownload_RoundTrip(t *testing.T) {
	client, fake := newTestClient(t)
	fake.MustAddFolder("General")

	content := []byte{0x00, 0x01, 0xFE, 0xFF, 'a', '\n', 'b'}
	local := writeLocalFile(t, "blob.bin", content)

	ctx := context.Background()
	require.NoError(t, client.UploadFile(ctx, local, "General"))

	// Download into a directory that does not exist yet.
	dest := filepath.Join(t.TempDir(), "nested", "deeper")
	require.NoError(t, client.DownloadFile(ctx, "General/blob.bin", dest))

	got, err := os.ReadFile(filepath.Join(dest, "blob.bin"))
	require.NoError(t, err)
	assert.Equal(t, content, got, "round trip must be byte-identical")
}

func TestUploadFile_LocalMissing(t *testing.T) {
	client, fake := newTestClient(t)
	fake.MustAddFolder("General")

	err := client.UploadFile(context.Background(), filepath.Join(t.TempDir(), "nope.txt"), "General")
	require.Error(t, err)

	var localErr *sharepoint.LocalError
	require.ErrorAs(t, err, &localErr)
	assert.Contains(t, localErr.Path, "nope.txt")
}

func TestUploadFile_RemoteFolderMissing(t *testing.T) {
	client, _ := newTestClient(t)

	local := writeLocalFile(t, "x.txt", []byte("x"))

	err := client.UploadFile(context.Background(), local, "does/not/exist")
	require.Error(t, err)

	var remoteErr *sharepoint.RemoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.ErrorIs(t, err, sharepoint.ErrNotFound)
	assert.Contains(t, remoteErr.Path, "/sites/test/Shared Documents/does/not/exist")
}

func TestDownloadFile_RemoteMissing(t *testing.T) {
	client, fake := newTestClient(t)
	fake.MustAddFolder("General")

	err := client.DownloadFile(context.Background(), "General/missing.txt", t.TempDir())
	require.Error(t, err)

	var remoteErr *sharepoint.RemoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.ErrorIs(t, err, sharepoint.ErrNotFound)
}

func TestCreateFolder_VisibleInListFolders(t *testing.T) {
	client, fake := newTestClient(t)
	fake.MustAddFolder("General")

	ctx := context.Background()
	require.NoError(t, client.CreateFolder(ctx, "General", "x"))

	folders, err := client.ListFolders(ctx, "General")
	require.NoError(t, err)
	require.Len(t, folders, 1)
	assert.Equal(t, "x", folders[0].Name)
}

func TestCreateFolder_CollisionIsIdempotent(t *testing.T) {
	client, fake := newTestClient(t)
	fake.MustAddFolder("General")

	ctx := context.Background()
	require.NoError(t, client.CreateFolder(ctx, "General", "x"))

	// SharePoint's Folders/Add returns the existing folder on collision:
	// the second call succeeds and no duplicate entry appears.
	require.NoError(t, client.CreateFolder(ctx, "General", "x"))

	folders, err := client.ListFolders(ctx, "General")
	require.NoError(t, err)
	assert.Len(t, folders, 1)
}

func TestCreateFolder_ParentMissing(t *testing.T) {
	client, _ := newTestClient(t)

	err := client.CreateFolder(context.Background(), "missing", "x")
	require.Error(t, err)
	assert.ErrorIs(t, err, sharepoint.ErrNotFound)
}

func TestListFiles_ExactSet(t *testing.T) {
	client, fake := newTestClient(t)
	fake.MustAddFolder("General")

	ctx := context.Background()
	require.NoError(t, client.UploadFile(ctx, writeLocalFile(t, "one.txt", []byte("1")), "General"))
	require.NoError(t, client.UploadFile(ctx, writeLocalFile(t, "two.txt", []byte("22")), "General"))
	require.NoError(t, client.CreateFolder(ctx, "General", "sub"))

	files, err := client.ListFiles(ctx, "General")
	require.NoError(t, err)
	require.Len(t, files, 2, "folders must not appear in the file list")

	names := []string{files[0].Name, files[1].Name}
	assert.ElementsMatch(t, []string{"one.txt", "two.txt"}, names)
}

func TestListFiles_LibraryRoot(t *testing.T) {
	client, _ := newTestClient(t)

	ctx := context.Background()
	require.NoError(t, client.UploadFile(ctx, writeLocalFile(t, "root.txt", []byte("r")), ""))

	files, err := client.ListFiles(ctx, "")
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "root.txt", files[0].Name)
}

func TestGetFileMetadata_MatchesListFiles(t *testing.T) {
	client, fake := newTestClient(t)
	fake.MustAddFolder("General")

	ctx := context.Background()
	content := []byte("some file content")
	require.NoError(t, client.UploadFile(ctx, writeLocalFile(t, "data.txt", content), "General"))

	meta, err := client.GetFileMetadata(ctx, "General")
	require.NoError(t, err)
	require.Len(t, meta, 1)

	assert.Equal(t, "data.txt", meta[0].FileName)
	assert.Equal(t, int64(len(content)), meta[0].FileSize)
	assert.Equal(t, 1, meta[0].MajorVersion)
	assert.NotEmpty(t, meta[0].FileID)
	assert.False(t, meta[0].TimeCreated.IsZero())
	assert.False(t, meta[0].TimeLastModified.IsZero())
}

func TestGetFileMetadata_FolderMissing(t *testing.T) {
	client, _ := newTestClient(t)

	_, err := client.GetFileMetadata(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, sharepoint.ErrNotFound)
}

// Upload test.csv to General/Reports, then the listing must return exactly
// one entry named test.csv with the exact byte length.
func TestReportsScenario(t *testing.T) {
	client, fake := newTestClient(t)
	fake.MustAddFolder("General/Reports")

	ctx := context.Background()
	content := []byte("a,b,c\n1,2,3")
	require.NoError(t, client.UploadFile(ctx, writeLocalFile(t, "test.csv", content), "General/Reports"))

	files, err := client.ListFiles(ctx, "General/Reports")
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "test.csv", files[0].Name)
	assert.Equal(t, int64(11), files[0].Length)
}

func TestOverwrite_ReplacesContentAndBumpsVersion(t *testing.T) {
	client, fake := newTestClient(t)
	fake.MustAddFolder("General")

	ctx := context.Background()
	require.NoError(t, client.UploadFile(ctx, writeLocalFile(t, "doc.txt", []byte("first")), "General"))
	require.NoError(t, client.UploadFile(ctx, writeLocalFile(t, "doc.txt", []byte("second!")), "General"))

	got, ok := fake.FileContent("General", "doc.txt")
	require.True(t, ok)
	assert.Equal(t, []byte("second!"), got)

	meta, err := client.GetFileMetadata(ctx, "General")
	require.NoError(t, err)
	require.Len(t, meta, 1)
	assert.Equal(t, 2, meta[0].MajorVersion)
}

func TestNew_AppAuthorizer(t *testing.T) {
	fake := testutil.NewFakeSharePoint(testUser, testPassword, testSite, testLibrary)
	defer fake.Close()

	ctx := context.Background()

	auth, err := spapi.NewAppAuthorizer(ctx, fake.SiteURL(), spapi.AppCredentials{
		TenantID:     "tenant-1",
		ClientID:     "client-1",
		ClientSecret: "secret",
		TokenURL:     fake.TokenURL(),
	})
	require.NoError(t, err)

	client, err := sharepoint.New(ctx, sharepoint.Config{
		BaseURL:  fake.BaseURL(),
		SiteName: testSite,
	}, sharepoint.WithAuthorizer(auth), sharepoint.WithLogger(discardLogger()))
	require.NoError(t, err)

	// No user-credential flow ran.
	assert.Equal(t, 0, fake.STSCalls)

	files, err := client.ListFiles(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, files)
}
