// Package testutil provides a fake in-memory SharePoint server for package
// tests. It implements the subset of the SharePoint Online surface this
// project talks to: the security token service, the federated sign-in
// endpoint, contextinfo, and the folder/file REST methods.
package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Fixed fake credentials artifacts.
const (
	fakeSecurityToken = "t=FakeSecurityToken"
	fakeFedAuth       = "fake-fedauth"
	fakeRtFa          = "fake-rtfa"
	fakeDigest        = "0xFAKEDIGEST,23 Aug 2026 00:00:00 -0000"
	fakeBearerToken   = "fake-bearer-token"
)

var (
	getFolderRe  = regexp.MustCompile(`^/web/GetFolderByServerRelativeUrl\('(.*)'\)$`)
	addFolderRe  = regexp.MustCompile(`^/web/GetFolderByServerRelativeUrl\('(.*)'\)/Folders/Add\('(.*)'\)$`)
	addFileRe    = regexp.MustCompile(`^/web/GetFolderByServerRelativeUrl\('(.*)'\)/Files/Add\(url='(.*)',overwrite=true\)$`)
	openBinaryRe = regexp.MustCompile(`^/web/GetFileByServerRelativeUrl\('(.*)'\)/\$value$`)
)

type fakeFile struct {
	uniqueID     string
	name         string
	content      []byte
	majorVersion int
	created      time.Time
	modified     time.Time
}

type fakeFolder struct {
	uniqueID string
	name     string
	created  time.Time
}

// fileJSON and folderJSON mirror the wire shape the real API produces.
// Length is serialized as a string, matching SharePoint's Edm.Int64 quirk.
type fileJSON struct {
	UniqueID          string `json:"UniqueId"`
	Name              string `json:"Name"`
	ServerRelativeURL string `json:"ServerRelativeUrl"`
	Length            string `json:"Length"`
	MajorVersion      int    `json:"MajorVersion"`
	MinorVersion      int    `json:"MinorVersion"`
	TimeCreated       string `json:"TimeCreated"`
	TimeLastModified  string `json:"TimeLastModified"`
}

type folderJSON struct {
	UniqueID          string       `json:"UniqueId"`
	Name              string       `json:"Name"`
	ServerRelativeURL string       `json:"ServerRelativeUrl"`
	ItemCount         int          `json:"ItemCount"`
	Exists            bool         `json:"Exists"`
	TimeCreated       string       `json:"TimeCreated"`
	TimeLastModified  string       `json:"TimeLastModified"`
	Files             []fileJSON   `json:"Files,omitempty"`
	Folders           []folderJSON `json:"Folders,omitempty"`
}

// FakeSharePoint is an in-memory SharePoint site served over httptest.
// Folder keys are server-relative paths like
// "/sites/test/Shared Documents/General".
type FakeSharePoint struct {
	Username string
	Password string
	Site     string
	Library  string

	srv *httptest.Server

	mu      sync.Mutex
	folders map[string]*fakeFolder
	files   map[string]map[string]*fakeFile // folder path -> file name -> file

	// Call counters for assertions.
	STSCalls         int
	SigninCalls      int
	ContextInfoCalls int
	TokenCalls       int
}

// NewFakeSharePoint starts a fake site for the given credentials. The
// document library root folder is pre-created. Callers must Close it.
func NewFakeSharePoint(username, password, site, library string) *FakeSharePoint {
	f := &FakeSharePoint{
		Username: username,
		Password: password,
		Site:     site,
		Library:  library,
		folders:  make(map[string]*fakeFolder),
		files:    make(map[string]map[string]*fakeFile),
	}

	f.addFolderLocked(f.LibraryRoot())

	f.srv = httptest.NewServer(http.HandlerFunc(f.handle))

	return f
}

// Close shuts the fake server down.
func (f *FakeSharePoint) Close() {
	f.srv.Close()
}

// BaseURL returns the tenant root URL of the fake.
func (f *FakeSharePoint) BaseURL() string {
	return f.srv.URL
}

// SiteURL returns the site URL of the fake.
func (f *FakeSharePoint) SiteURL() string {
	return f.srv.URL + "/sites/" + f.Site
}

// STSURL returns the fake security token service endpoint.
func (f *FakeSharePoint) STSURL() string {
	return f.srv.URL + "/extSTS.srf"
}

// TokenURL returns the fake ACS token endpoint for app-only auth.
func (f *FakeSharePoint) TokenURL() string {
	return f.srv.URL + "/tokens/OAuth/2"
}

// LibraryRoot returns the server-relative path of the document library root.
func (f *FakeSharePoint) LibraryRoot() string {
	return "/sites/" + f.Site + "/" + f.Library
}

// MustAddFolder creates a folder (and any missing parents) at the given
// path relative to the document library root.
func (f *FakeSharePoint) MustAddFolder(rel string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	p := f.LibraryRoot()
	for _, seg := range strings.Split(strings.Trim(rel, "/"), "/") {
		p = p + "/" + seg
		f.addFolderLocked(p)
	}
}

// FileContent returns the stored content of a file, if present. rel is the
// folder path relative to the library root.
func (f *FakeSharePoint) FileContent(rel, name string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	folderPath := f.LibraryRoot()
	if rel != "" {
		folderPath += "/" + strings.Trim(rel, "/")
	}

	file, ok := f.files[folderPath][name]
	if !ok {
		return nil, false
	}

	return file.content, true
}

func (f *FakeSharePoint) addFolderLocked(serverRelPath string) {
	if _, ok := f.folders[serverRelPath]; ok {
		return
	}

	segs := strings.Split(serverRelPath, "/")

	f.folders[serverRelPath] = &fakeFolder{
		uniqueID: uuid.NewString(),
		name:     segs[len(segs)-1],
		created:  time.Now().UTC().Truncate(time.Second),
	}
	f.files[serverRelPath] = make(map[string]*fakeFile)
}

func (f *FakeSharePoint) handle(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/extSTS.srf":
		f.handleSTS(w, r)
	case r.URL.Path == "/_forms/default.aspx":
		f.handleSignin(w, r)
	case r.URL.Path == "/tokens/OAuth/2":
		f.handleToken(w, r)
	case strings.HasPrefix(r.URL.Path, "/sites/"+f.Site+"/_api/"):
		f.handleAPI(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (f *FakeSharePoint) handleSTS(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.STSCalls++
	f.mu.Unlock()

	body, _ := io.ReadAll(r.Body) //nolint:errcheck // test fake
	envelope := string(body)

	if !strings.Contains(envelope, ">"+f.Username+"<") || !strings.Contains(envelope, ">"+f.Password+"<") {
		fmt.Fprint(w, `<S:Envelope xmlns:S="http://www.w3.org/2003/05/soap-envelope">
  <S:Body>
    <S:Fault>
      <S:Detail>
        <psf:error xmlns:psf="http://schemas.microsoft.com/Passport/SoapServices/SOAPFault">
          <psf:internalerror>
            <psf:text>AADSTS50126: Error validating credentials due to invalid username or password.</psf:text>
          </psf:internalerror>
        </psf:error>
      </S:Detail>
    </S:Fault>
  </S:Body>
</S:Envelope>`)

		return
	}

	fmt.Fprintf(w, `<S:Envelope xmlns:S="http://www.w3.org/2003/05/soap-envelope"
    xmlns:wst="http://schemas.xmlsoap.org/ws/2005/02/trust"
    xmlns:wsse="http://docs.oasis-open.org/wss/2004/01/oasis-200401-wss-wssecurity-secext-1.0.xsd">
  <S:Body>
    <wst:RequestSecurityTokenResponse>
      <wst:RequestedSecurityToken>
        <wsse:BinarySecurityToken Id="Compact0">%s</wsse:BinarySecurityToken>
      </wst:RequestedSecurityToken>
    </wst:RequestSecurityTokenResponse>
  </S:Body>
</S:Envelope>`, fakeSecurityToken)
}

func (f *FakeSharePoint) handleSignin(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.SigninCalls++
	f.mu.Unlock()

	body, _ := io.ReadAll(r.Body) //nolint:errcheck // test fake

	if string(body) != fakeSecurityToken {
		w.WriteHeader(http.StatusForbidden)

		return
	}

	http.SetCookie(w, &http.Cookie{Name: "FedAuth", Value: fakeFedAuth, Path: "/"})
	http.SetCookie(w, &http.Cookie{Name: "rtFa", Value: fakeRtFa, Path: "/"})
	w.Header().Set("Location", f.SiteURL())
	w.WriteHeader(http.StatusFound)
}

func (f *FakeSharePoint) handleToken(w http.ResponseWriter, _ *http.Request) {
	f.mu.Lock()
	f.TokenCalls++
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"access_token":%q,"token_type":"Bearer","expires_in":3600}`, fakeBearerToken)
}

// authorized reports whether the request carries a valid session cookie or
// bearer token.
func (f *FakeSharePoint) authorized(r *http.Request) bool {
	if c, err := r.Cookie("FedAuth"); err == nil && c.Value == fakeFedAuth {
		return true
	}

	return r.Header.Get("Authorization") == "Bearer "+fakeBearerToken
}

func (f *FakeSharePoint) handleAPI(w http.ResponseWriter, r *http.Request) {
	if !f.authorized(r) {
		http.Error(w, "403 FORBIDDEN", http.StatusForbidden)

		return
	}

	apiPath := strings.TrimPrefix(r.URL.Path, "/sites/"+f.Site+"/_api")

	if apiPath == "/contextinfo" && r.Method == http.MethodPost {
		f.mu.Lock()
		f.ContextInfoCalls++
		f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"FormDigestValue":%q,"FormDigestTimeoutSeconds":1800,"WebFullUrl":%q}`, fakeDigest, f.SiteURL())

		return
	}

	// All other write operations require a valid form digest.
	if r.Method != http.MethodGet && r.Header.Get("X-RequestDigest") != fakeDigest {
		http.Error(w, `{"error":"The security validation for this page is invalid."}`, http.StatusForbidden)

		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case r.Method == http.MethodPost && addFolderRe.MatchString(apiPath):
		m := addFolderRe.FindStringSubmatch(apiPath)
		f.createFolder(w, unquoteArg(m[1]), unquoteArg(m[2]))
	case r.Method == http.MethodPost && addFileRe.MatchString(apiPath):
		m := addFileRe.FindStringSubmatch(apiPath)
		body, _ := io.ReadAll(r.Body) //nolint:errcheck // test fake
		f.uploadFile(w, unquoteArg(m[1]), unquoteArg(m[2]), body)
	case r.Method == http.MethodGet && openBinaryRe.MatchString(apiPath):
		m := openBinaryRe.FindStringSubmatch(apiPath)
		f.serveBinary(w, unquoteArg(m[1]))
	case r.Method == http.MethodGet && getFolderRe.MatchString(apiPath):
		m := getFolderRe.FindStringSubmatch(apiPath)
		expand := r.URL.Query().Get("$expand")
		f.serveFolder(w, unquoteArg(m[1]), strings.Contains(expand, "Files"), strings.Contains(expand, "Folders"))
	default:
		http.NotFound(w, r)
	}
}

// unquoteArg undoes the OData single-quote doubling in method arguments.
func unquoteArg(s string) string {
	return strings.ReplaceAll(s, "''", "'")
}

func notFoundJSON(w http.ResponseWriter, path string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	fmt.Fprintf(w, `{"error":{"message":"File Not Found: %s"}}`, path)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")

	_ = json.NewEncoder(w).Encode(v) //nolint:errcheck // test fake
}

func (ff *fakeFile) toJSON(folderPath string) fileJSON {
	return fileJSON{
		UniqueID:          ff.uniqueID,
		Name:              ff.name,
		ServerRelativeURL: folderPath + "/" + ff.name,
		Length:            fmt.Sprintf("%d", len(ff.content)),
		MajorVersion:      ff.majorVersion,
		MinorVersion:      0,
		TimeCreated:       ff.created.Format(time.RFC3339),
		TimeLastModified:  ff.modified.Format(time.RFC3339),
	}
}

// folderToJSON builds the folder response; caller holds the lock.
func (f *FakeSharePoint) folderToJSON(path string, withFiles, withFolders bool) folderJSON {
	folder := f.folders[path]

	out := folderJSON{
		UniqueID:          folder.uniqueID,
		Name:              folder.name,
		ServerRelativeURL: path,
		ItemCount:         len(f.files[path]) + len(f.childFolders(path)),
		Exists:            true,
		TimeCreated:       folder.created.Format(time.RFC3339),
		TimeLastModified:  folder.created.Format(time.RFC3339),
	}

	if withFiles {
		out.Files = make([]fileJSON, 0, len(f.files[path]))
		for _, file := range f.files[path] {
			out.Files = append(out.Files, file.toJSON(path))
		}
	}

	if withFolders {
		for _, child := range f.childFolders(path) {
			out.Folders = append(out.Folders, f.folderToJSON(child, false, false))
		}
	}

	return out
}

// childFolders returns the paths of folders directly under parent.
func (f *FakeSharePoint) childFolders(parent string) []string {
	var children []string

	for p := range f.folders {
		if strings.HasPrefix(p, parent+"/") && !strings.Contains(strings.TrimPrefix(p, parent+"/"), "/") {
			children = append(children, p)
		}
	}

	return children
}

func (f *FakeSharePoint) serveFolder(w http.ResponseWriter, path string, withFiles, withFolders bool) {
	if _, ok := f.folders[path]; !ok {
		notFoundJSON(w, path)

		return
	}

	writeJSON(w, f.folderToJSON(path, withFiles, withFolders))
}

func (f *FakeSharePoint) createFolder(w http.ResponseWriter, parent, name string) {
	if _, ok := f.folders[parent]; !ok {
		notFoundJSON(w, parent)

		return
	}

	// SharePoint's Folders/Add returns the existing folder on collision.
	path := parent + "/" + name
	f.addFolderLocked(path)

	writeJSON(w, f.folderToJSON(path, false, false))
}

func (f *FakeSharePoint) uploadFile(w http.ResponseWriter, folderPath, name string, content []byte) {
	if _, ok := f.folders[folderPath]; !ok {
		notFoundJSON(w, folderPath)

		return
	}

	now := time.Now().UTC().Truncate(time.Second)

	file, exists := f.files[folderPath][name]
	if exists {
		file.content = content
		file.majorVersion++
		file.modified = now
	} else {
		file = &fakeFile{
			uniqueID:     uuid.NewString(),
			name:         name,
			content:      content,
			majorVersion: 1,
			created:      now,
			modified:     now,
		}
		f.files[folderPath][name] = file
	}

	writeJSON(w, file.toJSON(folderPath))
}

func (f *FakeSharePoint) serveBinary(w http.ResponseWriter, filePath string) {
	idx := strings.LastIndex(filePath, "/")
	if idx < 0 {
		notFoundJSON(w, filePath)

		return
	}

	folderPath, name := filePath[:idx], filePath[idx+1:]

	file, ok := f.files[folderPath][name]
	if !ok {
		notFoundJSON(w, filePath)

		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	_, _ = w.Write(file.content) //nolint:errcheck // test fake
}
