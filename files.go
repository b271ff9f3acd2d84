package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

func newLsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls [folder]",
		Short: "List files and folders",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLs,
	}
}

func newFoldersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "folders [folder]",
		Short: "List subfolders",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runFolders,
	}
}

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <remote-path> [local-dir]",
		Short: "Download a file",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  runGet,
	}
}

func newPutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "put <local-path> [remote-folder]",
		Short: "Upload a file",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  runPut,
	}
}

func newMkdirCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mkdir <path>",
		Short: "Create a folder",
		Args:  cobra.ExactArgs(1),
		RunE:  runMkdir,
	}
}

func newStatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stat [folder]",
		Short: "Display file metadata for a folder",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runStat,
	}
}

// cleanRemotePath strips leading/trailing slashes, returns "" for the
// document library root.
func cleanRemotePath(path string) string {
	return strings.Trim(path, "/")
}

// splitParentAndName splits a remote path into parent path and name.
// For "foo/bar/baz" returns ("foo/bar", "baz").
// For "baz" returns ("", "baz").
func splitParentAndName(path string) (string, string) {
	clean := cleanRemotePath(path)
	idx := strings.LastIndex(clean, "/")

	if idx < 0 {
		return "", clean
	}

	return clean[:idx], clean[idx+1:]
}

// optionalFolderArg returns the folder argument or "" (library root).
func optionalFolderArg(args []string) string {
	if len(args) == 0 {
		return ""
	}

	return cleanRemotePath(args[0])
}

func runLs(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	folder := optionalFolderArg(args)

	client, err := newClient(ctx)
	if err != nil {
		return err
	}

	folders, err := client.ListFolders(ctx, folder)
	if err != nil {
		return fmt.Errorf("listing folders in %q: %w", folder, err)
	}

	files, err := client.ListFiles(ctx, folder)
	if err != nil {
		return fmt.Errorf("listing files in %q: %w", folder, err)
	}

	if flagJSON {
		return printJSON(map[string]any{"folders": folders, "files": files})
	}

	rows := make([][]string, 0, len(folders)+len(files))
	for _, f := range folders {
		rows = append(rows, []string{f.Name + "/", "-", formatTime(f.TimeLastModified)})
	}

	for _, f := range files {
		rows = append(rows, []string{f.Name, formatSize(f.Length), formatTime(f.TimeLastModified)})
	}

	printTable(os.Stdout, lsHeaders(), rows)

	return nil
}

func runFolders(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	folder := optionalFolderArg(args)

	client, err := newClient(ctx)
	if err != nil {
		return err
	}

	folders, err := client.ListFolders(ctx, folder)
	if err != nil {
		return fmt.Errorf("listing folders in %q: %w", folder, err)
	}

	if flagJSON {
		return printJSON(folders)
	}

	rows := make([][]string, 0, len(folders))
	for _, f := range folders {
		rows = append(rows, []string{f.Name, fmt.Sprintf("%d", f.ItemCount), formatTime(f.TimeLastModified)})
	}

	printTable(os.Stdout, foldersHeaders(), rows)

	return nil
}

func runGet(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	remotePath := cleanRemotePath(args[0])

	localDir := "."
	if len(args) > 1 {
		localDir = args[1]
	}

	client, err := newClient(ctx)
	if err != nil {
		return err
	}

	if err := client.DownloadFile(ctx, remotePath, localDir); err != nil {
		return err
	}

	statusf("downloaded %s to %s\n", remotePath, filepath.Join(localDir, filepath.Base(remotePath)))

	return nil
}

func runPut(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	localPath := args[0]

	remoteFolder := ""
	if len(args) > 1 {
		remoteFolder = cleanRemotePath(args[1])
	}

	client, err := newClient(ctx)
	if err != nil {
		return err
	}

	if err := client.UploadFile(ctx, localPath, remoteFolder); err != nil {
		return err
	}

	statusf("uploaded %s to %s\n", localPath, remoteFolder+"/"+filepath.Base(localPath))

	return nil
}

func runMkdir(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	parent, name := splitParentAndName(args[0])

	if name == "" {
		return fmt.Errorf("mkdir: empty folder name")
	}

	client, err := newClient(ctx)
	if err != nil {
		return err
	}

	if err := client.CreateFolder(ctx, parent, name); err != nil {
		return err
	}

	statusf("created folder %s\n", cleanRemotePath(args[0]))

	return nil
}

func runStat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	folder := optionalFolderArg(args)

	client, err := newClient(ctx)
	if err != nil {
		return err
	}

	meta, err := client.GetFileMetadata(ctx, folder)
	if err != nil {
		return fmt.Errorf("getting metadata for %q: %w", folder, err)
	}

	if flagJSON {
		return printJSON(meta)
	}

	rows := make([][]string, 0, len(meta))
	for _, m := range meta {
		rows = append(rows, []string{
			m.FileName,
			fmt.Sprintf("%d.%d", m.MajorVersion, m.MinorVersion),
			formatSize(m.FileSize),
			formatTime(m.TimeCreated),
			formatTime(m.TimeLastModified),
			m.FileID,
		})
	}

	printTable(os.Stdout, statHeaders(), rows)

	return nil
}

// lsHeaders returns the ls table header, or nil when stdout is piped so
// output stays machine-friendly.
func lsHeaders() []string {
	if !stdoutIsTerminal() {
		return nil
	}

	return []string{"NAME", "SIZE", "MODIFIED"}
}

func foldersHeaders() []string {
	if !stdoutIsTerminal() {
		return nil
	}

	return []string{"NAME", "ITEMS", "MODIFIED"}
}

func statHeaders() []string {
	if !stdoutIsTerminal() {
		return nil
	}

	return []string{"NAME", "VERSION", "SIZE", "CREATED", "MODIFIED", "ID"}
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}
