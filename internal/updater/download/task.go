// ServerPilot - Unattended Game Server Operations Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/serverpilot

package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/tomtom215/serverpilot/internal/jobs"
	"github.com/tomtom215/serverpilot/internal/logging"
	"github.com/tomtom215/serverpilot/internal/metrics"
	"github.com/tomtom215/serverpilot/internal/updater/remote"
)

// chunkSize is the read size between two progress updates.
const chunkSize = 32 * 1024

// Opener starts a GET request. *remote.Client implements it.
type Opener interface {
	Open(ctx context.Context, url string) (*http.Response, error)
}

// InstallFunc installs a staged file. The default replaces Destination.
type InstallFunc func(ctx context.Context, staged string) error

// Task downloads one artifact and, depending on Policy, installs it.
type Task struct {
	// Name identifies the artifact in file names and status lines.
	Name    string
	Version string
	URL     string
	// Ext is the staged file extension, ".jar" when empty.
	Ext string

	Policy            Policy
	IgnoreContentType bool

	// DownloadsDir is the staging directory.
	DownloadsDir string
	// Destination is the installed file replaced under PolicyAutomatic.
	Destination string
	// Supersedes is removed after a successful install, for example the
	// old versioned jar of a mod. Empty or equal to Destination: nothing.
	Supersedes string
	// Install overrides the default file replacement.
	Install InstallFunc

	client Opener

	// Set while running; read them once the job is finished.
	staged    string
	installed bool
	bytes     int64
}

// NewTask creates a task fetching through client.
func NewTask(client Opener, name, version, url string, policy Policy) *Task {
	return &Task{Name: name, Version: version, URL: url, Policy: policy, client: client}
}

// Staged returns the downloaded file, empty when nothing was downloaded.
func (t *Task) Staged() string { return t.staged }

// Installed reports whether the update was installed.
func (t *Task) Installed() bool { return t.installed }

// Run is the job body. Under PolicyNotify the job ends unsuccessful without
// touching the network or the file system.
func (t *Task) Run(ctx context.Context, j *jobs.Job) error {
	if !t.Policy.Downloads() {
		j.SetStatus("Your profile doesn't allow downloads! Profile: %s", t.Policy.Label())
		j.Finish(false)
		metrics.RecordDownload("notify", 0)
		return nil
	}

	staged, err := t.download(ctx, j)
	if err != nil {
		metrics.RecordDownload("failed", t.bytes)
		return err
	}
	t.staged = staged

	if !t.Policy.Installs() {
		j.SetStatus("Downloaded update for %s to %s", t.Name, staged)
		metrics.RecordDownload("staged", t.bytes)
		return nil
	}

	logging.Ctx(ctx).Debug().Str("artifact", t.Name).Str("destination", t.Destination).Msg("Installing update")
	install := t.Install
	if install == nil {
		install = t.replace
	}
	if err := install(ctx, staged); err != nil {
		metrics.RecordDownload("failed", t.bytes)
		return fmt.Errorf("install %s: %w", t.Name, err)
	}
	t.installed = true
	j.SetStatus("Installed update for %s successfully!", t.Name)
	metrics.RecordDownload("installed", t.bytes)
	return nil
}

// stagedName is "<name>-[<version>]<ext>" with path separators removed.
func (t *Task) stagedName() string {
	ext := t.Ext
	if ext == "" {
		ext = ".jar"
	}
	clean := strings.NewReplacer("/", "_", "\\", "_", ":", "").Replace(t.Name)
	return fmt.Sprintf("%s-[%s]%s", clean, t.Version, ext)
}

func (t *Task) download(ctx context.Context, j *jobs.Job) (path string, err error) {
	fileName := t.stagedName()
	if t.URL == "" {
		return "", &ValidationError{Kind: MissingArtifact, File: t.Name}
	}
	if err := os.MkdirAll(t.DownloadsDir, 0o750); err != nil {
		return "", fmt.Errorf("create downloads directory: %w", err)
	}
	dest := filepath.Join(t.DownloadsDir, fileName)

	logging.Ctx(ctx).Debug().Str("file", fileName).Str("url", t.URL).Str("path", dest).Msg("Downloading")
	j.SetStatus("Downloading %s... (0kb/0kb)", fileName)

	resp, err := t.client.Open(ctx, t.URL)
	if err != nil {
		var statusErr *remote.StatusError
		if errors.As(err, &statusErr) {
			return "", &ValidationError{Kind: BadStatus, File: t.Name,
				Detail: fmt.Sprintf("code: %d message: %s url: %s", statusErr.StatusCode, http.StatusText(statusErr.StatusCode), t.URL)}
		}
		return "", err
	}
	if resp.Body != nil {
		defer func() {
			cerr := resp.Body.Close()
			switch {
			case cerr == nil:
			case err != nil:
				err = multierror.Append(err, fmt.Errorf("close response: %w", cerr)).ErrorOrNil()
			default:
				// The artifact is complete on disk.
				logging.Ctx(ctx).Warn().Err(cerr).Str("file", fileName).Msg("Failed to close download response")
			}
		}()
	}

	if err := validate(resp, t.Name, fileName, t.URL, t.IgnoreContentType); err != nil {
		return "", err
	}

	total := resp.ContentLength
	if total > 0 {
		j.SetMax(total)
	}

	f, err := os.Create(dest) //nolint:gosec // dest is built from the downloads directory
	if err != nil {
		return "", fmt.Errorf("create %s: %w", dest, err)
	}

	written, copyErr := copyWithProgress(f, resp.Body, func(n int64) {
		j.SetNow(n)
		j.SetStatus("Downloading %s... (%dkb/%dkb)", fileName, n/1024, total/1024)
	})
	t.bytes = written

	var result *multierror.Error
	if copyErr != nil {
		result = multierror.Append(result, fmt.Errorf("download %s: %w", fileName, copyErr))
	}
	if cerr := f.Close(); cerr != nil {
		result = multierror.Append(result, fmt.Errorf("close %s: %w", dest, cerr))
	}
	if err := result.ErrorOrNil(); err != nil {
		_ = os.Remove(dest) //nolint:errcheck // partial download is restarted next cycle
		return "", err
	}

	j.SetStatus("Downloaded %s (%dkb/%dkb)", fileName, written/1024, total/1024)
	return dest, nil
}

// validate rejects responses that cannot be an artifact.
func validate(resp *http.Response, name, fileName, url string, ignoreContentType bool) error {
	if resp.StatusCode != http.StatusOK {
		return &ValidationError{Kind: BadStatus, File: name,
			Detail: fmt.Sprintf("code: %d message: %s url: %s", resp.StatusCode, http.StatusText(resp.StatusCode), url)}
	}
	if resp.Body == nil || resp.Body == http.NoBody {
		return &ValidationError{Kind: NullBody, File: fileName}
	}

	header := resp.Header.Get("Content-Type")
	if header == "" {
		return &ValidationError{Kind: NullContentType, File: fileName}
	}
	mediaType, _, err := mime.ParseMediaType(header)
	if err != nil {
		return &ValidationError{Kind: NullContentType, File: fileName, Detail: header}
	}
	typ, subtype, _ := strings.Cut(mediaType, "/")
	if typ != "application" {
		return &ValidationError{Kind: WrongContentType, File: fileName, Detail: typ}
	}
	if !ignoreContentType {
		switch subtype {
		case "java-archive", "jar", "octet-stream":
		default:
			return &ValidationError{Kind: WrongSubtype, File: fileName, Detail: subtype}
		}
	}
	return nil
}

func copyWithProgress(dst io.Writer, src io.Reader, progress func(int64)) (int64, error) {
	buf := make([]byte, chunkSize)
	var written int64
	for {
		n, rerr := src.Read(buf)
		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return written, werr
			}
			written += int64(n)
			progress(written)
		}
		if rerr == io.EOF {
			return written, nil
		}
		if rerr != nil {
			return written, rerr
		}
	}
}

// replace swaps the staged file into Destination through a temporary file
// and a rename, then removes the superseded file.
func (t *Task) replace(_ context.Context, staged string) error {
	if t.Destination == "" {
		return errors.New("no install destination")
	}
	if err := os.MkdirAll(filepath.Dir(t.Destination), 0o750); err != nil {
		return err
	}
	tmp := t.Destination + ".serverpilot-tmp"
	if err := copyFile(staged, tmp); err != nil {
		_ = os.Remove(tmp) //nolint:errcheck // best effort
		return err
	}
	if err := os.Rename(tmp, t.Destination); err != nil {
		// Windows cannot rename over an existing file that is open elsewhere.
		if rmErr := os.Remove(t.Destination); rmErr != nil && !os.IsNotExist(rmErr) {
			_ = os.Remove(tmp) //nolint:errcheck // best effort
			return multierror.Append(err, rmErr)
		}
		if err := os.Rename(tmp, t.Destination); err != nil {
			return err
		}
	}
	if t.Supersedes != "" && filepath.Clean(t.Supersedes) != filepath.Clean(t.Destination) {
		if err := os.Remove(t.Supersedes); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove superseded %s: %w", t.Supersedes, err)
		}
	}
	return nil
}

func copyFile(src, dst string) (err error) {
	in, err := os.Open(src) //nolint:gosec // staged file inside the downloads directory
	if err != nil {
		return err
	}
	defer func() {
		if cerr := in.Close(); cerr != nil {
			err = multierror.Append(err, cerr).ErrorOrNil()
		}
	}()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644) //nolint:gosec // installed artifacts are world-readable
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close() //nolint:errcheck // copy error wins
		return err
	}
	return out.Close()
}
