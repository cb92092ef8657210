// Package update fetches and installs released airev binaries in place.
package update

import (
	"archive/tar"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/wizardengineer/airev-sub001/internal/version"
)

const releaseAPIURL = "https://api.github.com/repos/wizardengineer/airev/releases/latest"

// Release is the subset of the GitHub release payload the updater reads.
type Release struct {
	TagName string  `json:"tag_name"`
	Body    string  `json:"body"`
	Assets  []Asset `json:"assets"`
}

type Asset struct {
	Name               string `json:"name"`
	Size               int64  `json:"size"`
	BrowserDownloadURL string `json:"browser_download_url"`
}

// Info describes an available update for this platform.
type Info struct {
	CurrentVersion string
	LatestVersion  string
	DownloadURL    string
	AssetName      string
	Size           int64
	Checksum       string // sha256 of the archive, required before install
}

// Check queries the latest release. Returns (nil, nil) when the running
// binary is already current.
func Check() (*Info, error) {
	release, err := fetchLatestRelease()
	if err != nil {
		return nil, fmt.Errorf("check for updates: %w", err)
	}

	latest := strings.TrimPrefix(release.TagName, "v")
	current := strings.TrimPrefix(version.Version, "v")
	if !isNewer(latest, current) {
		return nil, nil
	}

	// Asset naming: airev_<version>_<os>_<arch>.tar.gz
	assetName := fmt.Sprintf("airev_%s_%s_%s.tar.gz", latest, runtime.GOOS, runtime.GOARCH)
	var asset, sums *Asset
	for i := range release.Assets {
		switch release.Assets[i].Name {
		case assetName:
			asset = &release.Assets[i]
		case "checksums.txt", "SHA256SUMS":
			sums = &release.Assets[i]
		}
	}
	if asset == nil {
		return nil, fmt.Errorf("no release asset for %s/%s", runtime.GOOS, runtime.GOARCH)
	}

	checksum := ""
	if sums != nil {
		checksum, _ = fetchChecksum(sums.BrowserDownloadURL, assetName)
	}
	if checksum == "" {
		checksum = extractChecksum(release.Body, assetName)
	}

	return &Info{
		CurrentVersion: version.Version,
		LatestVersion:  release.TagName,
		DownloadURL:    asset.BrowserDownloadURL,
		AssetName:      asset.Name,
		Size:           asset.Size,
		Checksum:       checksum,
	}, nil
}

// Apply downloads the archive, verifies its checksum, and swaps the running
// binary. The old binary is kept as .old until the swap succeeds.
func Apply(info *Info, progress func(done, total int64)) error {
	if info.Checksum == "" {
		return fmt.Errorf("release %s has no checksum; refusing to install unverified binary", info.LatestVersion)
	}

	tempDir, err := os.MkdirTemp("", "airev-update-*")
	if err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	archivePath := filepath.Join(tempDir, info.AssetName)
	sum, err := download(info.DownloadURL, archivePath, info.Size, progress)
	if err != nil {
		return fmt.Errorf("download: %w", err)
	}
	if !strings.EqualFold(sum, info.Checksum) {
		return fmt.Errorf("checksum mismatch: expected %s, got %s", info.Checksum, sum)
	}

	extractDir := filepath.Join(tempDir, "extracted")
	if err := extractTarGz(archivePath, extractDir); err != nil {
		return fmt.Errorf("extract: %w", err)
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locate current binary: %w", err)
	}
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return fmt.Errorf("resolve binary path: %w", err)
	}

	name := "airev"
	if runtime.GOOS == "windows" {
		name = "airev.exe"
	}
	src := filepath.Join(extractDir, name)
	if _, err := os.Stat(src); err != nil {
		return fmt.Errorf("archive is missing the %s binary: %w", name, err)
	}

	backup := exe + ".old"
	os.Remove(backup)
	if err := os.Rename(exe, backup); err != nil {
		return fmt.Errorf("back up current binary: %w", err)
	}
	if err := copyFile(src, exe); err != nil {
		os.Rename(backup, exe)
		return fmt.Errorf("install new binary: %w", err)
	}
	if runtime.GOOS != "windows" {
		if err := os.Chmod(exe, 0755); err != nil {
			return fmt.Errorf("chmod new binary: %w", err)
		}
	}
	os.Remove(backup)
	return nil
}

func fetchLatestRelease() (*Release, error) {
	req, err := http.NewRequest("GET", releaseAPIURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", "airev/"+version.Version)

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GitHub API returned %s", resp.Status)
	}

	var release Release
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return nil, err
	}
	return &release, nil
}

func download(url, dest string, total int64, progress func(done, total int64)) (string, error) {
	resp, err := http.Get(url)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download failed: %s", resp.Status)
	}

	out, err := os.Create(dest)
	if err != nil {
		return "", err
	}
	defer out.Close()

	hasher := sha256.New()
	w := io.MultiWriter(out, hasher)

	var done int64
	buf := make([]byte, 32*1024)
	for {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return "", werr
			}
			done += int64(n)
			if progress != nil {
				progress(done, total)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

func extractTarGz(archivePath, destDir string) error {
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return err
	}
	absDest, err := filepath.Abs(destDir)
	if err != nil {
		return err
	}

	f, err := os.Open(archivePath)
	if err != nil {
		return err
	}
	defer f.Close()

	gzr, err := gzip.NewReader(f)
	if err != nil {
		return err
	}
	defer gzr.Close()

	tr := tar.NewReader(gzr)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		target, err := safeJoin(absDest, hdr.Name)
		if err != nil {
			return fmt.Errorf("tar entry %q: %w", hdr.Name, err)
		}
		// Links could point anywhere; a release archive never needs them.
		if hdr.Typeflag == tar.TypeSymlink || hdr.Typeflag == tar.TypeLink {
			continue
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return err
			}
			out, err := os.Create(target)
			if err != nil {
				return err
			}
			if _, err := io.Copy(out, tr); err != nil {
				out.Close()
				return err
			}
			out.Close()
			if err := os.Chmod(target, os.FileMode(hdr.Mode)); err != nil {
				return err
			}
		}
	}
}

// safeJoin resolves a tar entry name under destDir, rejecting absolute paths
// and traversal.
func safeJoin(destDir, name string) (string, error) {
	if strings.HasPrefix(name, "/") {
		return "", fmt.Errorf("absolute path not allowed")
	}
	clean := filepath.Clean(name)
	if filepath.IsAbs(clean) {
		return "", fmt.Errorf("absolute path not allowed")
	}
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path traversal not allowed")
	}
	target := filepath.Join(destDir, clean)
	if target != destDir && !strings.HasPrefix(target, destDir+string(filepath.Separator)) {
		return "", fmt.Errorf("path escapes destination")
	}
	return target, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}

func fetchChecksum(url, assetName string) (string, error) {
	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch checksums: %s", resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return extractChecksum(string(body), assetName), nil
}

var sha256Pattern = regexp.MustCompile(`(?i)\b[a-f0-9]{64}\b`)

// extractChecksum finds the sha256 for assetName in sha256sum-style text
// (also tolerates "name: checksum" lines in release notes).
func extractChecksum(text, assetName string) string {
	for _, line := range strings.Split(text, "\n") {
		if !strings.Contains(line, assetName) {
			continue
		}
		if m := sha256Pattern.FindString(line); m != "" {
			return strings.ToLower(m)
		}
	}
	return ""
}

// baseSemver strips a leading v and any prerelease/describe suffix, returning
// "" when the version carries no semver at all (pure hash dev builds).
func baseSemver(v string) string {
	v = strings.TrimPrefix(v, "v")
	if v == "" || v[0] < '0' || v[0] > '9' || !strings.Contains(v, ".") {
		return ""
	}
	if i := strings.Index(v, "-"); i > 0 {
		v = v[:i]
	}
	return v
}

// isNewer compares two versions by their semver base. Dev builds without a
// semver base never trigger an update: their relation to releases is unknown.
func isNewer(candidate, current string) bool {
	cand := baseSemver(candidate)
	cur := baseSemver(current)
	if cand == "" || cur == "" {
		return false
	}

	cp := strings.Split(cand, ".")
	rp := strings.Split(cur, ".")
	for i := 0; i < 3; i++ {
		var a, b int
		if i < len(cp) {
			a, _ = strconv.Atoi(cp[i])
		}
		if i < len(rp) {
			b, _ = strconv.Atoi(rp[i])
		}
		if a != b {
			return a > b
		}
	}
	return false
}

// FormatSize renders bytes for the download progress line.
func FormatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
