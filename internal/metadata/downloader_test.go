package metadata

import (
	"archive/zip"
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nupkg(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	archive := zip.NewWriter(&buf)
	for name, content := range files {
		writer, err := archive.Create(name)
		require.NoError(t, err)
		_, err = writer.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, archive.Close())
	return buf.Bytes()
}

func nugetServer(t *testing.T, versions string, packages map[string][]byte) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	mux.HandleFunc("/v3/index.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"version":"3.0.0","resources":[
			{"@id":"%[1]s/search","@type":"SearchQueryService"},
			{"@id":"%[1]s/flat/","@type":"PackageBaseAddress/3.0.0"}]}`, server.URL)
	})
	mux.HandleFunc("/flat/"+nugetName+"/index.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, versions)
	})
	for version, content := range packages {
		mux.HandleFunc(fmt.Sprintf("/flat/%[1]s/%[2]s/%[1]s.%[2]s.nupkg", nugetName, version), func(w http.ResponseWriter, r *http.Request) {
			w.Write(content)
		})
	}
	return server
}

func testDownloader(server *httptest.Server) *Downloader {
	downloader := NewDownloader()
	downloader.Client = server.Client()
	downloader.IndexURL = server.URL + "/v3/index.json"
	return downloader
}

func TestDownload(t *testing.T) {
	server := nugetServer(t,
		`{"versions":["9.0.0","10.0.1","61.0.15-preview","2.5.0"]}`,
		map[string][]byte{
			"61.0.15-preview": nupkg(t, map[string]string{
				"microsoft.windows.sdk.win32metadata.nuspec": "<package/>",
				"Windows.Win32.winmd":                        "metadata",
			}),
		})

	path := filepath.Join(t.TempDir(), "Windows.Win32.winmd")
	require.NoError(t, testDownloader(server).Download(path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "metadata", string(content))
}

func TestLatestVersion(t *testing.T) {
	server := nugetServer(t, `{"versions":["1.0.0","10.0.0","9.1.0","10.0.0-preview"]}`, nil)
	downloader := testDownloader(server)

	baseAddress, err := downloader.getBaseAddress()
	require.NoError(t, err)
	assert.Equal(t, server.URL+"/flat/", baseAddress)

	latest, err := downloader.latestVersion(baseAddress)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0", latest)
}

func TestDownloadErrors(t *testing.T) {
	tests := []struct {
		name     string
		versions string
		packages map[string][]byte
		wantErr  string
	}{
		{name: "no versions", versions: `{"versions":[]}`, wantErr: "no versions"},
		{name: "bad version", versions: `{"versions":["not a version"]}`, wantErr: "error parsing version"},
		{name: "missing package", versions: `{"versions":["1.0.0"]}`, wantErr: "could not download package 1.0.0"},
		{
			name:     "no metadata in package",
			versions: `{"versions":["1.0.0"]}`,
			packages: map[string][]byte{"1.0.0": nupkg(t, map[string]string{"readme.txt": "nothing"})},
			wantErr:  "contains no metadata file",
		},
		{
			name:     "corrupt package",
			versions: `{"versions":["1.0.0"]}`,
			packages: map[string][]byte{"1.0.0": []byte("not a zip")},
			wantErr:  "could not open package",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := nugetServer(t, tt.versions, tt.packages)
			err := testDownloader(server).Download(filepath.Join(t.TempDir(), "out.winmd"))
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
