package metadata

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/go-version"
)

const definitionAddress string = "https://api.nuget.org/v3/index.json"
const nugetName string = "microsoft.windows.sdk.win32metadata"

// Downloader fetches the newest Windows metadata file from nuget.
type Downloader struct {
	Client   *http.Client
	IndexURL string
	Package  string
}

func NewDownloader() *Downloader {
	return &Downloader{
		Client:   http.DefaultClient,
		IndexURL: definitionAddress,
		Package:  nugetName,
	}
}

// Downloads the metadata file with the default downloader.
func DownloadMetadata(metadataFileName string) error {
	return NewDownloader().Download(metadataFileName)
}

// Downloads the newest package and extracts its *.winmd file to the given path.
func (downloader *Downloader) Download(metadataFileName string) error {
	baseAddress, err := downloader.getBaseAddress()
	if err != nil {
		return err
	}

	latest, err := downloader.latestVersion(baseAddress)
	if err != nil {
		return err
	}

	nugetBytes, err := downloader.queryGet(fmt.Sprintf("%s%s/%s/%s.%s.nupkg", baseAddress, downloader.Package, latest, downloader.Package, latest))
	if err != nil {
		return fmt.Errorf("could not download package %s: %w", latest, err)
	}

	bytesReader := bytes.NewReader(nugetBytes)
	nuget, err := zip.NewReader(bytesReader, int64(bytesReader.Len()))
	if err != nil {
		return fmt.Errorf("could not open package %s: %w", latest, err)
	}

	for _, file := range nuget.File {
		if filepath.Ext(file.Name) != ".winmd" {
			continue
		}

		reader, err := file.Open()
		if err != nil {
			return err
		}
		defer reader.Close()

		metadataBytes, err := io.ReadAll(reader)
		if err != nil {
			return err
		}
		return os.WriteFile(metadataFileName, metadataBytes, 0644)
	}

	return fmt.Errorf("package %s contains no metadata file", latest)
}

func (downloader *Downloader) latestVersion(baseAddress string) (string, error) {
	versionsResponse, err := downloader.queryGet(fmt.Sprintf("%s%s/index.json", baseAddress, downloader.Package))
	if err != nil {
		return "", fmt.Errorf("could not list versions: %w", err)
	}
	versions, err := parse[map[string][]string](versionsResponse)
	if err != nil {
		return "", fmt.Errorf("could not parse versions: %w", err)
	}
	if len(versions["versions"]) == 0 {
		return "", fmt.Errorf("no versions of %s were found", downloader.Package)
	}

	orderedVersions := make([]*version.Version, len(versions["versions"]))
	for i, versionString := range versions["versions"] {
		parsed, err := version.NewVersion(versionString)
		if err != nil {
			return "", fmt.Errorf("error parsing version %s: %w", versionString, err)
		}

		orderedVersions[i] = parsed
	}

	sort.Sort(version.Collection(orderedVersions))
	return orderedVersions[len(orderedVersions)-1].Original(), nil
}

func (downloader *Downloader) getBaseAddress() (string, error) {
	response, err := downloader.queryGet(downloader.IndexURL)
	if err != nil {
		return "", fmt.Errorf("could not read nuget index: %w", err)
	}
	index, err := parse[nugetIndex](response)
	if err != nil {
		return "", fmt.Errorf("could not parse nuget index: %w", err)
	}

	for _, resource := range index.Resources {
		if strings.Contains(resource.Type, "PackageBaseAddress") {
			return resource.Id, nil
		}
	}

	return "", fmt.Errorf("nuget index has no package base address")
}

func parse[T interface{}](source []byte) (T, error) {
	var parsedBody T
	err := json.Unmarshal(source, &parsedBody)
	return parsedBody, err
}

func (downloader *Downloader) queryGet(url string) ([]byte, error) {
	request, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return nil, err
	}

	response, err := downloader.Client.Do(request)
	if err != nil {
		return nil, err
	}

	defer response.Body.Close()
	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: %s", url, response.Status)
	}

	return io.ReadAll(response.Body)
}

type nugetIndex struct {
	Resources []nugetResource `json:"resources"`
}

type nugetResource struct {
	Id   string `json:"@id"`
	Type string `json:"@type"`
}
