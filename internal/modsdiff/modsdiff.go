// Package modsdiff compares locally generated MODS files with the datastreams already
// ingested into a Fedora repository.
package modsdiff

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ErrNoFiles is returned by ScanDir when nothing matches
var ErrNoFiles = errors.New("no datastream files found")

// Datastream identifies one local file named NAMESPACE_NUMBER_DATASTREAM.xml
type Datastream struct {
	Path      string `json:"path"`
	Namespace string `json:"namespace"`
	Number    string `json:"number"`
	Name      string `json:"datastream"`
}

// PID is the Fedora object id, namespace:number
func (ds Datastream) PID() string {
	return ds.Namespace + ":" + ds.Number
}

// ParseFileName splits a datastream file name into its parts
func ParseFileName(path string) (Datastream, error) {
	base := filepath.Base(path)
	parts := strings.SplitN(base, "_", 3)
	if len(parts) < 3 || parts[0] == "" || parts[1] == "" {
		return Datastream{}, fmt.Errorf("%s is not named NAMESPACE_NUMBER_DATASTREAM.xml", base)
	}
	name := strings.SplitN(parts[2], ".", 2)[0]
	if name == "" {
		return Datastream{}, fmt.Errorf("%s has no datastream name", base)
	}
	return Datastream{Path: path, Namespace: parts[0], Number: parts[1], Name: name}, nil
}

// ScanDir finds all files in dir ending with suffix, for example MODS.xml
func ScanDir(dir, suffix string) ([]Datastream, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*"+suffix))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	out := make([]Datastream, 0, len(matches))
	for _, m := range matches {
		ds, err := ParseFileName(m)
		if err != nil {
			log.Printf("WARNING: skipping %s", err.Error())
			continue
		}
		out = append(out, ds)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoFiles, dir)
	}
	return out, nil
}

// Source returns the ingested content of a datastream
type Source interface {
	Fetch(ctx context.Context, ds Datastream) ([]byte, error)
}

// Client reads datastream content from Fedora using basic auth
type Client struct {
	BaseURL string
	User    string
	Pass    string
	HTTP    *http.Client
}

// NewClient creates a client for the Fedora instance at https://host:port/fedora
func NewClient(host string, port int, user, pass string) *Client {
	return &Client{
		BaseURL: fmt.Sprintf("https://%s:%d/fedora", host, port),
		User:    user,
		Pass:    pass,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

// URL is the content url for a datastream
func (c *Client) URL(ds Datastream) string {
	return fmt.Sprintf("%s/objects/%s/datastreams/%s/content", strings.TrimSuffix(c.BaseURL, "/"), ds.PID(), ds.Name)
}

// Fetch gets the current content of the datastream
func (c *Client) Fetch(ctx context.Context, ds Datastream) ([]byte, error) {
	url := c.URL(ds)
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.User, c.Pass)
	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned %d", url, resp.StatusCode)
	}
	return body, nil
}

// Result lists the PIDs found in each state after a diff
type Result struct {
	Different []string `json:"different"`
	Same      []string `json:"same"`
	Unchecked []string `json:"unchecked"`
}

// Diff compares each local datastream with its ingested copy. Datastreams that cannot
// be read locally or remotely, or that are not well formed, are reported as unchecked.
func Diff(ctx context.Context, datastreams []Datastream, src Source) Result {
	res := Result{Different: make([]string, 0), Same: make([]string, 0), Unchecked: make([]string, 0)}
	for _, ds := range datastreams {
		pid := ds.PID()
		local, err := os.ReadFile(ds.Path)
		if err != nil {
			log.Printf("ERROR: unable to read %s: %s", ds.Path, err.Error())
			res.Unchecked = append(res.Unchecked, pid)
			continue
		}
		remote, err := src.Fetch(ctx, ds)
		if err != nil {
			log.Printf("ERROR: failed to fetch remote datastream for %s: %s", pid, err.Error())
			res.Unchecked = append(res.Unchecked, pid)
			continue
		}
		equal, err := XMLEqual(remote, local)
		if err != nil {
			log.Printf("ERROR: could not compare %s: %s", ds.Path, err.Error())
			res.Unchecked = append(res.Unchecked, pid)
			continue
		}
		if equal {
			res.Same = append(res.Same, pid)
		} else {
			log.Printf("INFO: %s differs from the ingested %s datastream", pid, ds.Name)
			res.Different = append(res.Different, pid)
		}
	}
	return res
}
