package modsdiff

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const localMods = `<?xml version="1.0" encoding="UTF-8"?>
<mods xmlns="http://www.loc.gov/mods/v3" version="3.7">
  <titleInfo><title>Letters</title></titleInfo>
  <name type="personal" authority="naf"><namePart>Dodge, Grace</namePart></name>
</mods>`

func TestXMLEqual(t *testing.T) {
	tests := []struct {
		name  string
		other string
		equal bool
	}{
		{"identical", localMods, true},
		{"reformatted with prefix and reordered attributes",
			`<m:mods version="3.7" xmlns:m="http://www.loc.gov/mods/v3"><!-- ingested -->
			<m:titleInfo>  <m:title> Letters </m:title></m:titleInfo>
			<m:name authority="naf" type="personal"><m:namePart>Dodge, Grace</m:namePart></m:name></m:mods>`, true},
		{"changed text", strings.Replace(localMods, "Letters", "Diaries", 1), false},
		{"changed attribute", strings.Replace(localMods, `authority="naf"`, `authority="lcnaf"`, 1), false},
		{"missing element", strings.Replace(localMods, "<titleInfo><title>Letters</title></titleInfo>", "", 1), false},
		{"other namespace", strings.Replace(localMods, "http://www.loc.gov/mods/v3", "urn:other", 1), false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			eq, err := XMLEqual([]byte(localMods), []byte(tc.other))
			require.NoError(t, err)
			assert.Equal(t, tc.equal, eq)
		})
	}

	_, err := XMLEqual([]byte(localMods), []byte("<mods><title></mods>"))
	assert.Error(t, err)
	_, err = XMLEqual([]byte(localMods), []byte(""))
	assert.Error(t, err)
}

func TestParseFileName(t *testing.T) {
	ds, err := ParseFileName("/data/out/smith_4242_MODS.xml")
	require.NoError(t, err)
	assert.Equal(t, "smith", ds.Namespace)
	assert.Equal(t, "4242", ds.Number)
	assert.Equal(t, "MODS", ds.Name)
	assert.Equal(t, "smith:4242", ds.PID())

	_, err = ParseFileName("README_MODS.xml")
	assert.Error(t, err)
}

func writeFiles(t *testing.T, files map[string]string) string {
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	return dir
}

func TestScanDir(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"smith_2_MODS.xml": localMods,
		"smith_1_MODS.xml": localMods,
		"bad_MODS.xml":     localMods,
		"notes.txt":        "x",
	})
	got, err := ScanDir(dir, "MODS.xml")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "smith:1", got[0].PID())
	assert.Equal(t, "smith:2", got[1].PID())

	_, err = ScanDir(t.TempDir(), "MODS.xml")
	assert.True(t, errors.Is(err, ErrNoFiles))
}

func fedoraServer(t *testing.T, content map[string]string) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "fedoraAdmin" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		body, found := content[r.URL.Path]
		if !found {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_Fetch(t *testing.T) {
	srv := fedoraServer(t, map[string]string{"/fedora/objects/smith:1/datastreams/MODS/content": localMods})
	client := &Client{BaseURL: srv.URL + "/fedora", User: "fedoraAdmin", Pass: "secret"}
	ds := Datastream{Namespace: "smith", Number: "1", Name: "MODS"}

	body, err := client.Fetch(context.Background(), ds)
	require.NoError(t, err)
	assert.Equal(t, localMods, string(body))

	_, err = client.Fetch(context.Background(), Datastream{Namespace: "smith", Number: "9", Name: "MODS"})
	assert.Error(t, err)

	client.Pass = "wrong"
	_, err = client.Fetch(context.Background(), ds)
	assert.Error(t, err)
}

func TestNewClient_URL(t *testing.T) {
	c := NewClient("fedora.example.edu", 8443, "u", "p")
	assert.Equal(t, "https://fedora.example.edu:8443/fedora/objects/smith:1/datastreams/MODS/content",
		c.URL(Datastream{Namespace: "smith", Number: "1", Name: "MODS"}))
}

func TestDiff(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"smith_1_MODS.xml": localMods,
		"smith_2_MODS.xml": strings.Replace(localMods, "Letters", "Diaries", 1),
		"smith_3_MODS.xml": localMods,
		"smith_4_MODS.xml": "<mods><broken></mods>",
	})
	srv := fedoraServer(t, map[string]string{
		"/fedora/objects/smith:1/datastreams/MODS/content": localMods,
		"/fedora/objects/smith:2/datastreams/MODS/content": localMods,
		"/fedora/objects/smith:4/datastreams/MODS/content": localMods,
	})
	client := &Client{BaseURL: srv.URL + "/fedora", User: "fedoraAdmin", Pass: "secret"}

	datastreams, err := ScanDir(dir, "MODS.xml")
	require.NoError(t, err)
	res := Diff(context.Background(), datastreams, client)
	assert.Equal(t, []string{"smith:1"}, res.Same)
	assert.Equal(t, []string{"smith:2"}, res.Different)
	assert.Equal(t, []string{"smith:3", "smith:4"}, res.Unchecked)
}
