package mods

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirWriter(t *testing.T) {
	dir := t.TempDir()
	w, err := NewDirWriter(dir)
	require.NoError(t, err)

	require.NoError(t, w.Write("smith_1_MODS.xml", []byte("<mods/>")))
	got, err := os.ReadFile(filepath.Join(dir, "smith_1_MODS.xml"))
	require.NoError(t, err)
	assert.Equal(t, "<mods/>", string(got))

	assert.Error(t, w.Write("../escape.xml", []byte("x")))
	assert.Error(t, w.Write("", []byte("x")))
}

func TestNewDirWriter_Invalid(t *testing.T) {
	var ode *OutputDirectoryError

	_, err := NewDirWriter(filepath.Join(t.TempDir(), "nope"))
	require.True(t, errors.As(err, &ode))

	file := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))
	_, err = NewDirWriter(file)
	require.True(t, errors.As(err, &ode))
	assert.Equal(t, file, ode.Dir)

	_, err = NewDirWriter("")
	assert.True(t, errors.As(err, &ode))
}

func TestDirWriter_RemovedDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	require.NoError(t, os.Mkdir(dir, 0755))
	w, err := NewDirWriter(dir)
	require.NoError(t, err)
	require.NoError(t, os.Remove(dir))

	var ode *OutputDirectoryError
	assert.True(t, errors.As(w.Write("a_1_MODS.xml", []byte("x")), &ode))
}

type s3Put struct {
	path        string
	body        []byte
	contentType string
}

type fakeS3 struct {
	mu     sync.Mutex
	puts   []s3Put
	status int
}

func (f *fakeS3) RoundTrip(req *http.Request) (*http.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if req.Method == http.MethodPut {
		var body []byte
		if req.Body != nil {
			body, _ = io.ReadAll(req.Body)
		}
		f.puts = append(f.puts, s3Put{path: req.URL.Path, body: body, contentType: req.Header.Get("Content-Type")})
	}
	status := f.status
	if status == 0 {
		status = http.StatusOK
	}
	return &http.Response{StatusCode: status, Body: io.NopCloser(bytes.NewReader(nil)), Header: http.Header{"Etag": {"\"etag\""}}}, nil
}

func fakeS3Client(t *testing.T, rt http.RoundTripper) *s3.Client {
	cfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithRegion("us-east-1"),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("AKIA", "SECRET", "")),
	)
	require.NoError(t, err)
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.HTTPClient = &http.Client{Transport: rt}
		o.UsePathStyle = true
		o.BaseEndpoint = aws.String("https://mock.s3.local")
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
	})
}

func TestS3Writer(t *testing.T) {
	rt := &fakeS3{}
	w := NewS3WriterFromClient(fakeS3Client(t, rt), "mods-bucket", "ywca")
	assert.Equal(t, "ywca/smith_1_MODS.xml", w.Key("smith_1_MODS.xml"))

	require.NoError(t, w.Write("smith_1_MODS.xml", []byte("<mods>hello</mods>")))
	require.Len(t, rt.puts, 1)
	assert.Equal(t, "/mods-bucket/ywca/smith_1_MODS.xml", rt.puts[0].path)
	assert.Contains(t, string(rt.puts[0].body), "<mods>hello</mods>")
	assert.Equal(t, "application/xml", rt.puts[0].contentType)
}

func TestS3Writer_Denied(t *testing.T) {
	rt := &fakeS3{status: http.StatusForbidden}
	w := NewS3WriterFromClient(fakeS3Client(t, rt), "mods-bucket", "")
	assert.Equal(t, "smith_1_MODS.xml", w.Key("smith_1_MODS.xml"))
	assert.Error(t, w.Write("smith_1_MODS.xml", []byte("<mods/>")))
}

type failWriter struct{}

func (failWriter) Write(string, []byte) error {
	return errors.New("disk full")
}

func TestMultiWriter(t *testing.T) {
	dirA, dirB := t.TempDir(), t.TempDir()
	a, err := NewDirWriter(dirA)
	require.NoError(t, err)
	b, err := NewDirWriter(dirB)
	require.NoError(t, err)

	mw := MultiWriter{a, failWriter{}, b}
	err = mw.Write("x_1_MODS.xml", []byte("<mods/>"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	for _, dir := range []string{dirA, dirB} {
		_, statErr := os.Stat(filepath.Join(dir, "x_1_MODS.xml"))
		assert.NoError(t, statErr)
	}
	assert.NoError(t, MultiWriter{a}.Write("y_1_MODS.xml", []byte("<mods/>")))
}
