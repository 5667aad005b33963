package mods

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jlaffaye/ftp"
)

// Writer delivers a named MODS document somewhere
type Writer interface {
	Write(name string, data []byte) error
}

// OutputDirectoryError is returned when the configured output directory is unusable
type OutputDirectoryError struct {
	Dir string
	Err error
}

func (e *OutputDirectoryError) Error() string {
	return fmt.Sprintf("output directory %s is not usable: %v", e.Dir, e.Err)
}

func (e *OutputDirectoryError) Unwrap() error {
	return e.Err
}

// DirWriter writes documents into a local directory
type DirWriter struct {
	Dir string
}

// NewDirWriter validates that dir exists and is a directory
func NewDirWriter(dir string) (*DirWriter, error) {
	if dir == "" {
		return nil, &OutputDirectoryError{Dir: dir, Err: errors.New("no directory given")}
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, &OutputDirectoryError{Dir: dir, Err: err}
	}
	if !info.IsDir() {
		return nil, &OutputDirectoryError{Dir: dir, Err: errors.New("not a directory")}
	}
	return &DirWriter{Dir: dir}, nil
}

// Write saves data as Dir/name
func (w *DirWriter) Write(name string, data []byte) error {
	if name == "" || filepath.Base(name) != name {
		return fmt.Errorf("invalid file name '%s'", name)
	}
	dest := filepath.Join(w.Dir, name)
	err := os.WriteFile(dest, data, 0664)
	if err != nil {
		var pe *os.PathError
		if errors.As(err, &pe) && errors.Is(pe.Err, os.ErrNotExist) {
			return &OutputDirectoryError{Dir: w.Dir, Err: err}
		}
		return err
	}
	return nil
}

// S3Writer uploads documents to a bucket under an optional key prefix
type S3Writer struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3Writer creates a writer using the default AWS credential chain
func NewS3Writer(ctx context.Context, bucket, region, prefix string) (*S3Writer, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("unable to load s3 config: %s", err.Error())
	}
	return NewS3WriterFromClient(s3.NewFromConfig(cfg), bucket, prefix), nil
}

// NewS3WriterFromClient wraps an existing s3 client
func NewS3WriterFromClient(client *s3.Client, bucket, prefix string) *S3Writer {
	return &S3Writer{client: client, bucket: bucket, prefix: prefix}
}

// Key returns the object key used for a document name
func (w *S3Writer) Key(name string) string {
	if w.prefix == "" {
		return name
	}
	return path.Join(w.prefix, name)
}

// Write uploads data as an xml object
func (w *S3Writer) Write(name string, data []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	key := w.Key(name)
	_, err := w.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(w.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/xml"),
	})
	if err != nil {
		return fmt.Errorf("unable to upload %s to s3://%s: %s", key, w.bucket, err.Error())
	}
	log.Printf("INFO: uploaded s3://%s/%s", w.bucket, key)
	return nil
}

// FTPWriter stores documents on an ftp server. A new connection is made for each write.
type FTPWriter struct {
	Host    string
	User    string
	Pass    string
	Dir     string
	Timeout time.Duration
}

// Write stores data as name in the configured directory
func (w *FTPWriter) Write(name string, data []byte) error {
	timeout := w.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	conn, err := ftp.Dial(w.Host, ftp.DialWithTimeout(timeout))
	if err != nil {
		return fmt.Errorf("unable to connect to ftp %s: %s", w.Host, err.Error())
	}
	defer conn.Quit()

	err = conn.Login(w.User, w.Pass)
	if err != nil {
		return fmt.Errorf("ftp login failed: %s", err.Error())
	}
	if w.Dir != "" {
		err = conn.ChangeDir(w.Dir)
		if err != nil {
			return fmt.Errorf("unable to change to ftp dir %s: %s", w.Dir, err.Error())
		}
	}
	err = conn.Stor(name, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("unable to store %s via ftp: %s", name, err.Error())
	}
	log.Printf("INFO: sent %s to ftp %s:%s", name, w.Host, w.Dir)
	return nil
}

// MultiWriter writes to every writer in order and reports all failures
type MultiWriter []Writer

func (mw MultiWriter) Write(name string, data []byte) error {
	var errs []error
	for _, w := range mw {
		if err := w.Write(name, data); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
