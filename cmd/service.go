package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/go-sql-driver/mysql"
	"github.com/uvalib/aspace-mods-ws/internal/aspace"
	"github.com/uvalib/aspace-mods-ws/internal/mods"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

type archivesSpaceContext struct {
	User      string
	Pass      string
	AuthToken string
	ExpiresAt time.Time
	APIURL    string
	lock      sync.Mutex
}

// ServiceContext contains common data used by all handlers
type ServiceContext struct {
	Version       string
	SMTP          SMTPConfig
	GDB           *gorm.DB
	ArchivesSpace archivesSpaceContext
	Fedora        FedoraConfig
	OutputDir     string
	Writer        mods.Writer
	JWTKey        string
	TreeDepth     int
	Debug         bool
	HTTPClient    *http.Client
}

// RequestError contains http status code and message for a failed HTTP request
type RequestError struct {
	StatusCode int
	Message    string
}

// InitializeService sets up the service context for all API handlers
func InitializeService(version string, cfg *ServiceConfig) *ServiceContext {
	ctx := ServiceContext{Version: version,
		SMTP:      cfg.SMTP,
		Fedora:    cfg.Fedora,
		OutputDir: cfg.OutputDir,
		JWTKey:    cfg.JWTKey,
		TreeDepth: cfg.TreeDepth,
		Debug:     cfg.Debug,
	}

	registerAuthorities(cfg.Authorities)

	log.Printf("INFO: validate output destinations...")
	writer, err := newModsWriter(cfg)
	if err != nil {
		log.Fatal(err)
	}
	ctx.Writer = writer

	log.Printf("INFO: connecting to DB...")
	connectStr := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
		cfg.DB.User, cfg.DB.Pass, cfg.DB.Host, cfg.DB.Port, cfg.DB.Name)
	gdb, err := gorm.Open(mysql.Open(connectStr), &gorm.Config{})
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("INFO: configure db pool settings...")
	sqlDB, _ := gdb.DB()
	sqlDB.SetConnMaxLifetime(5 * time.Minute)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(10)
	ctx.GDB = gdb
	log.Printf("INFO: DB Connection established")

	log.Printf("INFO: initialize archivesSpace")
	ctx.ArchivesSpace.User = cfg.ArchivesSpace.User
	ctx.ArchivesSpace.Pass = cfg.ArchivesSpace.Pass
	ctx.ArchivesSpace.APIURL = cfg.ArchivesSpace.APIURL
	if ctx.ArchivesSpace.APIURL == "" {
		var es externalSystem
		err = ctx.GDB.Where("name=?", "ArchivesSpace").Find(&es).Error
		if err != nil {
			log.Fatal(err)
		}
		ctx.ArchivesSpace.APIURL = es.APIURL
	}
	if ctx.ArchivesSpace.APIURL == "" {
		log.Fatal("No ArchivesSpace API URL is configured")
	}
	log.Printf("INFO: archivesspace api is %s", ctx.ArchivesSpace.APIURL)

	log.Printf("INFO: create HTTP client...")
	defaultTransport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 600 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	ctx.HTTPClient = &http.Client{
		Transport: defaultTransport,
		Timeout:   30 * time.Second,
	}
	log.Printf("INFO: HTTP Client created")

	return &ctx
}

func registerAuthorities(authorities []AuthorityConfig) {
	for _, auth := range authorities {
		log.Printf("INFO: register authority source %s as %s", auth.Code, auth.Prefix)
		aspace.RegisterAuthoritySource(auth.Code, auth.Prefix)
	}
}

// newModsWriter always writes to the output directory, and additionally to s3
// and ftp when they are configured
func newModsWriter(cfg *ServiceConfig) (mods.Writer, error) {
	dirWriter, err := mods.NewDirWriter(cfg.OutputDir)
	if err != nil {
		return nil, err
	}
	writers := mods.MultiWriter{dirWriter}
	if cfg.S3.Bucket != "" {
		log.Printf("INFO: MODS documents will also be sent to s3://%s/%s", cfg.S3.Bucket, cfg.S3.Prefix)
		s3Writer, err := mods.NewS3Writer(context.Background(), cfg.S3.Bucket, cfg.S3.Region, cfg.S3.Prefix)
		if err != nil {
			return nil, err
		}
		writers = append(writers, s3Writer)
	}
	if cfg.FTP.Host != "" {
		log.Printf("INFO: MODS documents will also be sent to ftp %s:%s", cfg.FTP.Host, cfg.FTP.Dir)
		writers = append(writers, &mods.FTPWriter{Host: cfg.FTP.Host, User: cfg.FTP.User, Pass: cfg.FTP.Pass, Dir: cfg.FTP.Dir})
	}
	if len(writers) == 1 {
		return dirWriter, nil
	}
	return writers, nil
}

// IgnoreFavicon is a dummy to handle browser favicon requests without warnings
func (svc *ServiceContext) ignoreFavicon(c *gin.Context) {
}

// GetVersion reports the version of the serivce
func (svc *ServiceContext) getVersion(c *gin.Context) {
	build := "unknown"
	// working directory is the bin directory, and build tag is in the root
	files, _ := filepath.Glob("../buildtag.*")
	if len(files) == 1 {
		build = strings.Replace(files[0], "../buildtag.", "", 1)
	}

	vMap := make(map[string]string)
	vMap["version"] = svc.Version
	vMap["build"] = build
	c.JSON(http.StatusOK, vMap)
}

// HealthCheck reports the health of the serivce
func (svc *ServiceContext) healthCheck(c *gin.Context) {
	type hcResp struct {
		Healthy bool   `json:"healthy"`
		Message string `json:"message,omitempty"`
	}
	hcMap := make(map[string]hcResp)
	hcMap["modsservice"] = hcResp{Healthy: true}

	hcMap["outdir"] = hcResp{Healthy: true}
	if _, err := os.Stat(svc.OutputDir); err != nil {
		hcMap["outdir"] = hcResp{Healthy: false, Message: err.Error()}
	}

	hcMap["database"] = hcResp{Healthy: true}
	if svc.GDB == nil {
		hcMap["database"] = hcResp{Healthy: false, Message: "not connected"}
	} else {
		sqlDB, err := svc.GDB.DB()
		if err != nil {
			hcMap["database"] = hcResp{Healthy: false, Message: err.Error()}
		} else {
			err := sqlDB.Ping()
			if err != nil {
				hcMap["database"] = hcResp{Healthy: false, Message: err.Error()}
			}
		}
	}

	c.JSON(http.StatusOK, hcMap)
}

func (svc *ServiceContext) postFormRequest(url string, payload *url.Values) ([]byte, *RequestError) {
	log.Printf("INFO: POST request: %s", url)
	startTime := time.Now()

	req, _ := http.NewRequest("POST", url, strings.NewReader(payload.Encode()))
	req.Header.Add("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Add("User-Agent", "Golang_ASpace_MODS")

	rawResp, rawErr := svc.HTTPClient.Do(req)
	resp, err := handleAPIResponse(url, rawResp, rawErr)
	elapsedMS := int64(time.Since(startTime) / time.Millisecond)

	if err != nil {
		log.Printf("ERROR: Failed response from POST %s - %d:%s. Elapsed Time: %d (ms)",
			url, err.StatusCode, err.Message, elapsedMS)
	} else {
		log.Printf("INFO: Successful response from POST %s. Elapsed Time: %d (ms)", url, elapsedMS)
	}
	return resp, err
}

func (svc *ServiceContext) sendASGetRequest(url string) ([]byte, *RequestError) {
	return svc.sendASRequest("GET", url, nil)
}
func (svc *ServiceContext) sendASPostRequest(url string, payload interface{}) ([]byte, *RequestError) {
	return svc.sendASRequest("POST", url, payload)
}
func (svc *ServiceContext) sendASRequest(verb string, url string, payload interface{}) ([]byte, *RequestError) {
	fullURL := fmt.Sprintf("%s%s", svc.ArchivesSpace.APIURL, url)
	log.Printf("INFO: archivesspace %s request: %s", verb, fullURL)
	startTime := time.Now()

	var req *http.Request
	if verb == "POST" {
		b, _ := json.Marshal(payload)
		req, _ = http.NewRequest("POST", fullURL, bytes.NewBuffer(b))
	} else {
		req, _ = http.NewRequest("GET", fullURL, nil)
	}

	req.Header.Add("Content-type", "application/json")
	req.Header.Add("Accept", "application/json")
	req.Header.Add("X-ArchivesSpace-Session", svc.sessionToken())
	rawResp, rawErr := svc.HTTPClient.Do(req)
	resp, err := handleAPIResponse(url, rawResp, rawErr)
	elapsedMS := int64(time.Since(startTime) / time.Millisecond)

	if err != nil {
		log.Printf("ERROR: Failed response from %s %s - %d:%s. Elapsed Time: %d (ms)",
			verb, url, err.StatusCode, err.Message, elapsedMS)
	} else {
		log.Printf("INFO: Successful response from %s %s. Elapsed Time: %d (ms)", verb, url, elapsedMS)
	}
	return resp, err
}

func handleAPIResponse(logURL string, resp *http.Response, err error) ([]byte, *RequestError) {
	if err != nil {
		status := http.StatusBadRequest
		errMsg := err.Error()
		if strings.Contains(err.Error(), "Timeout") {
			status = http.StatusRequestTimeout
			errMsg = fmt.Sprintf("%s timed out", logURL)
		} else if strings.Contains(err.Error(), "connection refused") {
			status = http.StatusServiceUnavailable
			errMsg = fmt.Sprintf("%s refused connection", logURL)
		}
		return nil, &RequestError{StatusCode: status, Message: errMsg}
	} else if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		defer resp.Body.Close()
		bodyBytes, _ := io.ReadAll(resp.Body)
		status := resp.StatusCode
		errMsg := string(bodyBytes)
		return nil, &RequestError{StatusCode: status, Message: errMsg}
	}

	defer resp.Body.Close()
	bodyBytes, _ := io.ReadAll(resp.Body)
	return bodyBytes, nil
}
