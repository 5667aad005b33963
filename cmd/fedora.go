package main

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/uvalib/aspace-mods-ws/internal/modsdiff"
)

// fedoraDiff compares a directory of MODS files with the datastreams in Fedora
func (svc *ServiceContext) fedoraDiff(c *gin.Context) {
	req := struct {
		Dir    string `json:"dir"`
		Suffix string `json:"suffix"`
	}{}
	if c.Request.ContentLength > 0 {
		err := c.ShouldBindJSON(&req)
		if err != nil {
			log.Printf("ERROR: bad fedora diff request: %s", err.Error())
			c.String(http.StatusBadRequest, err.Error())
			return
		}
	}
	dir, err := svc.diffDir(req.Dir)
	if err != nil {
		log.Printf("ERROR: %s requested diff outside of the output directory: %s", requestUser(c), err.Error())
		c.String(http.StatusForbidden, err.Error())
		return
	}
	req.Dir = dir
	if req.Suffix == "" {
		req.Suffix = "MODS.xml"
	}
	if svc.Fedora.Host == "" {
		c.String(http.StatusServiceUnavailable, "fedora is not configured")
		return
	}

	log.Printf("INFO: %s requests diff of %s/*%s against fedora %s", requestUser(c), req.Dir, req.Suffix, svc.Fedora.Host)
	datastreams, err := modsdiff.ScanDir(req.Dir, req.Suffix)
	if err != nil {
		log.Printf("ERROR: %s", err.Error())
		if errors.Is(err, modsdiff.ErrNoFiles) {
			c.String(http.StatusNotFound, err.Error())
		} else {
			c.String(http.StatusBadRequest, err.Error())
		}
		return
	}

	client := svc.fedoraClient()
	res := modsdiff.Diff(c.Request.Context(), datastreams, client)
	log.Printf("INFO: fedora diff of %d datastreams: %d same, %d different, %d unchecked",
		len(datastreams), len(res.Same), len(res.Different), len(res.Unchecked))
	c.JSON(http.StatusOK, res)
}

// diffDir resolves a requested diff directory. Relative paths are taken from the output
// directory, and the result must not be outside of it.
func (svc *ServiceContext) diffDir(dir string) (string, error) {
	base := filepath.Clean(svc.OutputDir)
	if dir == "" {
		return base, nil
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(base, dir)
	}
	dir = filepath.Clean(dir)
	rel, err := filepath.Rel(base, dir)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s is not within %s", dir, base)
	}
	return dir, nil
}

func (svc *ServiceContext) fedoraClient() *modsdiff.Client {
	client := modsdiff.NewClient(svc.Fedora.Host, svc.Fedora.Port, svc.Fedora.User, svc.Fedora.Pass)
	if svc.Fedora.BaseURL != "" {
		client.BaseURL = svc.Fedora.BaseURL
	}
	return client
}
