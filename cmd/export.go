package main

import (
	"fmt"
	"log"
	"net/http"
	"runtime/debug"
	"sort"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/uvalib/aspace-mods-ws/internal/aspace"
)

type exportSummary struct {
	Resource string            `json:"resource"`
	Total    int               `json:"total"`
	Written  []string          `json:"written"`
	Failed   map[string]string `json:"failed"`
}

func (s *exportSummary) text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "MODS export of %s finished.\n\n", s.Resource)
	fmt.Fprintf(&b, "Archival objects: %d\nDocuments written: %d\nFailures: %d\n", s.Total, len(s.Written), len(s.Failed))
	if len(s.Failed) > 0 {
		uris := make([]string, 0, len(s.Failed))
		for uri := range s.Failed {
			uris = append(uris, uri)
		}
		sort.Strings(uris)
		b.WriteString("\nFailed records:\n")
		for _, uri := range uris {
			fmt.Fprintf(&b, "  %s: %s\n", uri, s.Failed[uri])
		}
	}
	return b.String()
}

func (svc *ServiceContext) exportCollectionMODS(c *gin.Context) {
	repoID := c.Param("repo")
	resourceID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.String(http.StatusBadRequest, fmt.Sprintf("invalid resource id %s", c.Param("id")))
		return
	}
	req := struct {
		Email string `json:"email"`
	}{}
	if c.Request.ContentLength > 0 {
		err = c.ShouldBindJSON(&req)
		if err != nil {
			log.Printf("ERROR: bad collection export request: %s", err.Error())
			c.String(http.StatusBadRequest, err.Error())
			return
		}
	}
	resourceURI := fmt.Sprintf("/repositories/%s/resources/%d", repoID, resourceID)
	log.Printf("INFO: export collection %s mods request", resourceURI)

	js, err := svc.createJobStatus("ExportCollectionMODS", "Resource", resourceID)
	if err != nil {
		log.Printf("ERROR: unable to create ExportCollectionMODS job status: %s", err.Error())
		c.String(http.StatusInternalServerError, err.Error())
		return
	}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("ERROR: Panic recovered: %v", r)
				debug.PrintStack()
				svc.logFatal(js, fmt.Sprintf("Panic recovered during collection %s export: %v", resourceURI, r))
			}
		}()

		svc.logInfo(js, fmt.Sprintf("Walk the tree of %s", resourceURI))
		uris, err := svc.getResourceTreeURIs(repoID, strconv.FormatInt(resourceID, 10))
		if err != nil {
			svc.logFatal(js, fmt.Sprintf("Unable to get tree for %s: %s", resourceURI, err.Error()))
			return
		}
		svc.logInfo(js, fmt.Sprintf("%s has %d archival objects", resourceURI, len(uris)))

		cache := aspace.NewCache(nil)
		err = aspace.Prefetch(cache, &asBulkFetcher{svc: svc, js: js}, uris)
		if err != nil {
			svc.logWarning(js, fmt.Sprintf("Prefetch failed, records will be requested individually: %s", err.Error()))
		}

		fetcher := &aspace.CachingFetcher{Cache: cache, Live: svc.liveFetcher()}
		summary := svc.exportRecords(js, uris, fetcher)
		summary.Resource = resourceURI
		svc.logInfo(js, fmt.Sprintf("Wrote %d of %d MODS documents", len(summary.Written), summary.Total))

		if req.Email != "" {
			mail := emailRequest{
				Subject: fmt.Sprintf("MODS export of %s complete", resourceURI),
				To:      []string{req.Email},
				From:    svc.SMTP.Sender,
				Body:    summary.text(),
			}
			err = svc.sendEmail(&mail)
			if err != nil {
				svc.logError(js, fmt.Sprintf("Unable to send summary email to %s: %s", req.Email, err.Error()))
			}
		}

		svc.jobDone(js)
	}()

	c.String(http.StatusOK, fmt.Sprintf("%d", js.ID))
}

// exportRecords writes a MODS document for each uri. Failures are recorded and the
// export moves on to the next record.
func (svc *ServiceContext) exportRecords(js *jobStatus, uris []string, f aspace.Fetcher) *exportSummary {
	summary := exportSummary{Total: len(uris), Written: make([]string, 0), Failed: make(map[string]string)}
	for _, uri := range uris {
		fileName, err := svc.writeMODS(uri, f)
		if err != nil {
			svc.logError(js, fmt.Sprintf("Unable to export %s: %s", uri, err.Error()))
			summary.Failed[uri] = err.Error()
			continue
		}
		svc.logInfo(js, fmt.Sprintf("Wrote %s for %s", fileName, uri))
		summary.Written = append(summary.Written, fileName)
	}
	return &summary
}
