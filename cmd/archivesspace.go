package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/gin-gonic/gin"
	"github.com/uvalib/aspace-mods-ws/internal/aspace"
	"github.com/uvalib/aspace-mods-ws/internal/mods"
)

// maximum number of ids sent in a single id_set request
const bulkChunkSize = 50

// uris that ArchivesSpace can return in bulk with an id_set[] query
var bulkURIPattern = regexp.MustCompile(`^(/repositories/\d+/(?:archival_objects|resources|digital_objects|top_containers)|/agents/(?:people|corporate_entities|families|software)|/subjects)/(\d+)$`)

type externalSystem struct {
	ID        int64
	Name      string
	APIURL    string `gorm:"column:api_url"`
	PublicURL string `gorm:"column:public_url"`
}

func (svc *ServiceContext) archivesSpaceMiddleware(c *gin.Context) {
	log.Printf("INFO: ensure archivesspace auth token exists for %s", c.Request.URL)
	err := svc.validateArchivesSpaceAccessToken()
	if err != nil {
		log.Printf("ERROR: %s", err.Error())
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	c.Next()
}

func (svc *ServiceContext) sessionToken() string {
	svc.ArchivesSpace.lock.Lock()
	defer svc.ArchivesSpace.lock.Unlock()
	return svc.ArchivesSpace.AuthToken
}

func (svc *ServiceContext) validateArchivesSpaceAccessToken() error {
	svc.ArchivesSpace.lock.Lock()
	defer svc.ArchivesSpace.lock.Unlock()
	now := time.Now()
	if svc.ArchivesSpace.AuthToken != "" && now.Before(svc.ArchivesSpace.ExpiresAt) {
		return nil
	}

	authURL := fmt.Sprintf("%s/users/%s/login", svc.ArchivesSpace.APIURL, svc.ArchivesSpace.User)
	log.Printf("INFO: archivesspace token missing or expired, requesting a new one with: %s", authURL)
	payload := url.Values{}
	payload.Add("password", svc.ArchivesSpace.Pass)
	resp, authErr := svc.postFormRequest(authURL, &payload)
	if authErr != nil {
		return fmt.Errorf("archivesspace auth post failed: %d:%s", authErr.StatusCode, authErr.Message)
	}
	jsonResp := struct {
		Session string `json:"session"`
	}{}
	err := json.Unmarshal(resp, &jsonResp)
	if err != nil {
		return fmt.Errorf("invalid auth response: %s", err.Error())
	}
	svc.ArchivesSpace.AuthToken = jsonResp.Session
	svc.ArchivesSpace.ExpiresAt = now.Add(30 * time.Minute)
	return nil
}

// fetchASRecord is the live record fetcher used by all MODS resolution
func (svc *ServiceContext) fetchASRecord(uri string) (aspace.Record, error) {
	resp, asErr := svc.sendASGetRequest(uri)
	if asErr != nil {
		return nil, fmt.Errorf("%d:%s", asErr.StatusCode, asErr.Message)
	}
	var rec aspace.Record
	err := json.Unmarshal(resp, &rec)
	if err != nil {
		return nil, fmt.Errorf("invalid response for %s: %s", uri, err.Error())
	}
	return rec, nil
}

func (svc *ServiceContext) liveFetcher() aspace.Fetcher {
	return aspace.FetchFunc(svc.fetchASRecord)
}

// bulkGroups sorts uris into id_set groups keyed by their list endpoint. Uris that
// cannot be requested in bulk are returned separately.
func bulkGroups(uris []string) (map[string][]string, []string) {
	groups := make(map[string][]string)
	singles := make([]string, 0)
	for _, uri := range uris {
		m := bulkURIPattern.FindStringSubmatch(uri)
		if m == nil {
			singles = append(singles, uri)
			continue
		}
		groups[m[1]] = append(groups[m[1]], m[2])
	}
	return groups, singles
}

func bulkQuery(endpoint string, ids []string) string {
	q := url.Values{}
	for _, id := range ids {
		q.Add("id_set[]", id)
	}
	return fmt.Sprintf("%s?%s", endpoint, q.Encode())
}

// asBulkFetcher loads records in id_set batches for the collection prefetch
type asBulkFetcher struct {
	svc *ServiceContext
	js  *jobStatus
}

func (bf *asBulkFetcher) FetchMany(uris []string) ([]aspace.Record, error) {
	groups, singles := bulkGroups(uris)
	endpoints := make([]string, 0, len(groups))
	for ep := range groups {
		endpoints = append(endpoints, ep)
	}
	sort.Strings(endpoints)

	out := make([]aspace.Record, 0, len(uris))
	requests, failures := 0, 0
	for _, ep := range endpoints {
		ids := groups[ep]
		for start := 0; start < len(ids); start += bulkChunkSize {
			end := min(start+bulkChunkSize, len(ids))
			requests++
			resp, asErr := bf.svc.sendASGetRequest(bulkQuery(ep, ids[start:end]))
			if asErr != nil {
				failures++
				bf.svc.logError(bf.js, fmt.Sprintf("Bulk request to %s failed: %d:%s", ep, asErr.StatusCode, asErr.Message))
				continue
			}
			var recs []aspace.Record
			err := json.Unmarshal(resp, &recs)
			if err != nil {
				failures++
				bf.svc.logError(bf.js, fmt.Sprintf("Unable to parse bulk response from %s: %s", ep, err.Error()))
				continue
			}
			out = append(out, recs...)
		}
	}
	for _, uri := range singles {
		rec, err := bf.svc.fetchASRecord(uri)
		if err != nil {
			bf.svc.logError(bf.js, fmt.Sprintf("Unable to get %s: %s", uri, err.Error()))
			continue
		}
		out = append(out, rec)
	}
	if requests > 0 && failures == requests && len(out) == 0 {
		return nil, fmt.Errorf("all %d bulk requests failed", requests)
	}
	return out, nil
}

func (svc *ServiceContext) getResourceTreeURIs(repoID, resourceID string) ([]string, error) {
	treeURI := fmt.Sprintf("/repositories/%s/resources/%s/tree", repoID, resourceID)
	tree, err := svc.fetchASRecord(treeURI)
	if err != nil {
		return nil, err
	}
	return aspace.TreeURIs(tree, svc.TreeDepth), nil
}

func (svc *ServiceContext) buildModsData(uri string) (*aspace.ModsData, error) {
	builder := aspace.NewBuilder(aspace.NewCachingFetcher(svc.liveFetcher()))
	data, err := builder.Build(uri)
	if svc.Debug {
		log.Printf("DEBUG: mods data for %s\n%s", uri, spew.Sdump(data))
	}
	return data, err
}

func buildErrorStatus(err error) int {
	var ure *aspace.UnresolvableReferenceError
	var mre *aspace.MissingReferenceError
	switch {
	case errors.As(err, &ure):
		return http.StatusNotFound
	case errors.As(err, &mre), errors.Is(err, errNoFileName):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// getMODS returns the resolved metadata for one archival object as json or MODS xml
func (svc *ServiceContext) getMODS(c *gin.Context) {
	uri := c.Query("uri")
	if uri == "" {
		c.String(http.StatusBadRequest, "uri is required")
		return
	}
	log.Printf("INFO: get mods for %s", uri)
	data, err := svc.buildModsData(uri)
	if err != nil {
		log.Printf("ERROR: unable to build mods data for %s: %s", uri, err.Error())
		c.JSON(buildErrorStatus(err), data)
		return
	}

	if c.Query("format") == "json" {
		c.JSON(http.StatusOK, data)
		return
	}
	out, err := mods.Render(data)
	if err != nil {
		log.Printf("ERROR: unable to render mods for %s: %s", uri, err.Error())
		c.String(http.StatusInternalServerError, err.Error())
		return
	}
	c.Data(http.StatusOK, "application/xml", out)
}

// publishMODS renders one archival object and writes it to the configured destinations
func (svc *ServiceContext) publishMODS(c *gin.Context) {
	uri := c.Query("uri")
	if uri == "" {
		c.String(http.StatusBadRequest, "uri is required")
		return
	}
	log.Printf("INFO: publish mods for %s", uri)
	fileName, err := svc.writeMODS(uri, aspace.NewCachingFetcher(svc.liveFetcher()))
	if err != nil {
		log.Printf("ERROR: unable to publish mods for %s: %s", uri, err.Error())
		c.String(buildErrorStatus(err), err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"uri": uri, "file": fileName})
}

var errNoFileName = errors.New("no MODS file name could be determined")

// writeMODS builds, renders and writes the document for uri, returning the file name
func (svc *ServiceContext) writeMODS(uri string, f aspace.Fetcher) (string, error) {
	data, err := aspace.NewBuilder(f).Build(uri)
	if err != nil {
		return "", err
	}
	if svc.Debug {
		log.Printf("DEBUG: mods data for %s\n%s", uri, spew.Sdump(data))
	}
	if data.FileName == "" {
		return "", fmt.Errorf("%s: %w", uri, errNoFileName)
	}
	out, err := mods.Render(data)
	if err != nil {
		return "", err
	}
	err = svc.Writer.Write(data.FileName, out)
	if err != nil {
		return "", err
	}
	return data.FileName, nil
}

type fileURIRequest struct {
	Repository string `json:"repository"`
	BaseURL    string `json:"baseURL"`
	Objects    []struct {
		PID        string `json:"pid"`
		Identifier string `json:"identifier"`
	} `json:"objects"`
}

type fileURIUpdate struct {
	DigitalObject string `json:"digitalObject"`
	FileURI       string `json:"fileURI"`
}

// updates pairs each repository object with the digital object named by the last
// segment of its local identifier, e.g. smith_ssc_324_digital_object_289
func (req *fileURIRequest) updates() ([]fileURIUpdate, error) {
	if req.Repository == "" {
		return nil, errors.New("repository is required")
	}
	out := make([]fileURIUpdate, 0, len(req.Objects))
	for _, obj := range req.Objects {
		bits := strings.Split(obj.Identifier, "_")
		doID := bits[len(bits)-1]
		if doID == "" || obj.PID == "" {
			return nil, fmt.Errorf("object %q/%q is missing a pid or identifier", obj.PID, obj.Identifier)
		}
		out = append(out, fileURIUpdate{
			DigitalObject: fmt.Sprintf("/repositories/%s/digital_objects/%s", req.Repository, doID),
			FileURI:       req.BaseURL + obj.PID,
		})
	}
	return out, nil
}

// appendFileVersion adds fileURI to the digital object file versions unless it is already there
func appendFileVersion(do aspace.Record, fileURI string) bool {
	versions, _ := do["file_versions"].([]interface{})
	for _, fv := range do.Objects("file_versions") {
		if fv.String("file_uri") == fileURI {
			return false
		}
	}
	do["file_versions"] = append(versions, map[string]interface{}{"file_uri": fileURI})
	return true
}

// addFileURIs records repository object urls on their ArchivesSpace digital objects
func (svc *ServiceContext) addFileURIs(c *gin.Context) {
	var req fileURIRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		log.Printf("ERROR: bad file uri request: %s", err.Error())
		c.String(http.StatusBadRequest, err.Error())
		return
	}
	updates, err := req.updates()
	if err != nil {
		log.Printf("ERROR: bad file uri request: %s", err.Error())
		c.String(http.StatusBadRequest, err.Error())
		return
	}

	js, err := svc.createJobStatus("AddFileURIs", "Repository", 0)
	if err != nil {
		log.Printf("ERROR: unable to create AddFileURIs job status: %s", err.Error())
		c.String(http.StatusInternalServerError, err.Error())
		return
	}
	svc.logInfo(js, fmt.Sprintf("Add file uris to %d digital objects in repository %s", len(updates), req.Repository))

	updated := make([]string, 0)
	for _, upd := range updates {
		do, err := svc.fetchASRecord(upd.DigitalObject)
		if err != nil {
			svc.logError(js, fmt.Sprintf("Unable to get %s: %s", upd.DigitalObject, err.Error()))
			continue
		}
		if !appendFileVersion(do, upd.FileURI) {
			svc.logInfo(js, fmt.Sprintf("%s already has file uri %s", upd.DigitalObject, upd.FileURI))
			continue
		}
		_, asErr := svc.sendASPostRequest(upd.DigitalObject, do)
		if asErr != nil {
			svc.logError(js, fmt.Sprintf("Unable to update %s: %d:%s", upd.DigitalObject, asErr.StatusCode, asErr.Message))
			continue
		}
		svc.logInfo(js, fmt.Sprintf("Added %s to %s", upd.FileURI, do.String("digital_object_id")))
		updated = append(updated, do.String("digital_object_id"))
	}

	svc.jobDone(js)
	c.JSON(http.StatusOK, gin.H{"job": js.ID, "updated": updated})
}
