package aspace

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

var pidPattern = regexp.MustCompile(`([A-Za-z][A-Za-z0-9_.-]*):(\d+)`)

// MSNumber builds the manuscript number of a resource from id_1 and id_2. When either is
// missing it falls back to "MS " and the first three characters of id_0.
func MSNumber(resource Record) string {
	if resource.Has("id_1") && resource.Has("id_2") {
		return resource.String("id_1") + " " + resource.String("id_2")
	}
	id0 := []rune(resource.String("id_0"))
	if len(id0) > 3 {
		id0 = id0[:3]
	}
	return "MS " + string(id0)
}

// CollectingUnit is the name of the holding repository
func CollectingUnit(repository Record) string {
	if repository == nil {
		return ""
	}
	return repository.String("name")
}

// firstSubContainer returns the sub_container of the first instance of an archival object
func firstSubContainer(ao Record) (Record, bool) {
	instances := ao.Objects("instances")
	if len(instances) == 0 {
		return nil, false
	}
	return instances[0].Object("sub_container")
}

// Folder describes the second level container of the first instance, eg: "Folder 12"
func Folder(ao Record) string {
	sc, ok := firstSubContainer(ao)
	if !ok || !sc.Has("type_2") || !sc.Has("indicator_2") {
		return ""
	}
	folderType := []rune(strings.ToLower(sc.String("type_2")))
	if len(folderType) > 0 {
		folderType[0] = unicode.ToUpper(folderType[0])
	}
	return string(folderType) + " " + sc.String("indicator_2")
}

// TopContainerRef returns the top container reference of the first instance
func TopContainerRef(ao Record) (Ref, bool) {
	sc, ok := firstSubContainer(ao)
	if !ok {
		return Ref{}, false
	}
	return sc.Ref("top_container")
}

// ShelfLocation returns the display string of the top container holding the first
// instance of ao, or an empty string if there is none
func ShelfLocation(ao Record, f Fetcher) string {
	ref, ok := TopContainerRef(ao)
	if !ok {
		return ""
	}
	tc := fetchRef(f, ref.URI)
	if tc == nil {
		return ""
	}
	return tc.String("display_string")
}

// DigitalObjectRefs returns references to the digital objects attached to ao as instances
func DigitalObjectRefs(ao Record) []Ref {
	out := make([]Ref, 0)
	for _, inst := range ao.Objects("instances") {
		if ref, ok := inst.Ref("digital_object"); ok {
			out = append(out, ref)
		}
	}
	return out
}

// DigitalObject resolves the first digital object instance of ao
func DigitalObject(ao Record, f Fetcher) Record {
	for _, ref := range DigitalObjectRefs(ao) {
		if do := fetchRef(f, ref.URI); do != nil {
			return do
		}
	}
	return nil
}

// FileURI returns the file_uri of the first file version of a digital object
func FileURI(do Record) string {
	versions := do.Objects("file_versions")
	if len(versions) == 0 {
		return ""
	}
	return versions[0].String("file_uri")
}

// ModsFileName derives the output file name from a digital object's file version uri.
// A uri ending in .../object/islandora:1234 becomes islandora_1234_MODS.xml.
func ModsFileName(do Record) (string, error) {
	uri := FileURI(do)
	if uri == "" {
		return "", fmt.Errorf("digital object %s has no file version uri", do.URI())
	}
	matches := pidPattern.FindAllString(lastSegment(uri), -1)
	if len(matches) == 0 {
		matches = pidPattern.FindAllString(uri, -1)
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("file version uri %s does not contain a namespace:number identifier", uri)
	}
	pid := matches[len(matches)-1]
	return strings.Replace(pid, ":", "_", 1) + "_MODS.xml", nil
}

// IsExcerpt reports whether the digital object or archival object title marks the
// digitized content as excerpts of the described material
func IsExcerpt(ao Record, do Record) bool {
	titles := []string{ao.String("title"), ao.String("display_string")}
	if do != nil {
		titles = append(titles, do.String("title"))
	}
	for _, t := range titles {
		if strings.Contains(strings.ToLower(t), "excerpt") {
			return true
		}
	}
	return false
}
