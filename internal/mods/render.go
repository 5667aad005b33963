// Package mods renders resolved ArchivesSpace data as MODS XML and delivers the
// resulting documents.
package mods

import (
	"encoding/xml"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-xmlfmt/xmlfmt"
	"github.com/uvalib/aspace-mods-ws/internal/aspace"
)

// Version is the MODS schema version declared on generated documents
const Version = "3.7"

var langCode = regexp.MustCompile(`^[a-z]{3}$`)

// markup holds text that has already been sanitized and escaped
type markup struct {
	Text string `xml:",innerxml"`
}

type typedMarkup struct {
	Type string `xml:"type,attr,omitempty"`
	Text string `xml:",innerxml"`
}

type titleInfo struct {
	Title markup `xml:"title"`
}

type roleTerm struct {
	Type      string `xml:"type,attr"`
	Authority string `xml:"authority,attr,omitempty"`
	Value     string `xml:",chardata"`
}

type modsName struct {
	Type      string     `xml:"type,attr,omitempty"`
	Authority string     `xml:"authority,attr,omitempty"`
	ValueURI  string     `xml:"valueURI,attr,omitempty"`
	NamePart  string     `xml:"namePart"`
	Roles     []roleTerm `xml:"role>roleTerm,omitempty"`
}

type subjectTerm struct {
	XMLName xml.Name
	Value   string `xml:",chardata"`
}

type subject struct {
	Authority string        `xml:"authority,attr,omitempty"`
	ValueURI  string        `xml:"valueURI,attr,omitempty"`
	Terms     []subjectTerm `xml:",omitempty"`
	Name      *modsName     `xml:"name,omitempty"`
}

type genre struct {
	Authority string `xml:"authority,attr,omitempty"`
	ValueURI  string `xml:"valueURI,attr,omitempty"`
	Value     string `xml:",chardata"`
}

type languageTerm struct {
	Type      string `xml:"type,attr"`
	Authority string `xml:"authority,attr,omitempty"`
	Value     string `xml:",chardata"`
}

type originInfo struct {
	DateCreated string `xml:"dateCreated"`
}

type identifier struct {
	Type  string `xml:"type,attr"`
	Value string `xml:",chardata"`
}

type location struct {
	PhysicalLocation string `xml:"physicalLocation,omitempty"`
	ShelfLocator     string `xml:"shelfLocator,omitempty"`
	URL              string `xml:"url,omitempty"`
}

type relatedItem struct {
	Type         string      `xml:"type,attr"`
	DisplayLabel string      `xml:"displayLabel,attr,omitempty"`
	TitleInfo    titleInfo   `xml:"titleInfo"`
	Identifier   *identifier `xml:"identifier,omitempty"`
	Location     *location   `xml:"location,omitempty"`
}

type recordInfo struct {
	ContentSource string `xml:"recordContentSource,omitempty"`
	Origin        string `xml:"recordOrigin"`
}

type document struct {
	XMLName         xml.Name       `xml:"mods"`
	Xmlns           string         `xml:"xmlns,attr"`
	XmlnsXlink      string         `xml:"xmlns:xlink,attr"`
	Version         string         `xml:"version,attr"`
	TitleInfo       titleInfo      `xml:"titleInfo"`
	Names           []modsName     `xml:"name,omitempty"`
	Genres          []genre        `xml:"genre,omitempty"`
	OriginInfo      *originInfo    `xml:"originInfo,omitempty"`
	Languages       []languageTerm `xml:"language>languageTerm,omitempty"`
	Abstract        *markup        `xml:"abstract,omitempty"`
	AccessCondition []typedMarkup  `xml:"accessCondition,omitempty"`
	Notes           []typedMarkup  `xml:"note,omitempty"`
	Subjects        []subject      `xml:"subject,omitempty"`
	RelatedItem     *relatedItem   `xml:"relatedItem,omitempty"`
	Identifiers     []identifier   `xml:"identifier,omitempty"`
	Location        *location      `xml:"location,omitempty"`
	RecordInfo      recordInfo     `xml:"recordInfo"`
}

// Render generates a formatted MODS document from the resolved data
func Render(data *aspace.ModsData) ([]byte, error) {
	doc := document{
		Xmlns:      "http://www.loc.gov/mods/v3",
		XmlnsXlink: "http://www.w3.org/1999/xlink",
		Version:    Version,
		TitleInfo:  titleInfo{Title: markup{Text: displayTitle(data.ArchivalObject)}},
	}

	for _, a := range data.Agents {
		doc.Names = append(doc.Names, agentName(a, true))
	}
	for _, g := range data.GenreSubs {
		doc.Genres = append(doc.Genres, genre{Authority: g.String("source"), ValueURI: g.String("authority_id"), Value: subjectTitle(g)})
	}
	if date := dateExpression(data.ArchivalObject); date != "" {
		doc.OriginInfo = &originInfo{DateCreated: date}
	}
	for _, lang := range data.Langs {
		if langCode.MatchString(lang) {
			doc.Languages = append(doc.Languages, languageTerm{Type: "code", Authority: "iso639-2b", Value: lang})
		} else {
			doc.Languages = append(doc.Languages, languageTerm{Type: "text", Value: lang})
		}
	}
	if data.Abstract != "" {
		doc.Abstract = &markup{Text: data.Abstract}
	}
	if data.AccessRestrict != "" {
		doc.AccessCondition = append(doc.AccessCondition, typedMarkup{Type: "restriction on access", Text: data.AccessRestrict})
	}
	if data.UseRestrict != "" {
		doc.AccessCondition = append(doc.AccessCondition, typedMarkup{Type: "use and reproduction", Text: data.UseRestrict})
	}
	if data.Excerpts {
		doc.Notes = append(doc.Notes, typedMarkup{Type: "content", Text: "Digitized excerpts of the described material."})
	}

	for _, s := range data.Subjects {
		doc.Subjects = append(doc.Subjects, subject{
			Authority: s.String("source"),
			ValueURI:  s.String("authority_id"),
			Terms:     subjectTerms(s),
		})
	}
	for _, a := range data.SubjectAgents {
		name := agentName(a, false)
		doc.Subjects = append(doc.Subjects, subject{Name: &name})
	}

	doc.RelatedItem = collectionItem(data)
	if doID := data.DigitalObject.String("digital_object_id"); doID != "" {
		doc.Identifiers = append(doc.Identifiers, identifier{Type: "local", Value: doID})
	}
	if fileURI := aspace.FileURI(data.DigitalObject); fileURI != "" || data.CollectingUnit != "" {
		doc.Location = &location{PhysicalLocation: data.CollectingUnit, URL: fileURI}
	}
	doc.RecordInfo = recordInfo{
		ContentSource: data.CollectingUnit,
		Origin:        fmt.Sprintf("Generated from ArchivesSpace record %s", data.ArchivalObject.URI()),
	}

	out, err := xml.Marshal(doc)
	if err != nil {
		return nil, err
	}
	pretty := xmlfmt.FormatXML(xml.Header+string(out), "", "  ")
	return []byte(strings.TrimSpace(pretty) + "\n"), nil
}

func displayTitle(rec aspace.Record) string {
	title := rec.String("title")
	if title == "" {
		title = rec.String("display_string")
	}
	return strings.Join(aspace.StripMarkup([]string{title}), "")
}

func dateExpression(rec aspace.Record) string {
	dates := rec.Objects("dates")
	if len(dates) == 0 {
		return ""
	}
	if expr := dates[0].String("expression"); expr != "" {
		return expr
	}
	begin := dates[0].String("begin")
	if end := dates[0].String("end"); end != "" && begin != "" {
		return begin + "/" + end
	}
	return begin
}

func agentName(a aspace.Agent, withRole bool) modsName {
	name := modsName{Type: a.Kind(), NamePart: a.Name(), ValueURI: a.AuthorityID()}
	if dn, ok := a.Data.Object("display_name"); ok {
		name.Authority = dn.String("source")
	}
	if name.ValueURI != "" && !strings.HasPrefix(name.ValueURI, "http") {
		// bare ids are only meaningful as URIs
		name.ValueURI = ""
	}
	if withRole {
		role := a.Role
		if role == aspace.RoleSource {
			role = "donor"
		}
		name.Roles = append(name.Roles, roleTerm{Type: "text", Authority: "marcrelator", Value: role})
		if a.Relator != "" {
			name.Roles = append(name.Roles, roleTerm{Type: "code", Authority: "marcrelator", Value: a.Relator})
		}
	}
	return name
}

func subjectTitle(s aspace.Record) string {
	if title := s.String("title"); title != "" {
		return title
	}
	parts := make([]string, 0)
	for _, t := range s.Objects("terms") {
		parts = append(parts, t.String("term"))
	}
	return strings.Join(parts, " -- ")
}

func subjectTerms(s aspace.Record) []subjectTerm {
	out := make([]subjectTerm, 0)
	for _, t := range s.Objects("terms") {
		out = append(out, subjectTerm{XMLName: xml.Name{Local: termElement(t.String("term_type"))}, Value: t.String("term")})
	}
	if len(out) == 0 {
		out = append(out, subjectTerm{XMLName: xml.Name{Local: termElement(aspace.TermType(s))}, Value: subjectTitle(s)})
	}
	return out
}

func termElement(termType string) string {
	switch termType {
	case "geographic":
		return "geographic"
	case "temporal":
		return "temporal"
	case "occupation":
		return "occupation"
	}
	return "topic"
}

func collectionItem(data *aspace.ModsData) *relatedItem {
	title := displayTitle(data.Resource)
	if title == "" {
		return nil
	}
	item := relatedItem{Type: "host", DisplayLabel: "Collection", TitleInfo: titleInfo{Title: markup{Text: title}}}
	if data.MsNo != "" {
		item.Identifier = &identifier{Type: "local", Value: data.MsNo}
	}
	shelf := make([]string, 0, 2)
	for _, s := range []string{data.Container, data.Folder} {
		if s != "" {
			shelf = append(shelf, s)
		}
	}
	if data.CollectingUnit != "" || len(shelf) > 0 {
		item.Location = &location{PhysicalLocation: data.CollectingUnit, ShelfLocator: strings.Join(shelf, ", ")}
	}
	return &item
}
