package aspace

import (
	"log"
)

// ModsData is the flat mapping handed to the MODS renderer. Every field is always
// populated; values that could not be resolved are empty rather than missing.
type ModsData struct {
	ArchivalObject Record   `json:"archival_object"`
	Resource       Record   `json:"resource"`
	Repository     Record   `json:"repository"`
	Langs          []string `json:"langs"`
	Subjects       []Record `json:"subjects"`
	GenreSubs      []Record `json:"genre_subs"`
	Agents         []Agent  `json:"agents"`
	Creators       []Agent  `json:"creators"`
	Donors         []Agent  `json:"donors"`
	SubjectAgents  []Agent  `json:"subject_agents"`
	CollectingUnit string   `json:"collecting_unit"`
	MsNo           string   `json:"ms_no"`
	DigitalObject  Record   `json:"digital_object"`
	Folder         string   `json:"folder"`
	Container      string   `json:"container"`
	Abstract       string   `json:"abstract"`
	UseRestrict    string   `json:"userestrict"`
	AccessRestrict string   `json:"accessrestrict"`
	Excerpts       bool     `json:"excerpts"`
	FileName       string   `json:"file_name"`
	Error          string   `json:"error"`
}

// NewModsData returns a mapping with every list and record initialized to empty
func NewModsData() *ModsData {
	return &ModsData{
		ArchivalObject: Record{},
		Resource:       Record{},
		Repository:     Record{},
		Langs:          make([]string, 0),
		Subjects:       make([]Record, 0),
		GenreSubs:      make([]Record, 0),
		Agents:         make([]Agent, 0),
		Creators:       make([]Agent, 0),
		Donors:         make([]Agent, 0),
		SubjectAgents:  make([]Agent, 0),
		DigitalObject:  Record{},
	}
}

// Builder assembles ModsData for archival objects using the records available from its
// fetcher. Pass a live fetcher for single records or a prefetched Cache for batches.
type Builder struct {
	fetcher Fetcher
	deref   Dereferencer
}

// NewBuilder creates a builder that resolves references with f
func NewBuilder(f Fetcher) *Builder {
	return &Builder{fetcher: f, deref: DereferenceWith(f)}
}

// Build fetches the archival object at leafURI and builds its mapping
func (b *Builder) Build(leafURI string) (*ModsData, error) {
	leaf, err := b.fetcher.Fetch(leafURI)
	if err != nil {
		out := NewModsData()
		ure := unresolvable(leafURI, err)
		out.Error = ure.Error()
		return out, ure
	}
	return b.BuildRecord(leaf)
}

// BuildRecord builds the mapping for an already fetched archival object. Failures to
// find the resource or repository are returned as errors along with a mapping that
// carries the failure in its Error field. Every other unresolvable value is left empty.
func (b *Builder) BuildRecord(leaf Record) (*ModsData, error) {
	out := NewModsData()
	out.ArchivalObject = leaf

	chain, err := BuildChain(leaf, b.fetcher)
	if err != nil {
		out.Error = err.Error()
		return out, err
	}
	out.Resource = chain.Resource
	records := chain.Records()

	repoRef, ok := leaf.Ref("repository")
	if !ok {
		repoRef, ok = chain.Resource.Ref("repository")
	}
	if !ok {
		err := &MissingReferenceError{URI: leaf.URI(), Field: "repository"}
		out.Error = err.Error()
		return out, err
	}
	if repo := fetchRef(b.fetcher, repoRef.URI); repo != nil {
		out.Repository = repo
		out.CollectingUnit = CollectingUnit(repo)
	}
	out.MsNo = MSNumber(chain.Resource)

	subjects := Dedup(NormalizeSubjects(ResolveLazy(records, "subjects", b.deref)))
	out.GenreSubs, out.Subjects = SplitGenre(subjects)

	agents := b.classifyAgents(records)
	out.Creators = agents.Creators
	out.Donors = agents.Donors
	out.SubjectAgents = agents.Subjects
	out.Agents = ExcludeRole(agents.All(), RoleSubject)

	notes := NotesTree(records)
	out.Langs = Languages(chain, notes)
	out.Abstract = DisplayNote(notes, "abstract")
	out.UseRestrict = DisplayNote(notes, "userestrict")
	out.AccessRestrict = DisplayNote(notes, "accessrestrict")

	out.Folder = Folder(leaf)
	out.Container = ShelfLocation(leaf, b.fetcher)

	if do := DigitalObject(leaf, b.fetcher); do != nil {
		out.DigitalObject = do
		name, err := ModsFileName(do)
		if err != nil {
			log.Printf("WARNING: %s", err.Error())
		} else {
			out.FileName = name
		}
	}
	out.Excerpts = IsExcerpt(leaf, out.DigitalObject)
	return out, nil
}

// classifyAgents gathers linked agents across the whole chain and buckets them by role
func (b *Builder) classifyAgents(records []Record) AgentsByRole {
	refs := UnionRefs(records, "linked_agents")
	unique := make([]Ref, 0, len(refs))
	seen := make(map[string]bool)
	for _, ref := range refs {
		if !seen[ref.URI] {
			seen[ref.URI] = true
			unique = append(unique, ref)
		}
	}
	return ClassifyAgents(refs, b.deref(unique))
}
