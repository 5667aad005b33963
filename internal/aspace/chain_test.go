package aspace

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildChain(t *testing.T) {
	store := recordStore(t,
		`{"uri":"/repositories/2/archival_objects/3","parent":{"ref":"/repositories/2/archival_objects/2"},"resource":{"ref":"/repositories/2/resources/1"}}`,
		`{"uri":"/repositories/2/archival_objects/2","parent":{"ref":"/repositories/2/archival_objects/1"},"resource":{"ref":"/repositories/2/resources/1"}}`,
		`{"uri":"/repositories/2/archival_objects/1","resource":{"ref":"/repositories/2/resources/1"}}`,
		`{"uri":"/repositories/2/resources/1","title":"Papers"}`,
	)
	leaf, _ := store.Get("/repositories/2/archival_objects/3")

	chain, err := BuildChain(leaf, store)
	require.NoError(t, err)

	uris := make([]string, 0)
	for _, rec := range chain.Records() {
		uris = append(uris, rec.URI())
	}
	assert.Equal(t, []string{
		"/repositories/2/archival_objects/3",
		"/repositories/2/archival_objects/2",
		"/repositories/2/archival_objects/1",
		"/repositories/2/resources/1",
	}, uris)
	assert.Len(t, chain.Objects(), 3)
}

func TestBuildChain_NoParent(t *testing.T) {
	store := recordStore(t,
		`{"uri":"/repositories/2/archival_objects/1","resource":{"ref":"/repositories/2/resources/1"}}`,
		`{"uri":"/repositories/2/resources/1"}`,
	)
	leaf, _ := store.Get("/repositories/2/archival_objects/1")
	chain, err := BuildChain(leaf, store)
	require.NoError(t, err)
	assert.Empty(t, chain.Parents)
	assert.Len(t, chain.Records(), 2)
}

func TestBuildChain_MissingResource(t *testing.T) {
	leaf := mustRecord(t, `{"uri":"/repositories/2/archival_objects/1"}`)
	_, err := BuildChain(leaf, NewCache(nil))
	require.Error(t, err)
	assert.True(t, IsMissingResource(err))

	var mre *MissingReferenceError
	require.True(t, errors.As(err, &mre))
	assert.Equal(t, "/repositories/2/archival_objects/1", mre.URI)
}

func TestBuildChain_UnresolvableResource(t *testing.T) {
	leaf := mustRecord(t, `{"uri":"/repositories/2/archival_objects/1","resource":{"ref":"/repositories/2/resources/9"}}`)
	_, err := BuildChain(leaf, NewCache(nil))

	var ure *UnresolvableReferenceError
	require.True(t, errors.As(err, &ure))
	assert.Equal(t, "/repositories/2/resources/9", ure.URI)
	assert.ErrorIs(t, err, ErrNotCached)
}

func TestBuildChain_EndlessParents(t *testing.T) {
	// every fetched parent names a brand new parent, so only the hop bound stops the walk
	fetches := 0
	f := FetchFunc(func(uri string) (Record, error) {
		fetches++
		if uri == "/repositories/2/resources/1" {
			return Record{"uri": uri}, nil
		}
		next := fmt.Sprintf("%s/x", uri)
		return Record{"uri": uri, "parent": map[string]interface{}{"ref": next}}, nil
	})
	leaf := mustRecord(t, `{"uri":"/a","parent":{"ref":"/a/x"},"resource":{"ref":"/repositories/2/resources/1"}}`)

	chain, err := BuildChain(leaf, f)
	require.NoError(t, err)
	assert.Len(t, chain.Parents, MaxAncestors)
	assert.Equal(t, MaxAncestors+1, fetches)
	// leaf, every ancestor hop, then the resource
	assert.Len(t, chain.Records(), MaxAncestors+2)
}

func TestBuildChain_Cycle(t *testing.T) {
	store := recordStore(t,
		`{"uri":"/ao/1","parent":{"ref":"/ao/2"},"resource":{"ref":"/res/1"}}`,
		`{"uri":"/ao/2","parent":{"ref":"/ao/3"}}`,
		`{"uri":"/ao/3","parent":{"ref":"/ao/2"}}`,
		`{"uri":"/res/1"}`,
	)
	leaf, _ := store.Get("/ao/1")
	chain, err := BuildChain(leaf, store)
	require.NoError(t, err)
	assert.Len(t, chain.Parents, 2)
	assert.LessOrEqual(t, len(chain.Parents), MaxAncestors)
}

func TestBuildChain_UnresolvableParent(t *testing.T) {
	store := recordStore(t,
		`{"uri":"/ao/1","parent":{"ref":"/ao/2"},"resource":{"ref":"/res/1"}}`,
		`{"uri":"/res/1"}`,
	)
	leaf, _ := store.Get("/ao/1")
	chain, err := BuildChain(leaf, store)
	require.NoError(t, err)
	assert.Empty(t, chain.Parents)
	assert.Equal(t, "/res/1", chain.Resource.URI())
}
