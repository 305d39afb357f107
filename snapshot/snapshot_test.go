package snapshot_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/m-varma-group/qrgate/logging"
	"github.com/m-varma-group/qrgate/snapshot"
	"github.com/m-varma-group/qrgate/storage"
)

type fakeClient struct {
	children map[string][]storage.ItemInfo
	errs     map[string]error
}

func (c *fakeClient) ListChildren(ctx context.Context, containerID string) ([]storage.ItemInfo, error) {
	if err := c.errs[containerID]; err != nil {
		return nil, err
	}
	return c.children[containerID], nil
}

func (c *fakeClient) Stat(ctx context.Context, itemID string) (storage.ItemInfo, error) {
	return storage.ItemInfo{}, errors.New("not implemented")
}

func (c *fakeClient) CreateContainer(ctx context.Context, parentID string, name string) (string, error) {
	return "", errors.New("not implemented")
}

func (c *fakeClient) Delete(ctx context.Context, itemID string) error {
	return errors.New("not implemented")
}

func (c *fakeClient) Upload(ctx context.Context, containerID string, name string, r io.Reader, progress func(sent int64)) (string, error) {
	return "", errors.New("not implemented")
}

func file(id, name string) storage.ItemInfo {
	return storage.ItemInfo{ID: id, Name: name}
}

func folder(id, name string) storage.ItemInfo {
	return storage.ItemInfo{ID: id, Name: name, IsContainer: true}
}

func getBuilder(client storage.Client, maxDepth int) *snapshot.Builder {
	return snapshot.NewBuilder(client, maxDepth, logging.New(logging.Params{}))
}

func TestBuild(t *testing.T) {
	client := &fakeClient{
		children: map[string][]storage.ItemInfo{
			"root":    {file("a", "fileA"), folder("folderB", "folderB")},
			"folderB": {file("c", "fileC"), file("d", "fileD")},
		},
	}

	entries, err := getBuilder(client, 5).Build(context.Background(), "root")

	assert.Nil(t, err)
	assert.Equal(t, 2, len(entries))

	assert.Equal(t, "fileA", entries[0].Name)
	assert.Equal(t, snapshot.KindFile, entries[0].Kind)
	assert.Equal(t, 0, entries[0].Depth)
	assert.Nil(t, entries[0].Children)
	assert.Equal(t, "https://drive.google.com/file/d/a/view", entries[0].Link)

	assert.Equal(t, "folderB", entries[1].Name)
	assert.Equal(t, snapshot.KindContainer, entries[1].Kind)
	assert.Equal(t, "https://drive.google.com/drive/folders/folderB", entries[1].Link)
	assert.Equal(t, 2, len(entries[1].Children))
	assert.Equal(t, "fileC", entries[1].Children[0].Name)
	assert.Equal(t, 1, entries[1].Children[0].Depth)

	assert.Equal(t, 4, snapshot.Count(entries))
}

func TestBuildEmptyContainer(t *testing.T) {
	client := &fakeClient{
		children: map[string][]storage.ItemInfo{
			"root":  {folder("empty", "empty")},
			"empty": {},
		},
	}

	entries, err := getBuilder(client, 5).Build(context.Background(), "root")

	assert.Nil(t, err)
	assert.Equal(t, 1, len(entries))
	assert.NotNil(t, entries[0].Children)
	assert.Equal(t, 0, len(entries[0].Children))
	assert.Equal(t, "", entries[0].FetchError)
}

func TestBuildDepthTruncation(t *testing.T) {
	client := &fakeClient{
		children: map[string][]storage.ItemInfo{
			"root": {folder("l0", "level0")},
			"l0":   {folder("l1", "level1")},
			"l1":   {folder("l2", "level2")},
			"l2":   {file("deep", "deep.txt")},
		},
	}

	entries, err := getBuilder(client, 2).Build(context.Background(), "root")

	assert.Nil(t, err)

	level0 := entries[0]
	level1 := level0.Children[0]
	level2 := level1.Children[0]

	assert.Equal(t, "level2", level2.Name)
	assert.Equal(t, 2, level2.Depth)
	// truncated at max depth: no recursion, no error
	assert.NotNil(t, level2.Children)
	assert.Equal(t, 0, len(level2.Children))
	assert.Equal(t, "", level2.FetchError)
}

func TestBuildPartialFailure(t *testing.T) {
	client := &fakeClient{
		children: map[string][]storage.ItemInfo{
			"root": {folder("bad", "bad"), folder("good", "good")},
			"good": {file("f", "file.txt")},
		},
		errs: map[string]error{
			"bad": errors.New("upstream unavailable"),
		},
	}

	entries, err := getBuilder(client, 5).Build(context.Background(), "root")

	assert.Nil(t, err)
	assert.Equal(t, 2, len(entries))

	assert.Equal(t, snapshot.FetchErrorMessage, entries[0].FetchError)
	assert.Equal(t, 0, len(entries[0].Children))

	// siblings keep their correctly fetched children
	assert.Equal(t, "", entries[1].FetchError)
	assert.Equal(t, 1, len(entries[1].Children))
	assert.Equal(t, "file.txt", entries[1].Children[0].Name)
}

func TestBuildTopLevelFailure(t *testing.T) {
	client := &fakeClient{
		errs: map[string]error{
			"root": errors.New("upstream unavailable"),
		},
	}

	_, err := getBuilder(client, 5).Build(context.Background(), "root")

	assert.NotNil(t, err)
}

func TestBuildFlat(t *testing.T) {
	client := &fakeClient{
		children: map[string][]storage.ItemInfo{
			"root": {file("a", "fileA"), folder("sub", "sub")},
			"sub":  {folder("subsub", "subsub"), file("b", "fileB")},
			// deeper than any reasonable maxDepth: flat mode has no limit
			"subsub": {file("c", "fileC")},
		},
	}

	flat, err := getBuilder(client, 1).BuildFlat(context.Background(), "root")

	assert.Nil(t, err)
	assert.Equal(t, []snapshot.FlatEntry{
		{Name: "fileA", URL: "https://drive.google.com/file/d/a/view"},
		{Name: "fileC", URL: "https://drive.google.com/file/d/c/view"},
		{Name: "fileB", URL: "https://drive.google.com/file/d/b/view"},
	}, flat)
}

func TestEmptyChildrenSurviveSerialization(t *testing.T) {
	entry := snapshot.Entry{
		ID:       "empty",
		Name:     "empty",
		Kind:     snapshot.KindContainer,
		Children: []snapshot.Entry{},
	}

	data, err := json.Marshal(entry)
	assert.Nil(t, err)
	assert.Contains(t, string(data), `"children":[]`)

	decoded := snapshot.Entry{}
	err = json.Unmarshal(data, &decoded)
	assert.Nil(t, err)
	// known-empty stays a list, it never degrades to "absent"
	assert.NotNil(t, decoded.Children)
	assert.Equal(t, 0, len(decoded.Children))

	raw, err := bson.Marshal(entry)
	assert.Nil(t, err)

	decoded = snapshot.Entry{}
	err = bson.Unmarshal(raw, &decoded)
	assert.Nil(t, err)
	assert.NotNil(t, decoded.Children)
	assert.Equal(t, 0, len(decoded.Children))
}

func TestCountIdempotent(t *testing.T) {
	client := &fakeClient{
		children: map[string][]storage.ItemInfo{
			"root":    {file("a", "f1"), file("b", "f2"), folder("folderC", "folderC")},
			"folderC": {file("c", "f3"), file("d", "f4"), file("e", "f5")},
		},
	}

	entries, err := getBuilder(client, 5).Build(context.Background(), "root")

	assert.Nil(t, err)
	assert.Equal(t, 6, snapshot.Count(entries))
	assert.Equal(t, 6, snapshot.Count(entries))
}
