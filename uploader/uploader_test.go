package uploader_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/m-varma-group/qrgate/logging"
	"github.com/m-varma-group/qrgate/storage"
	"github.com/m-varma-group/qrgate/uploader"
)

type fakeClient struct {
	existing []storage.ItemInfo
	failOn   map[string]error

	uploads []string
	data    map[string][]byte
	nextID  int
}

func (c *fakeClient) ListChildren(ctx context.Context, containerID string) ([]storage.ItemInfo, error) {
	return c.existing, nil
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
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := c.failOn[name]; err != nil {
		return "", err
	}

	payload, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	if progress != nil {
		progress(int64(len(payload)))
	}

	if c.data == nil {
		c.data = map[string][]byte{}
	}
	c.nextID++
	id := fmt.Sprintf("item-%d", c.nextID)
	c.uploads = append(c.uploads, name)
	c.data[name] = payload
	return id, nil
}

func getQueue(client *fakeClient) *uploader.Queue {
	return uploader.NewQueue(client, "container", logging.New(logging.Params{}))
}

func TestRunSequential(t *testing.T) {
	client := &fakeClient{}
	queue := getQueue(client)

	var sentA int64
	queue.Add("a.txt", strings.NewReader("aaa"), func(sent int64) { sentA = sent })
	queue.Add("b.txt", strings.NewReader("bbbb"), nil)

	results := queue.Run(context.Background())

	assert.Equal(t, 2, len(results))
	assert.Nil(t, results[0].Err)
	assert.Nil(t, results[1].Err)
	assert.Equal(t, "a.txt", results[0].Name)
	assert.NotEqual(t, "", results[0].ItemID)
	assert.Equal(t, int64(3), sentA)

	// order of completion matches order of enqueueing
	assert.Equal(t, []string{"a.txt", "b.txt"}, client.uploads)
	assert.True(t, bytes.Equal([]byte("bbbb"), client.data["b.txt"]))
}

func TestFailureDoesNotAbortBatch(t *testing.T) {
	client := &fakeClient{
		failOn: map[string]error{"bad.txt": errors.New("upstream unavailable")},
	}
	queue := getQueue(client)

	queue.Add("good.txt", strings.NewReader("x"), nil)
	queue.Add("bad.txt", strings.NewReader("y"), nil)
	queue.Add("also-good.txt", strings.NewReader("z"), nil)

	results := queue.Run(context.Background())

	assert.Nil(t, results[0].Err)
	assert.NotNil(t, results[1].Err)
	assert.Nil(t, results[2].Err)
	assert.Equal(t, []string{"good.txt", "also-good.txt"}, client.uploads)
}

func TestCancelQueuedTask(t *testing.T) {
	client := &fakeClient{}
	queue := getQueue(client)

	queue.Add("first.txt", strings.NewReader("1"), nil)
	second := queue.Add("second.txt", strings.NewReader("2"), nil)
	queue.Add("third.txt", strings.NewReader("3"), nil)

	second.Cancel()

	results := queue.Run(context.Background())

	assert.Nil(t, results[0].Err)
	assert.ErrorIs(t, results[1].Err, context.Canceled)
	assert.Nil(t, results[2].Err)

	// the cancelled file never reaches storage, the others do
	assert.Equal(t, []string{"first.txt", "third.txt"}, client.uploads)
}

func TestUniqueNames(t *testing.T) {
	client := &fakeClient{
		existing: []storage.ItemInfo{{ID: "e1", Name: "report.pdf"}},
	}
	queue := getQueue(client)

	queue.Add("report.pdf", strings.NewReader("a"), nil)
	queue.Add("report.pdf", strings.NewReader("b"), nil)
	queue.Add("notes", strings.NewReader("c"), nil)

	results := queue.Run(context.Background())

	assert.Equal(t, "report (1).pdf", results[0].Name)
	assert.Equal(t, "report (2).pdf", results[1].Name)
	assert.Equal(t, "notes", results[2].Name)
}

func TestRunWithCancelledContext(t *testing.T) {
	client := &fakeClient{}
	queue := getQueue(client)

	queue.Add("a.txt", strings.NewReader("a"), nil)
	queue.Add("b.txt", strings.NewReader("b"), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := queue.Run(ctx)

	assert.ErrorIs(t, results[0].Err, context.Canceled)
	assert.ErrorIs(t, results[1].Err, context.Canceled)
	assert.Equal(t, 0, len(client.uploads))
}
