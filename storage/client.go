// Copyright © 2025 M Varma Group

// This file is part of Qrgate <https://github.com/m-varma-group/qrgate>.

// Qrgate is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License
// as published by the Free Software Foundation,
// either version 3 of the License, or (at your option)
// any later version.

// Qrgate is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.

// You should have received a copy of the GNU Affero General Public License
// along with Qrgate.  If not, see <http://www.gnu.org/licenses/>.

package storage

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/akyoto/cache"
	"github.com/google/uuid"
	"github.com/hamba/avro/v2"
	"github.com/nats-io/nats.go"

	"github.com/m-varma-group/qrgate/logging"
	"github.com/m-varma-group/qrgate/messaging"
)

// Client is the consumer side of the storage protocol. Upload streams
// the reader in chunks and reports progress after each acknowledged
// chunk; the context is checked between chunks, so cancellation takes
// effect at the next chunk boundary and aborts the open upload.
type Client interface {
	ListChildren(ctx context.Context, containerID string) ([]ItemInfo, error)
	Stat(ctx context.Context, itemID string) (ItemInfo, error)
	CreateContainer(ctx context.Context, parentID string, name string) (string, error)
	Delete(ctx context.Context, itemID string) error
	Upload(ctx context.Context, containerID string, name string, r io.Reader, progress func(sent int64)) (string, error)
}

type client struct {
	providerId string
	log        slog.Logger
	nc         *nats.Conn
	msgApi     avro.API

	statCache *cache.Cache
}

const defaultTimeout = 30 * time.Second
const uploadChunkSize = 128 * 1024

func NewStorageClient(providerId string, nc *nats.Conn, logger *logging.Logger) Client {
	msgApi := NewMessageApi()

	return &client{
		providerId,
		*logger.GetLogger("storageclient." + providerId),
		nc,
		msgApi,
		cache.New(defaultTimeout),
	}
}

func exchange(ctx context.Context, nc *nats.Conn, msgApi avro.API, providerId string, request *StorageRequest) (*StorageResponse, error) {
	data, err := msgApi.Marshal(StorageRequestSchema, request)
	if err != nil {
		return nil, err
	}

	header := messaging.InjectTraceContext(ctx, make(nats.Header))

	msg, err := nc.RequestMsg(&nats.Msg{
		Subject: StorageTopicPrefix + providerId,
		Header:  header,
		Data:    data,
	}, defaultTimeout)
	if err != nil {
		return nil, err
	}

	response := StorageResponse{}

	err = msgApi.Unmarshal(StorageResponseSchema, msg.Data, &response)
	if err != nil {
		return nil, err
	}

	return &response, nil
}

func exchangeUpload(nc *nats.Conn, msgApi avro.API, uploadId string, request *StorageUploadRequest) (*StorageUploadResponse, error) {
	data, err := msgApi.Marshal(StorageUploadRequestSchema, request)
	if err != nil {
		return nil, err
	}

	msg, err := nc.Request(StorageUploadTopicPrefix+uploadId, data, defaultTimeout)
	if err != nil {
		return nil, err
	}

	response := StorageUploadResponse{}

	err = msgApi.Unmarshal(StorageUploadResponseSchema, msg.Data, &response)
	if err != nil {
		return nil, err
	}

	return &response, nil
}

func (c *client) ListChildren(ctx context.Context, containerID string) ([]ItemInfo, error) {
	request := StorageRequest{
		Uid: uuid.NewString(),
		Request: ListChildrenRequest{
			ContainerID: containerID,
		},
	}

	response, err := exchange(ctx, c.nc, c.msgApi, c.providerId, &request)
	if err != nil {
		c.log.Error("listChildren failed", "uid", request.Uid, "req", request.Request, "error", err)
		return nil, err
	}

	resp := response.Response.(ListChildrenResponse)
	if resp.Error != "" {
		c.log.Error("listChildren failed", "uid", request.Uid, "req", request.Request, "error", resp.Error)
		return nil, errors.New(resp.Error)
	}

	for _, item := range resp.Items {
		c.statCache.Set(item.ID, item, defaultTimeout)
	}

	return resp.Items, nil
}

func (c *client) Stat(ctx context.Context, itemID string) (ItemInfo, error) {
	fromCache, found := c.statCache.Get(itemID)
	if found {
		return fromCache.(ItemInfo), nil
	}

	request := StorageRequest{
		Uid: uuid.NewString(),
		Request: StatRequest{
			ItemID: itemID,
		},
	}

	response, err := exchange(ctx, c.nc, c.msgApi, c.providerId, &request)
	if err != nil {
		c.log.Error("stat failed", "uid", request.Uid, "req", request.Request, "error", err)
		return ItemInfo{}, err
	}

	resp := response.Response.(StatResponse)
	if resp.Error != "" {
		c.log.Error("stat failed", "uid", request.Uid, "req", request.Request, "error", resp.Error)
		return ItemInfo{}, errors.New(resp.Error)
	}

	c.statCache.Set(itemID, resp.Item, defaultTimeout)

	return resp.Item, nil
}

func (c *client) CreateContainer(ctx context.Context, parentID string, name string) (string, error) {
	request := StorageRequest{
		Uid: uuid.NewString(),
		Request: CreateContainerRequest{
			ParentID: parentID,
			Name:     name,
		},
	}

	response, err := exchange(ctx, c.nc, c.msgApi, c.providerId, &request)
	if err != nil {
		c.log.Error("createContainer failed", "uid", request.Uid, "req", request.Request, "error", err)
		return "", err
	}

	resp := response.Response.(CreateContainerResponse)
	if resp.Error != "" {
		c.log.Error("createContainer failed", "uid", request.Uid, "req", request.Request, "error", resp.Error)
		return "", errors.New(resp.Error)
	}
	return resp.ContainerID, nil
}

func (c *client) Delete(ctx context.Context, itemID string) error {
	request := StorageRequest{
		Uid: uuid.NewString(),
		Request: DeleteRequest{
			ItemID: itemID,
		},
	}

	response, err := exchange(ctx, c.nc, c.msgApi, c.providerId, &request)
	if err != nil {
		c.log.Error("delete failed", "uid", request.Uid, "req", request.Request, "error", err)
		return err
	}

	errStr := response.Response.(DeleteResponse).Error
	if errStr != "" {
		c.log.Error("delete failed", "uid", request.Uid, "req", request.Request, "error", errStr)
		return errors.New(errStr)
	}

	c.statCache.Delete(itemID)

	return nil
}

func (c *client) Upload(ctx context.Context, containerID string, name string, r io.Reader, progress func(sent int64)) (string, error) {
	request := StorageRequest{
		Uid: uuid.NewString(),
		Request: OpenUploadRequest{
			ContainerID: containerID,
			Name:        name,
		},
	}

	response, err := exchange(ctx, c.nc, c.msgApi, c.providerId, &request)
	if err != nil {
		c.log.Error("openUpload failed", "uid", request.Uid, "req", request.Request, "error", err)
		return "", err
	}

	resp := response.Response.(OpenUploadResponse)
	if resp.Error != "" {
		c.log.Error("openUpload failed", "uid", request.Uid, "req", request.Request, "error", resp.Error)
		return "", errors.New(resp.Error)
	}

	uploadId := resp.UploadID

	var sent int64
	buf := make([]byte, uploadChunkSize)
	for {
		if err := ctx.Err(); err != nil {
			c.abortUpload(uploadId)
			return "", err
		}

		n, readErr := r.Read(buf)
		if n > 0 {
			if err := c.sendChunk(uploadId, buf[:n]); err != nil {
				c.abortUpload(uploadId)
				return "", err
			}
			sent += int64(n)
			if progress != nil {
				progress(sent)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			c.abortUpload(uploadId)
			return "", readErr
		}
	}

	return c.commitUpload(uploadId)
}

func (c *client) sendChunk(uploadId string, payload []byte) error {
	request := StorageUploadRequest{
		Uid:      uuid.NewString(),
		UploadID: uploadId,
		Request: UploadChunkRequest{
			Payload: payload,
		},
	}

	response, err := exchangeUpload(c.nc, c.msgApi, uploadId, &request)
	if err != nil {
		c.log.Error("uploadChunk failed", "uid", request.Uid, "uploadId", uploadId, "error", err)
		return err
	}

	resp := response.Response.(UploadChunkResponse)
	if resp.Error != "" {
		c.log.Error("uploadChunk failed", "uid", request.Uid, "uploadId", uploadId, "error", resp.Error)
		return errors.New(resp.Error)
	}
	return nil
}

func (c *client) commitUpload(uploadId string) (string, error) {
	request := StorageUploadRequest{
		Uid:      uuid.NewString(),
		UploadID: uploadId,
		Request:  UploadCommitRequest{},
	}

	response, err := exchangeUpload(c.nc, c.msgApi, uploadId, &request)
	if err != nil {
		c.log.Error("uploadCommit failed", "uid", request.Uid, "uploadId", uploadId, "error", err)
		return "", err
	}

	resp := response.Response.(UploadCommitResponse)
	if resp.Error != "" {
		c.log.Error("uploadCommit failed", "uid", request.Uid, "uploadId", uploadId, "error", resp.Error)
		return "", errors.New(resp.Error)
	}
	return resp.ItemID, nil
}

func (c *client) abortUpload(uploadId string) {
	request := StorageUploadRequest{
		Uid:      uuid.NewString(),
		UploadID: uploadId,
		Request:  UploadAbortRequest{},
	}

	// best effort: the server also discards stale uploads on its own
	_, err := exchangeUpload(c.nc, c.msgApi, uploadId, &request)
	if err != nil {
		c.log.Error("uploadAbort failed", "uid", request.Uid, "uploadId", uploadId, "error", err)
	}
}
