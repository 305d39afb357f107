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
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"

	"github.com/m-varma-group/qrgate/logging"
	"github.com/m-varma-group/qrgate/messaging"
)

// Backend is implemented by storage providers. Upload writers receive
// the chunks of one open upload in order and either commit to a new
// item id or discard everything on abort.
type Backend interface {
	List(containerID string) ([]ItemInfo, error)
	Stat(itemID string) (ItemInfo, error)
	CreateContainer(parentID string, name string) (string, error)
	Delete(itemID string) error
	OpenUpload(containerID string, name string) (Upload, error)
}

type Upload interface {
	Write(p []byte) (int, error)
	Commit() (string, error)
	Abort() error
}

type StorageServer struct {
	ProviderId string
}

type uploadHolder struct {
	uploadId     uuid.UUID
	upload       Upload
	lastAccess   time.Time
	subscription *nats.Subscription
}

func NewStorageServer(providerId string, nc *nats.Conn, backend Backend, logger *logging.Logger) *StorageServer {
	log := logger.GetLogger("storage." + providerId)
	server := StorageServer{
		ProviderId: providerId,
	}
	msgApi := NewMessageApi()

	var mu sync.Mutex
	openUploads := make(map[uuid.UUID]uploadHolder)

	providerTopic := StorageTopicPrefix + providerId
	nc.QueueSubscribe(providerTopic, providerTopic, func(msg *nats.Msg) {
		request := StorageRequest{}
		msgApi.Unmarshal(StorageRequestSchema, msg.Data, &request)

		ctx := messaging.ExtractTraceContext(context.Background(), msg)
		_, span := otel.Tracer("storage").Start(ctx, "handleRequest")
		defer span.End()

		switch req := request.Request.(type) {

		case ListChildrenRequest:
			items, err := backend.List(req.ContainerID)
			response := ListChildrenResponse{Items: items}
			if err == nil {
				log.Debug("listChildren", "uid", request.Uid, "req", req)
			} else {
				log.Debug("listChildren failed", "uid", request.Uid, "req", req, "error", err)
				response.Error = err.Error()
				response.Items = []ItemInfo{}
			}
			if response.Items == nil {
				response.Items = []ItemInfo{}
			}
			responseData, _ := msgApi.Marshal(StorageResponseSchema, StorageResponse{
				Uid:      request.Uid,
				Response: response,
			})
			msg.Respond(responseData)

		case StatRequest:
			item, err := backend.Stat(req.ItemID)
			response := StatResponse{Item: item}
			if err == nil {
				log.Debug("stat", "uid", request.Uid, "req", req)
			} else {
				log.Debug("stat failed", "uid", request.Uid, "req", req, "error", err)
				response.Error = err.Error()
			}
			responseData, _ := msgApi.Marshal(StorageResponseSchema, StorageResponse{
				Uid:      request.Uid,
				Response: response,
			})
			msg.Respond(responseData)

		case CreateContainerRequest:
			containerId, err := backend.CreateContainer(req.ParentID, req.Name)
			response := CreateContainerResponse{ContainerID: containerId}
			if err == nil {
				log.Debug("createContainer", "uid", request.Uid, "req", req)
			} else {
				log.Debug("createContainer failed", "uid", request.Uid, "req", req, "error", err)
				response.Error = err.Error()
			}
			responseData, _ := msgApi.Marshal(StorageResponseSchema, StorageResponse{
				Uid:      request.Uid,
				Response: response,
			})
			msg.Respond(responseData)

		case DeleteRequest:
			err := backend.Delete(req.ItemID)
			var errStr string
			if err == nil {
				log.Debug("delete", "uid", request.Uid, "req", req)
			} else {
				log.Debug("delete failed", "uid", request.Uid, "req", req, "error", err)
				errStr = err.Error()
			}
			responseData, _ := msgApi.Marshal(StorageResponseSchema, StorageResponse{
				Uid: request.Uid,
				Response: DeleteResponse{
					Error: errStr,
				},
			})
			msg.Respond(responseData)

		case OpenUploadRequest:
			upload, err := backend.OpenUpload(req.ContainerID, req.Name)
			if err == nil {
				log.Debug("openUpload", "uid", request.Uid, "req", req)
			} else {
				log.Debug("openUpload failed", "uid", request.Uid, "req", req, "error", err)
			}
			response := OpenUploadResponse{}
			if err == nil {
				uploadId := uuid.New()
				uploadTopic := StorageUploadTopicPrefix + uploadId.String()
				subscription, _ := nc.Subscribe(uploadTopic, func(uploadMsg *nats.Msg) {
					uploadRequest := StorageUploadRequest{}
					err := msgApi.Unmarshal(StorageUploadRequestSchema, uploadMsg.Data, &uploadRequest)
					if err != nil {
						log.Error("unable to parse upload request", "err", err)
						return
					}

					switch uploadReq := uploadRequest.Request.(type) {

					case UploadChunkRequest:
						n, err := upload.Write(uploadReq.Payload)
						var errStr string
						if err == nil {
							log.Debug("uploadChunk", "uid", uploadRequest.Uid, "uploadId", uploadRequest.UploadID)
						} else {
							log.Error("uploadChunk failed", "uid", uploadRequest.Uid, "uploadId", uploadRequest.UploadID, "error", err)
							errStr = err.Error()
						}
						uploadResponseData, _ := msgApi.Marshal(StorageUploadResponseSchema, StorageUploadResponse{
							Uid: uploadRequest.Uid,
							Response: UploadChunkResponse{
								Len:   n,
								Error: errStr,
							},
						})
						uploadMsg.Respond(uploadResponseData)

					case UploadCommitRequest:
						itemId, err := upload.Commit()
						response := UploadCommitResponse{ItemID: itemId}
						if err == nil {
							log.Debug("uploadCommit", "uid", uploadRequest.Uid, "uploadId", uploadRequest.UploadID)
						} else {
							log.Error("uploadCommit failed", "uid", uploadRequest.Uid, "uploadId", uploadRequest.UploadID, "error", err)
							response.Error = err.Error()
						}
						mu.Lock()
						if holder, ok := openUploads[uploadId]; ok {
							holder.subscription.Unsubscribe()
							delete(openUploads, uploadId)
						}
						mu.Unlock()
						uploadResponseData, _ := msgApi.Marshal(StorageUploadResponseSchema, StorageUploadResponse{
							Uid:      uploadRequest.Uid,
							Response: response,
						})
						uploadMsg.Respond(uploadResponseData)

					case UploadAbortRequest:
						err := upload.Abort()
						var errStr string
						if err == nil {
							log.Debug("uploadAbort", "uid", uploadRequest.Uid, "uploadId", uploadRequest.UploadID)
						} else {
							log.Error("uploadAbort failed", "uid", uploadRequest.Uid, "uploadId", uploadRequest.UploadID, "error", err)
							errStr = err.Error()
						}
						mu.Lock()
						if holder, ok := openUploads[uploadId]; ok {
							holder.subscription.Unsubscribe()
							delete(openUploads, uploadId)
						}
						mu.Unlock()
						uploadResponseData, _ := msgApi.Marshal(StorageUploadResponseSchema, StorageUploadResponse{
							Uid: uploadRequest.Uid,
							Response: UploadAbortResponse{
								Error: errStr,
							},
						})
						uploadMsg.Respond(uploadResponseData)

					default:
						log.Error("unknown upload request", "req", uploadRequest.Request)
					}
				})
				mu.Lock()
				openUploads[uploadId] = uploadHolder{uploadId, upload, time.Now(), subscription}
				mu.Unlock()
				response.UploadID = uploadId.String()
			} else {
				response.Error = err.Error()
			}
			responseData, _ := msgApi.Marshal(StorageResponseSchema, StorageResponse{
				Uid:      request.Uid,
				Response: response,
			})
			msg.Respond(responseData)

		default:
			log.Error("unknown request", "req", request.Request)
		}
	})
	log.Info("storage provider active", "topic", providerTopic)

	return &server
}
