package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"newsdesk/portal/internal/storage"
	"newsdesk/portal/internal/utils"
)

// ImageQueue hands uploaded images to the background worker.
type ImageQueue interface {
	EnqueueImage(ctx context.Context, key, target string, targetID utils.SixID) error
}

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

type uploadURLRequest struct {
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"contentType" binding:"required"`
}

type confirmUploadRequest struct {
	Key string `json:"key" binding:"required"`
}

// imageUploads implements the two-step upload: the client PUTs the file to a
// presigned URL, then confirms the key so the worker can process it.
type imageUploads struct {
	storage storage.IS3Storage
	queue   ImageQueue
}

func uploadOwner(target string, id utils.SixID) string {
	return target + "/" + id.String()
}

func (u imageUploads) presign(c *gin.Context, target string, id utils.SixID) {
	var req uploadURLRequest
	if !bindJSON(c, &req) {
		return
	}
	if !allowedImageTypes[req.ContentType] {
		badRequest(c, "Only JPEG and PNG images are accepted")
		return
	}
	url, key, err := u.storage.GeneratePresignedPutURL(c.Request.Context(), uploadOwner(target, id), req.Filename, req.ContentType)
	if err != nil {
		respondError(c, err, "Failed to prepare upload")
		return
	}
	respond(c, http.StatusOK, gin.H{"uploadUrl": url, "key": key})
}

func (u imageUploads) confirm(c *gin.Context, target string, id utils.SixID) {
	var req confirmUploadRequest
	if !bindJSON(c, &req) {
		return
	}
	if !strings.HasPrefix(req.Key, "uploads/"+uploadOwner(target, id)+"/") {
		badRequest(c, "Upload key does not belong to this resource")
		return
	}
	if err := u.queue.EnqueueImage(c.Request.Context(), req.Key, target, id); err != nil {
		respondError(c, err, "Failed to queue image processing")
		return
	}
	respond(c, http.StatusAccepted, gin.H{"key": req.Key, "imageUrl": u.storage.PublicURL(req.Key)})
}
