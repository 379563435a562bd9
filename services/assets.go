package services

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"
)

const MaxProofBytes = 5 << 20

// Asset is a stored file such as a payment proof image.
type Asset struct {
	Ref         string
	Filename    string
	ContentType string
	Data        []byte
	CreatedAt   time.Time
}

type AssetStore interface {
	SaveAsset(ctx context.Context, a Asset) (string, error)
	GetAsset(ctx context.Context, ref string) (*Asset, error)
	DeleteAsset(ctx context.Context, ref string) error
}

// ProofFile is an uploaded payment proof before it is stored.
type ProofFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Asset converts the upload, sniffing the content type when the client sent none.
func (p *ProofFile) Asset() Asset {
	ct := p.ContentType
	if ct == "" || ct == "application/octet-stream" {
		ct = http.DetectContentType(p.Data)
	}
	return Asset{Filename: filepath.Base(p.Filename), ContentType: ct, Data: p.Data}
}

// ValidateProof accepts images up to MaxProofBytes.
func ValidateProof(p *ProofFile) error {
	if len(p.Data) > MaxProofBytes {
		return invalid("paymentProof", fmt.Sprintf("Payment proof must be smaller than %d MB.", MaxProofBytes>>20))
	}
	if !strings.HasPrefix(p.Asset().ContentType, "image/") {
		return invalid("paymentProof", "Payment proof must be an image.")
	}
	return nil
}

// assetRef names a stored image the way the storefront links to it.
func assetRef(id, contentType string) string {
	ext := strings.TrimPrefix(contentType, "image/")
	if ext == "" || ext == contentType {
		ext = "bin"
	}
	return fmt.Sprintf("image-%s-%s", id, ext)
}
