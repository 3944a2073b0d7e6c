// Package upload は画像アップロードの検証、保存、公開を扱います。
package upload

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"star-todo/internal/apperr"
	"star-todo/internal/config"
)

// MaxImageSize はアップロードできる画像の最大バイト数です。
const MaxImageSize = 1_000_000

var (
	ErrInvalidFileType = apperr.New(apperr.KindUpload, "Invalid file type")
	ErrFileTooLarge    = apperr.New(apperr.KindUpload, "File too large")
)

// Uploader は保存済みの画像ファイルを公開し、そのURLを返します。
type Uploader interface {
	Upload(ctx context.Context, path string) (string, error)
}

// Store はアップロードされた画像を検証してディレクトリに保存します。
type Store struct {
	Dir     string
	MaxSize int64
}

// NewStore は dir に保存する Store を作成します。
func NewStore(dir string) *Store {
	return &Store{Dir: dir, MaxSize: MaxImageSize}
}

// Save は画像を検証して保存し、保存先のパスを返します。
// 宣言された Content-Type と実際の内容の両方が image/* である必要があります。
func (s *Store) Save(fh *multipart.FileHeader) (string, error) {
	if !strings.HasPrefix(fh.Header.Get("Content-Type"), "image/") {
		return "", ErrInvalidFileType
	}
	if fh.Size > s.maxSize() {
		return "", ErrFileTooLarge
	}

	src, err := fh.Open()
	if err != nil {
		return "", apperr.Wrap(apperr.KindUpload, "Upload failed", err)
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, s.maxSize()+1))
	if err != nil {
		return "", apperr.Wrap(apperr.KindUpload, "Upload failed", err)
	}
	if int64(len(data)) > s.maxSize() {
		return "", ErrFileTooLarge
	}
	if !strings.HasPrefix(mimetype.Detect(data).String(), "image/") {
		return "", ErrInvalidFileType
	}

	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", apperr.Internal(fmt.Errorf("failed to create images dir: %w", err))
	}
	path := filepath.Join(s.Dir, uuid.NewString()+"-"+filepath.Base(fh.Filename))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", apperr.Internal(fmt.Errorf("failed to write image: %w", err))
	}
	return path, nil
}

func (s *Store) maxSize() int64 {
	if s.MaxSize <= 0 {
		return MaxImageSize
	}
	return s.MaxSize
}

// New は設定に応じた Uploader を返します。CLOUDINARY_URL があれば Cloudinary を使います。
func New(cfg *config.Config) (Uploader, error) {
	if cfg.CloudinaryURL != "" {
		return NewCloudinaryUploader(cfg.CloudinaryURL, cfg.CloudinaryFolder)
	}
	return &LocalUploader{BaseURL: cfg.PublicURL + "/images"}, nil
}
