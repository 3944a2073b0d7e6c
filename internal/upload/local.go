package upload

import (
	"context"
	"net/url"
	"path/filepath"
)

// LocalUploader は /images で配信されているファイルのURLを返します。
type LocalUploader struct {
	BaseURL string
}

func (u *LocalUploader) Upload(_ context.Context, path string) (string, error) {
	return u.BaseURL + "/" + url.PathEscape(filepath.Base(path)), nil
}
