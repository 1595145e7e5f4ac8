package media

import "context"

// Store accepts a file saved on local disk and returns a durable public
// URL, or fails. Remove is best-effort cleanup of a previously uploaded
// object, addressed by the URL Upload returned.
type Store interface {
	Upload(ctx context.Context, localPath string) (string, error)
	Remove(ctx context.Context, url string) error
}
