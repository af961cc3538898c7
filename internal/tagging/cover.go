package tagging

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/cesargomez89/slskdsync/internal/httpclient"
)

// maxCoverBytes caps how much of a cover response is read.
const maxCoverBytes = 10 << 20

// DownloadImage fetches the image at url. An empty url yields no data and no
// error.
func DownloadImage(ctx context.Context, client *httpclient.Client, url string) ([]byte, error) {
	if url == "" {
		return nil, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d (URL: %s)", resp.StatusCode, url)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxCoverBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	return data, nil
}
