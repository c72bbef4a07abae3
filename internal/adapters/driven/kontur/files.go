package kontur

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"go.uber.org/zap"
)

// DownloadCodes fetches the label file of a released order. fileType
// selects the vendor format, e.g. "pdf" or "csv".
func (c *Client) DownloadCodes(ctx context.Context, orderID, fileType string) ([]byte, error) {
	path := fmt.Sprintf("/api/v1/codes-order/%s/file", orderID)
	resp, err := c.send(ctx, http.MethodGet, path, url.Values{"fileType": {fileType}}, nil)
	if err != nil {
		return nil, err
	}
	if c.logger != nil {
		c.logger.Info("codes file downloaded",
			zap.String("order_id", orderID),
			zap.String("file_type", fileType),
			zap.Int("bytes", len(resp.Body)))
	}
	return resp.Body, nil
}
