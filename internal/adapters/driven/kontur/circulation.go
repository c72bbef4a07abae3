package kontur

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/kirillbelykh/kontur-api/internal/core/domain"
)

// CreateIntroduction creates an empty introduction-into-circulation
// document. The portal returns the new id as a bare quoted string.
func (c *Client) CreateIntroduction(ctx context.Context) (string, error) {
	resp, err := c.send(ctx, http.MethodPost, "/api/v1/codes-introduction", c.warehouseQuery(), struct{}{})
	if err != nil {
		return "", err
	}
	id, err := extractID(resp)
	if err != nil {
		return "", err
	}
	if c.logger != nil {
		c.logger.Info("introduction document created", zap.String("doc_id", id))
	}
	return id, nil
}

// SetProduction fills in the production details of an introduction
// document.
func (c *Client) SetProduction(ctx context.Context, docID string, production domain.IntroductionProduction) error {
	if err := production.Validate(); err != nil {
		return domain.SubmissionError("invalid production details", err)
	}
	path := fmt.Sprintf("/api/v1/codes-introduction/%s/production", docID)
	return c.call(ctx, http.MethodPatch, path, nil, production, nil)
}

// AddIntroductionRows adds product rows to an introduction document.
func (c *Client) AddIntroductionRows(ctx context.Context, docID string, rows domain.IntroductionRows) error {
	path := fmt.Sprintf("/api/v1/codes-introduction/%s/positions", docID)
	return c.call(ctx, http.MethodPost, path, nil, rows, nil)
}

// Send submits a file-based introduction document for processing.
func (c *Client) Send(ctx context.Context, docID string) error {
	path := fmt.Sprintf("/api/v1/codes-introduction/%s/send", docID)
	return c.call(ctx, http.MethodPost, path, nil, nil, nil)
}

// SendToTSD hands an introduction document over to a warehouse data
// terminal for scanning.
func (c *Client) SendToTSD(ctx context.Context, docID string) error {
	path := fmt.Sprintf("/api/v1/codes-introduction/%s/send-to-tsd", docID)
	if err := c.call(ctx, http.MethodPost, path, nil, nil, nil); err != nil {
		return err
	}
	if c.logger != nil {
		c.logger.Info("introduction sent to terminal", zap.String("doc_id", docID))
	}
	return nil
}

// GetIntroduction fetches an introduction document including its status.
func (c *Client) GetIntroduction(ctx context.Context, docID string) (domain.Introduction, error) {
	var doc domain.Introduction
	path := fmt.Sprintf("/api/v1/codes-introduction/%s", docID)
	if err := c.call(ctx, http.MethodGet, path, nil, nil, &doc); err != nil {
		return domain.Introduction{}, err
	}
	if doc.ID == "" {
		doc.ID = docID
	}
	return doc, nil
}
