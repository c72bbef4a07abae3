package kontur

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/kirillbelykh/kontur-api/internal/core/domain"
)

// CreateOrder creates a fully filled codes order in one request.
func (c *Client) CreateOrder(ctx context.Context, draft domain.OrderDraft) (string, error) {
	if err := draft.Validate(); err != nil {
		return "", domain.SubmissionError("invalid order draft", err)
	}

	resp, err := c.send(ctx, http.MethodPost, "/api/v1/codes-order", c.warehouseQuery(), draft)
	if err != nil {
		return "", err
	}
	id, err := extractID(resp)
	if err != nil {
		return "", err
	}
	if c.logger != nil {
		c.logger.Info("codes order created",
			zap.String("order_id", id),
			zap.String("document_number", draft.DocumentNumber),
			zap.Int("positions", len(draft.Positions)))
	}
	return id, nil
}

// CreateOrderStub creates an empty order for the multistep flow.
func (c *Client) CreateOrderStub(ctx context.Context, stub domain.OrderStub) (string, error) {
	resp, err := c.send(ctx, http.MethodPost, "/api/v1/codes-order", c.warehouseQuery(), stub)
	if err != nil {
		return "", err
	}
	return extractID(resp)
}

// UpdateOrder fills in the header fields of a multistep order.
func (c *Client) UpdateOrder(ctx context.Context, orderID string, update domain.OrderUpdate) error {
	path := fmt.Sprintf("/api/v1/codes-order/%s", orderID)
	return c.call(ctx, http.MethodPut, path, nil, update, nil)
}

// AddPosition adds a position to a multistep order and returns its id.
func (c *Client) AddPosition(ctx context.Context, orderID string, draft domain.PositionDraft) (string, error) {
	path := fmt.Sprintf("/api/v1/codes-order/%s/positions/position", orderID)
	resp, err := c.send(ctx, http.MethodPost, path, nil, draft)
	if err != nil {
		return "", err
	}
	id := idFromJSON(resp.Body)
	if id == "" {
		return "", domain.VendorError(fmt.Sprintf("cannot determine position id for order %s", orderID), nil)
	}
	return id, nil
}

// UpdatePosition fills in a position added by AddPosition.
func (c *Client) UpdatePosition(ctx context.Context, orderID, positionID string, patch domain.PositionPatch) error {
	path := fmt.Sprintf("/api/v1/codes-order/%s/positions/%s", orderID, positionID)
	return c.call(ctx, http.MethodPatch, path, nil, patch, nil)
}

// GetOrder fetches an order including its current status.
func (c *Client) GetOrder(ctx context.Context, orderID string) (domain.Order, error) {
	var order domain.Order
	path := fmt.Sprintf("/api/v1/codes-order/%s", orderID)
	if err := c.call(ctx, http.MethodGet, path, nil, nil, &order); err != nil {
		return domain.Order{}, err
	}
	if order.ID == "" {
		order.ID = orderID
	}
	return order, nil
}

// DocumentsToSign lists the payloads the portal wants signed for an
// order.
func (c *Client) DocumentsToSign(ctx context.Context, orderID string) ([]domain.Signable, error) {
	var signables []domain.Signable
	path := fmt.Sprintf("/api/v1/codes-order/%s/documents-to-sign", orderID)
	if err := c.call(ctx, http.MethodGet, path, nil, nil, &signables); err != nil {
		return nil, err
	}
	return signables, nil
}

// SubmitSignatures sends produced signatures back to the portal.
func (c *Client) SubmitSignatures(ctx context.Context, orderID string, items []domain.SignedItem) error {
	path := fmt.Sprintf("/api/v1/codes-order/%s/documents-to-sign", orderID)
	if err := c.call(ctx, http.MethodPost, path, nil, items, nil); err != nil {
		return err
	}
	if c.logger != nil {
		c.logger.Info("signatures submitted",
			zap.String("order_id", orderID),
			zap.Int("count", len(items)))
	}
	return nil
}
