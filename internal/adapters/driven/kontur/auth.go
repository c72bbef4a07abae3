package kontur

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/kirillbelykh/kontur-api/internal/core/domain"
)

// AuthChallenges lists the pending CRPT authentication challenges for
// the organization.
func (c *Client) AuthChallenges(ctx context.Context) ([]domain.AuthChallenge, error) {
	var challenges []domain.AuthChallenge
	if err := c.call(ctx, http.MethodGet, "/api/v1/crpt/auth", c.organizationQuery(), nil, &challenges); err != nil {
		return nil, err
	}
	return challenges, nil
}

// SubmitAuthAnswers returns signed challenges to the portal, refreshing
// its CRPT tokens.
func (c *Client) SubmitAuthAnswers(ctx context.Context, answers []domain.AuthAnswer) error {
	if err := c.call(ctx, http.MethodPost, "/api/v1/crpt/auth", c.organizationQuery(), answers, nil); err != nil {
		return err
	}
	if c.logger != nil {
		groups := make([]string, 0, len(answers))
		for _, a := range answers {
			groups = append(groups, a.ProductGroup)
		}
		c.logger.Info("auth challenges answered", zap.Strings("product_groups", groups))
	}
	return nil
}

// RegisteredCertificates lists the certificates the portal knows for the
// organization.
func (c *Client) RegisteredCertificates(ctx context.Context) ([]domain.RegisteredCertificate, error) {
	var certs []domain.RegisteredCertificate
	if err := c.call(ctx, http.MethodGet, "/api/v1/certificates", c.organizationQuery(), nil, &certs); err != nil {
		return nil, err
	}
	return certs, nil
}
