package ports

import (
	"context"

	"github.com/kirillbelykh/kontur-api/internal/core/domain"
)

// OrderAPI is the port interface for the vendor's codes-order endpoints.
// The adapter owns organization and warehouse scoping; callers pass only
// document data.
type OrderAPI interface {
	// CreateOrder creates a fully filled order in one request and returns
	// the new order id.
	CreateOrder(ctx context.Context, draft domain.OrderDraft) (string, error)

	// CreateOrderStub creates an empty order for the multistep flow.
	CreateOrderStub(ctx context.Context, stub domain.OrderStub) (string, error)

	// UpdateOrder fills in order header fields of a multistep order.
	UpdateOrder(ctx context.Context, orderID string, update domain.OrderUpdate) error

	// AddPosition adds an empty position and returns its id.
	AddPosition(ctx context.Context, orderID string, draft domain.PositionDraft) (string, error)

	// UpdatePosition fills in a position added by AddPosition.
	UpdatePosition(ctx context.Context, orderID, positionID string, patch domain.PositionPatch) error

	// GetOrder fetches the order including its current status.
	GetOrder(ctx context.Context, orderID string) (domain.Order, error)

	// DocumentsToSign lists the payloads the vendor wants signed for the order.
	DocumentsToSign(ctx context.Context, orderID string) ([]domain.Signable, error)

	// SubmitSignatures sends the produced signatures back.
	SubmitSignatures(ctx context.Context, orderID string, items []domain.SignedItem) error
}

// CirculationAPI is the port interface for introduction-into-circulation
// documents.
type CirculationAPI interface {
	// CreateIntroduction creates an empty introduction document and returns
	// its id.
	CreateIntroduction(ctx context.Context) (string, error)

	// SetProduction fills in the production details of the document.
	SetProduction(ctx context.Context, docID string, production domain.IntroductionProduction) error

	// AddIntroductionRows adds product rows to the document.
	AddIntroductionRows(ctx context.Context, docID string, rows domain.IntroductionRows) error

	// Send submits the document for processing (file-based flow).
	Send(ctx context.Context, docID string) error

	// SendToTSD hands the document over to a warehouse terminal.
	SendToTSD(ctx context.Context, docID string) error

	// GetIntroduction fetches the document including its current status.
	GetIntroduction(ctx context.Context, docID string) (domain.Introduction, error)
}

// AuthAPI is the port interface for the vendor's CRPT authentication
// endpoints.
type AuthAPI interface {
	// AuthChallenges lists the pending authentication challenges.
	AuthChallenges(ctx context.Context) ([]domain.AuthChallenge, error)

	// SubmitAuthAnswers returns signed challenges to the vendor.
	SubmitAuthAnswers(ctx context.Context, answers []domain.AuthAnswer) error

	// RegisteredCertificates lists certificates the vendor knows for the
	// organization.
	RegisteredCertificates(ctx context.Context) ([]domain.RegisteredCertificate, error)
}

// CodesFileAPI is the port interface for downloading released codes.
type CodesFileAPI interface {
	// DownloadCodes fetches the label file of a released order.
	// fileType selects the vendor format, e.g. "pdf" or "csv".
	DownloadCodes(ctx context.Context, orderID, fileType string) ([]byte, error)
}
