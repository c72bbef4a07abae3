package konturapi

import (
	"github.com/kirillbelykh/kontur-api/internal/core/domain"
)

// Re-export document types from domain package
type Status = domain.Status
type Position = domain.Position
type Order = domain.Order
type OrderDraft = domain.OrderDraft
type Product = domain.Product
type HistoryEntry = domain.HistoryEntry
type Introduction = domain.Introduction
type IntroductionProduction = domain.IntroductionProduction
type IntroductionPosition = domain.IntroductionPosition
type AuthChallenge = domain.AuthChallenge
type RegisteredCertificate = domain.RegisteredCertificate

// Re-export status constants
const (
	StatusCreated    = domain.StatusCreated
	StatusAvailable  = domain.StatusAvailable
	StatusProcessing = domain.StatusProcessing
	StatusReleased   = domain.StatusReleased
	StatusError      = domain.StatusError
)

// Re-export filling methods and production constants
const (
	FillingMethodManual = domain.FillingMethodManual
	FillingMethodFile   = domain.FillingMethodFile
	FillingMethodTSD    = domain.FillingMethodTSD
	ProductionTypeOwn   = domain.ProductionTypeOwn
	UsageTypeVerified   = domain.UsageTypeVerified
)

// FormatPortalDate renders a date the way the portal wants it.
var FormatPortalDate = domain.FormatPortalDate
