package domain

import (
	"fmt"
	"time"
)

// Production type, usage and filling method values the portal accepts.
const (
	ProductionTypeOwn = "ownProduction"
	UsageTypeVerified = "verified"

	FillingMethodManual = "manually"
	FillingMethodFile   = "file"
	FillingMethodTSD    = "tsd"
)

// FormatPortalDate renders a date the way the portal wants it: local
// midnight in Moscow time with milliseconds.
func FormatPortalDate(t time.Time) string {
	return t.Format("2006-01-02") + "T00:00:00.000+03:00"
}

// IntroductionProduction is the production-details payload of an
// introduction-into-circulation document. Field names follow the vendor
// schema exactly.
type IntroductionProduction struct {
	DocumentNumber                    string `json:"documentNumber"`
	ProducerINN                       string `json:"producerInn"`
	ProductionDate                    string `json:"productionDate"`
	ProductionType                    string `json:"productionType"`
	WarehouseID                       string `json:"warehouseId"`
	ExpirationType                    string `json:"expirationType"`
	ExpirationDate                    string `json:"expirationDate"`
	ContainsUtilisationReport         bool   `json:"containsUtilisationReport"`
	UsageType                         string `json:"usageType"`
	CisType                           string `json:"cisType"`
	FillingMethod                     string `json:"fillingMethod"`
	BatchNumber                       string `json:"batchNumber"`
	IsAutocompletePositionsDataNeeded bool   `json:"isAutocompletePositionsDataNeeded"`
	ProductsHasSameDates              bool   `json:"productsHasSameDates"`
	ProductGroup                      string `json:"productGroup"`
}

// Validate checks the production details the portal rejects loudest on.
func (p IntroductionProduction) Validate() error {
	if p.DocumentNumber == "" {
		return fmt.Errorf("introduction: documentNumber is required")
	}
	if p.ProductionDate == "" {
		return fmt.Errorf("introduction %s: productionDate is required", p.DocumentNumber)
	}
	switch p.FillingMethod {
	case FillingMethodFile, FillingMethodTSD:
	default:
		return fmt.Errorf("introduction %s: fillingMethod must be %q or %q, got %q",
			p.DocumentNumber, FillingMethodFile, FillingMethodTSD, p.FillingMethod)
	}
	return nil
}

// IntroductionPosition is one row of an introduction document.
type IntroductionPosition struct {
	Name                      string `json:"name"`
	GTIN                      string `json:"gtin"`
	TNVEDCode                 string `json:"tnvedCode"`
	CertificateDocumentNumber string `json:"certificateDocumentNumber"`
	CertificateDocumentDate   string `json:"certificateDocumentDate"`
	CostInKopecksWithVat      int    `json:"costInKopecksWithVat"`
	ExciseInKopecks           int    `json:"exciseInKopecks"`
	ProductGroup              string `json:"productGroup"`
}

// IntroductionRows wraps positions the way the positions endpoint expects.
type IntroductionRows struct {
	Rows []IntroductionPosition `json:"rows"`
}

// Introduction is the vendor's view of an introduction document.
type Introduction struct {
	ID             string `json:"id"`
	DocumentNumber string `json:"documentNumber,omitempty"`
	Status         Status `json:"status"`
}
