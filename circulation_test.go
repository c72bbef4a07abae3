//go:build unit

package konturapi

import (
	"context"
	"errors"
	"testing"

	"github.com/kirillbelykh/kontur-api/internal/core/domain"
)

func testCirculationConfig() CirculationServiceConfig {
	return CirculationServiceConfig{
		WarehouseID:  "wh-1",
		ProductGroup: "milk",
		CisType:      "unit",
	}
}

func TestCirculationService_Run_FileFlow(t *testing.T) {
	portal := newFakePortal()
	history := NewInMemoryHistory()
	svc := NewCirculationService(portal, history, testCirculationConfig())

	result, err := svc.Run(context.Background(), IntroductionRequest{
		Production: domain.IntroductionProduction{
			DocumentNumber: "INTRO-1",
			ProducerINN:    "7707083893",
			ProductionDate: "2026-08-20T00:00:00.000+03:00",
			ExpirationType: "milkMoreThan72",
			FillingMethod:  domain.FillingMethodFile,
		},
		Rows: []domain.IntroductionPosition{
			{Name: "Молоко 3.2%", GTIN: "04607004890291", TNVEDCode: "0401201000"},
		},
	})
	if err != nil {
		t.Fatalf("Run() error = %v, want nil", err)
	}
	if result.DocumentID != "intro-1" {
		t.Errorf("DocumentID = %q, want %q", result.DocumentID, "intro-1")
	}
	if result.SentToTSD {
		t.Error("SentToTSD = true, want false for the file flow")
	}

	want := []string{"CreateIntroduction", "SetProduction", "AddIntroductionRows", "Send"}
	calls := portal.callNames()
	if len(calls) != len(want) {
		t.Fatalf("portal saw calls %v, want %v", calls, want)
	}
	for i, name := range want {
		if calls[i] != name {
			t.Errorf("call %d = %q, want %q", i, calls[i], name)
		}
	}
	if portal.called("SendToTSD") {
		t.Error("SendToTSD called in the file flow")
	}

	entries, _ := history.List(context.Background())
	if len(entries) != 1 {
		t.Fatalf("history has %d entries, want 1", len(entries))
	}
	if entries[0].Kind != domain.HistoryKindIntroduction {
		t.Errorf("history kind = %q, want %q", entries[0].Kind, domain.HistoryKindIntroduction)
	}
}

func TestCirculationService_Run_TSDFlowFlagsSourceOrder(t *testing.T) {
	portal := newFakePortal()
	history := NewInMemoryHistory()
	err := history.Append(context.Background(), domain.HistoryEntry{
		OrderID:        "ord-9",
		DocumentNumber: "ORD-9",
		Kind:           domain.HistoryKindOrder,
		Status:         domain.StatusReleased,
	})
	if err != nil {
		t.Fatalf("Append() error = %v, want nil", err)
	}

	svc := NewCirculationService(portal, history, testCirculationConfig())
	result, err := svc.Run(context.Background(), IntroductionRequest{
		Production: domain.IntroductionProduction{
			DocumentNumber: "INTRO-2",
			ProductionDate: "2026-08-20T00:00:00.000+03:00",
			FillingMethod:  domain.FillingMethodTSD,
		},
		SourceOrderID: "ord-9",
	})
	if err != nil {
		t.Fatalf("Run() error = %v, want nil", err)
	}
	if !result.SentToTSD {
		t.Error("SentToTSD = false, want true")
	}
	if portal.called("Send") {
		t.Error("file-flow Send called in the TSD flow")
	}
	if portal.called("AddIntroductionRows") {
		t.Error("AddIntroductionRows called without rows")
	}

	entries, _ := history.List(context.Background())
	if len(entries) != 2 {
		t.Fatalf("history has %d entries, want 2", len(entries))
	}
	var source *domain.HistoryEntry
	for i := range entries {
		if entries[i].OrderID == "ord-9" {
			source = &entries[i]
		}
	}
	if source == nil {
		t.Fatal("source order missing from history")
	}
	if !source.TSDCreated {
		t.Error("source order not flagged tsd_created")
	}
}

func TestCirculationService_Run_FillsDefaultsFromConfig(t *testing.T) {
	portal := newFakePortal()
	svc := NewCirculationService(portal, NewInMemoryHistory(), testCirculationConfig())

	_, err := svc.Run(context.Background(), IntroductionRequest{
		Production: domain.IntroductionProduction{
			DocumentNumber: "INTRO-3",
			ProductionDate: "2026-08-20T00:00:00.000+03:00",
			FillingMethod:  domain.FillingMethodFile,
		},
	})
	if err != nil {
		t.Fatalf("Run() error = %v, want nil", err)
	}

	p := portal.production
	if p.WarehouseID != "wh-1" {
		t.Errorf("warehouseId = %q, want %q", p.WarehouseID, "wh-1")
	}
	if p.ProductGroup != "milk" {
		t.Errorf("productGroup = %q, want %q", p.ProductGroup, "milk")
	}
	if p.CisType != "unit" {
		t.Errorf("cisType = %q, want %q", p.CisType, "unit")
	}
	if p.ProductionType != domain.ProductionTypeOwn {
		t.Errorf("productionType = %q, want %q", p.ProductionType, domain.ProductionTypeOwn)
	}
	if p.UsageType != domain.UsageTypeVerified {
		t.Errorf("usageType = %q, want %q", p.UsageType, domain.UsageTypeVerified)
	}
}

func TestCirculationService_Run_ExplicitFieldsWin(t *testing.T) {
	portal := newFakePortal()
	svc := NewCirculationService(portal, NewInMemoryHistory(), testCirculationConfig())

	_, err := svc.Run(context.Background(), IntroductionRequest{
		Production: domain.IntroductionProduction{
			DocumentNumber: "INTRO-4",
			ProductionDate: "2026-08-20T00:00:00.000+03:00",
			FillingMethod:  domain.FillingMethodFile,
			WarehouseID:    "wh-2",
			ProductionType: "contractProduction",
		},
	})
	if err != nil {
		t.Fatalf("Run() error = %v, want nil", err)
	}
	if portal.production.WarehouseID != "wh-2" {
		t.Errorf("warehouseId = %q, want %q", portal.production.WarehouseID, "wh-2")
	}
	if portal.production.ProductionType != "contractProduction" {
		t.Errorf("productionType = %q, want %q", portal.production.ProductionType, "contractProduction")
	}
}

func TestCirculationService_Run_InvalidProduction(t *testing.T) {
	portal := newFakePortal()
	svc := NewCirculationService(portal, NewInMemoryHistory(), testCirculationConfig())

	// manual filling is an order option, not an introduction option
	_, err := svc.Run(context.Background(), IntroductionRequest{
		Production: domain.IntroductionProduction{
			DocumentNumber: "INTRO-5",
			ProductionDate: "2026-08-20T00:00:00.000+03:00",
			FillingMethod:  domain.FillingMethodManual,
		},
	})

	var appErr *domain.AppError
	if !errors.As(err, &appErr) || appErr.Code != domain.ErrCodeSubmission {
		t.Fatalf("Run() error = %v, want submission_error", err)
	}
	if portal.called("CreateIntroduction") {
		t.Error("CreateIntroduction called for invalid production details")
	}
}

func TestCirculationService_Run_SendFailureAborts(t *testing.T) {
	portal := newFakePortal()
	portal.sendErr = domain.VendorError("portal returned 500", nil)
	history := NewInMemoryHistory()
	svc := NewCirculationService(portal, history, testCirculationConfig())

	_, err := svc.Run(context.Background(), IntroductionRequest{
		Production: domain.IntroductionProduction{
			DocumentNumber: "INTRO-6",
			ProductionDate: "2026-08-20T00:00:00.000+03:00",
			FillingMethod:  domain.FillingMethodFile,
		},
	})

	var appErr *domain.AppError
	if !errors.As(err, &appErr) || appErr.Code != domain.ErrCodeVendor {
		t.Fatalf("Run() error = %v, want vendor_error", err)
	}

	entries, _ := history.List(context.Background())
	if len(entries) != 0 {
		t.Errorf("history has %d entries, want 0 for an unsent document", len(entries))
	}
}
