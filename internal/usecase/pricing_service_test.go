package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/pharmavoz/backend/internal/domain"
)

type pricingFixture struct {
	catalogs *MockCatalogRepository
	rates    *MockRateRepository
	cache    *MockCacheRepository
	svc      *PricingService
}

func newPricingFixture(vision domain.VisionClient, config PricingServiceConfig) *pricingFixture {
	f := &pricingFixture{
		catalogs: NewMockCatalogRepository(),
		rates:    NewMockRateRepository(),
		cache:    NewMockCacheRepository(),
	}
	if config.Rand == nil {
		config.Rand = firstPick{}
	}
	loader := NewSnapshotLoader(f.catalogs, f.cache, 0, nil)
	rates := NewRateService(f.rates, f.cache, RateServiceConfig{})
	f.svc = NewPricingService(loader, rates, vision, config)
	return f
}

func TestNewPricingService(t *testing.T) {
	t.Run("uses default thresholds", func(t *testing.T) {
		f := newPricingFixture(nil, PricingServiceConfig{})
		if f.svc.conversationalThreshold != 45 || f.svc.inventoryThreshold != 60 {
			t.Errorf("thresholds = %v/%v, want 45/60", f.svc.conversationalThreshold, f.svc.inventoryThreshold)
		}
	})

	t.Run("keeps custom thresholds", func(t *testing.T) {
		f := newPricingFixture(nil, PricingServiceConfig{ConversationalThreshold: 50, InventoryThreshold: 80})
		if f.svc.conversationalThreshold != 50 || f.svc.inventoryThreshold != 80 {
			t.Errorf("thresholds = %v/%v, want 50/80", f.svc.conversationalThreshold, f.svc.inventoryThreshold)
		}
	})
}

func TestPricingService_QuotePrice(t *testing.T) {
	ctx := context.Background()

	t.Run("answers a spoken question", func(t *testing.T) {
		f := newPricingFixture(nil, PricingServiceConfig{})
		f.catalogs.rows["farmacia-1"] = []domain.RawRow{
			{Name: "Ibuprofeno 400mg", PriceRaw: "2.10", StockRaw: "5"},
			{Name: "Paracetamol 500mg", PriceRaw: "1.50", StockRaw: "12"},
		}
		f.rates.rates["farmacia-1"] = 40

		result, err := f.svc.QuotePrice(ctx, "farmacia-1", "¿Cuánto cuesta el paracetamol?", false)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if result.NormalizedQuery != "paracetamol" {
			t.Errorf("NormalizedQuery = %q, want paracetamol", result.NormalizedQuery)
		}
		if !result.Match.Matched || result.Match.Entry.DisplayName != "Paracetamol 500mg" {
			t.Fatalf("Match = %+v, want Paracetamol 500mg", result.Match)
		}
		if result.Rate == nil || *result.Rate != 40 {
			t.Errorf("Rate = %v, want 40", result.Rate)
		}
		if result.Quote.DisplayPriceLocal != "60,00" {
			t.Errorf("DisplayPriceLocal = %q, want 60,00", result.Quote.DisplayPriceLocal)
		}
		want := "¡Claro! Tenemos Paracetamol 500mg. Su precio es de 60 con 00 bolívares."
		if result.Quote.SpeechText != want {
			t.Errorf("SpeechText = %q, want %q", result.Quote.SpeechText, want)
		}
		if result.NotFoundText != "" {
			t.Errorf("NotFoundText = %q, want empty on a hit", result.NotFoundText)
		}
	})

	t.Run("verbose mentions stock", func(t *testing.T) {
		f := newPricingFixture(nil, PricingServiceConfig{})
		f.catalogs.rows["t"] = []domain.RawRow{{Name: "Paracetamol 500mg", PriceRaw: "1.50", StockRaw: "12"}}
		f.rates.rates["t"] = 40

		result, err := f.svc.QuotePrice(ctx, "t", "paracetamol", true)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(result.Quote.SpeechText, "12 unidades") {
			t.Errorf("SpeechText = %q, want stock", result.Quote.SpeechText)
		}
	})

	t.Run("miss renders not found without reading the rate", func(t *testing.T) {
		f := newPricingFixture(nil, PricingServiceConfig{})
		f.catalogs.rows["t"] = []domain.RawRow{{Name: "Paracetamol 500mg", PriceRaw: "1.50"}}

		result, err := f.svc.QuotePrice(ctx, "t", "¿Tienen naproxeno?", false)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Match.Matched || result.Quote != nil || result.Rate != nil {
			t.Errorf("result = %+v, want a miss", result)
		}
		if result.NotFoundText != "No encontré naproxeno en el inventario." {
			t.Errorf("NotFoundText = %q", result.NotFoundText)
		}
		if f.rates.getCalled {
			t.Error("rate should not be read on a miss")
		}
	})

	t.Run("empty catalog is a miss", func(t *testing.T) {
		f := newPricingFixture(nil, PricingServiceConfig{})
		result, err := f.svc.QuotePrice(ctx, "t", "paracetamol", false)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Match.Matched {
			t.Error("expected a miss")
		}
	})

	t.Run("hit without rate fails", func(t *testing.T) {
		f := newPricingFixture(nil, PricingServiceConfig{})
		f.catalogs.rows["t"] = []domain.RawRow{{Name: "Paracetamol 500mg", PriceRaw: "1.50"}}

		if _, err := f.svc.QuotePrice(ctx, "t", "paracetamol", false); !errors.Is(err, domain.ErrRateNotSet) {
			t.Errorf("error = %v, want ErrRateNotSet", err)
		}
	})

	t.Run("rejects blank input", func(t *testing.T) {
		f := newPricingFixture(nil, PricingServiceConfig{})
		if _, err := f.svc.QuotePrice(ctx, "t", "   ", false); !errors.Is(err, domain.ErrInvalidRequest) {
			t.Errorf("error = %v, want ErrInvalidRequest", err)
		}
		if _, err := f.svc.QuotePrice(ctx, "", "paracetamol", false); !errors.Is(err, domain.ErrInvalidRequest) {
			t.Errorf("error = %v, want ErrInvalidRequest", err)
		}
	})

	t.Run("store failure surfaces", func(t *testing.T) {
		f := newPricingFixture(nil, PricingServiceConfig{})
		f.catalogs.loadError = errors.New("boom")
		if _, err := f.svc.QuotePrice(ctx, "t", "paracetamol", false); !errors.Is(err, domain.ErrStoreFailure) {
			t.Errorf("error = %v, want ErrStoreFailure", err)
		}
	})
}

func TestPricingService_QuoteInventory(t *testing.T) {
	ctx := context.Background()
	f := newPricingFixture(nil, PricingServiceConfig{})
	f.catalogs.rows["t"] = []domain.RawRow{{Name: "Omega 3", PriceRaw: "5"}}
	f.rates.rates["t"] = 10

	conversational, err := f.svc.QuotePrice(ctx, "t", "omeprazol", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !conversational.Match.Matched {
		t.Error("conversational lookup should accept a 57 score")
	}

	inventory, err := f.svc.QuoteInventory(ctx, "t", "omeprazol", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inventory.Match.Matched {
		t.Error("inventory lookup should reject a 57 score")
	}
}

func TestPricingService_QuotePrescription(t *testing.T) {
	ctx := context.Background()
	image := []byte{0xff, 0xd8, 0xff}

	t.Run("looks up the name read from the image", func(t *testing.T) {
		vision := &MockVisionClient{name: "Amoxicilina"}
		f := newPricingFixture(vision, PricingServiceConfig{})
		f.catalogs.rows["t"] = []domain.RawRow{{Name: "Amoxicilina 500mg", PriceRaw: "3.00"}}
		f.rates.rates["t"] = 40

		result, err := f.svc.QuotePrescription(ctx, "t", image, "image/jpeg", false)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Query != "Amoxicilina" || !result.Match.Matched {
			t.Errorf("result = %+v, want a hit for Amoxicilina", result)
		}
		if result.Quote.DisplayPriceLocal != "120,00" {
			t.Errorf("DisplayPriceLocal = %q, want 120,00", result.Quote.DisplayPriceLocal)
		}
		if vision.lastMime != "image/jpeg" || len(vision.lastImage) != 3 {
			t.Errorf("vision received %q/%d bytes", vision.lastMime, len(vision.lastImage))
		}
	})

	t.Run("unconfigured vision", func(t *testing.T) {
		f := newPricingFixture(nil, PricingServiceConfig{})
		if _, err := f.svc.QuotePrescription(ctx, "t", image, "image/jpeg", false); !errors.Is(err, domain.ErrVisionUnavailable) {
			t.Errorf("error = %v, want ErrVisionUnavailable", err)
		}
	})

	t.Run("empty image", func(t *testing.T) {
		f := newPricingFixture(&MockVisionClient{name: "x"}, PricingServiceConfig{})
		if _, err := f.svc.QuotePrescription(ctx, "t", nil, "image/jpeg", false); !errors.Is(err, domain.ErrInvalidRequest) {
			t.Errorf("error = %v, want ErrInvalidRequest", err)
		}
	})

	t.Run("no name in image", func(t *testing.T) {
		f := newPricingFixture(&MockVisionClient{name: "  "}, PricingServiceConfig{})
		if _, err := f.svc.QuotePrescription(ctx, "t", image, "image/png", false); !errors.Is(err, domain.ErrVisionNoResult) {
			t.Errorf("error = %v, want ErrVisionNoResult", err)
		}
	})

	t.Run("vision failure surfaces", func(t *testing.T) {
		f := newPricingFixture(&MockVisionClient{err: domain.ErrVisionFailure}, PricingServiceConfig{})
		if _, err := f.svc.QuotePrescription(ctx, "t", image, "image/png", false); !errors.Is(err, domain.ErrVisionFailure) {
			t.Errorf("error = %v, want ErrVisionFailure", err)
		}
	})
}
