package store

import (
	"context"
	"errors"
	"testing"

	"github.com/erazemk/izposoja/internal/db"
	"github.com/erazemk/izposoja/internal/model"
)

func TestCreateAndGetItem(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	item, err := CreateItem(ctx, database, "Sony A7", "camera", "sony.com", "body only")
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	if item.Name != "Sony A7" {
		t.Errorf("expected name 'Sony A7', got %q", item.Name)
	}
	if item.Status != model.ItemStatusAvailable {
		t.Errorf("expected status 'available', got %q", item.Status)
	}
	if !item.Available() {
		t.Error("expected new item to be available")
	}

	got, err := GetItem(ctx, database, item.ID)
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if got == nil || got.ID != item.ID {
		t.Fatalf("expected to get back item %s", item.ID)
	}
}

func TestCreateItemRequiresName(t *testing.T) {
	database := db.NewTestDB(t)

	_, err := CreateItem(context.Background(), database, "", "camera", "", "")
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestNormalizeManufacturerURL(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"", ""},
		{"sony.com", "https://www.sony.com"},
		{"https://www.sony.com", "https://www.sony.com"},
		{"www.sony.com", "https://www.www.sony.com"},
	}

	for _, tt := range tests {
		if got := NormalizeManufacturerURL(tt.in); got != tt.expected {
			t.Errorf("NormalizeManufacturerURL(%q) = %q, want %q", tt.in, got, tt.expected)
		}
	}
}

func TestGetItemNotFound(t *testing.T) {
	database := db.NewTestDB(t)

	item, err := GetItem(context.Background(), database, "no-such-item")
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if item != nil {
		t.Error("expected nil for unknown item")
	}
}

func TestListItemsFilters(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	CreateItem(ctx, database, "Sony A7", "camera", "", "")
	CreateItem(ctx, database, "Canon R5", "camera", "", "")
	CreateItem(ctx, database, "Manfrotto Tripod", "support", "", "")

	all, err := ListItems(ctx, database, "", "", "")
	if err != nil {
		t.Fatalf("ListItems: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 items, got %d", len(all))
	}

	cameras, _ := ListItems(ctx, database, "", "camera", "")
	if len(cameras) != 2 {
		t.Errorf("expected 2 cameras, got %d", len(cameras))
	}

	sony, _ := ListItems(ctx, database, "", "", "sony")
	if len(sony) != 1 || sony[0].Name != "Sony A7" {
		t.Errorf("expected search to match Sony A7, got %v", sony)
	}

	available, _ := ListItems(ctx, database, model.ItemStatusAvailable, "", "")
	if len(available) != 3 {
		t.Errorf("expected 3 available items, got %d", len(available))
	}
}

func TestUpdateItem(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	item, _ := CreateItem(ctx, database, "Sony A7", "camera", "", "")
	if err := UpdateItem(ctx, database, item.ID, "Sony A7 II", "camera", "sony.com", "updated body"); err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}

	got, _ := GetItem(ctx, database, item.ID)
	if got.Name != "Sony A7 II" {
		t.Errorf("expected updated name, got %q", got.Name)
	}
	if got.ManufacturerURL != "https://www.sony.com" {
		t.Errorf("expected normalized URL, got %q", got.ManufacturerURL)
	}

	if err := UpdateItem(ctx, database, "no-such-item", "x", "", "", ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown item, got %v", err)
	}
}
