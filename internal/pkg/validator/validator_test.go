package validator

import "testing"

func init() {
	RegisterOneOf("season", []string{"spring", "summer", "autumn", "winter"}, "Must be a season")
}

type sample struct {
	Slug   string  `json:"slug" validate:"required,slug"`
	Season string  `json:"season" validate:"omitempty,season"`
	Value  float64 `json:"value" validate:"gte=0,lte=3"`
}

func TestValidateAcceptsGoodInput(t *testing.T) {
	errs := Validate(&sample{Slug: "main-building", Season: "autumn", Value: 1.5})
	if errs != nil {
		t.Fatalf("unexpected errors: %#v", errs)
	}
}

func TestValidateReportsJSONFieldNames(t *testing.T) {
	tests := []struct {
		name  string
		in    sample
		field string
	}{
		{"bad slug", sample{Slug: "Main Building"}, "slug"},
		{"double dash", sample{Slug: "main--building"}, "slug"},
		{"missing slug", sample{}, "slug"},
		{"bad season", sample{Slug: "garden", Season: "monsoon"}, "season"},
		{"value too high", sample{Slug: "garden", Value: 9}, "value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := Validate(&tt.in)
			if _, ok := errs[tt.field]; !ok {
				t.Fatalf("expected error on %q, got %#v", tt.field, errs)
			}
		})
	}
}

func TestRegisterOneOfMessage(t *testing.T) {
	errs := Validate(&sample{Slug: "garden", Season: "monsoon"})
	if errs["season"] != "Must be a season" {
		t.Fatalf("season error = %q", errs["season"])
	}
	if err := ValidateVar("winter", "season"); err != nil {
		t.Fatalf("ValidateVar season: %v", err)
	}
}

func TestValidateVar(t *testing.T) {
	if err := ValidateVar("https://example.com/model/garden", "required,url"); err != nil {
		t.Fatalf("ValidateVar url: %v", err)
	}
	if err := ValidateVar("not a url", "url"); err == nil {
		t.Fatal("expected url error")
	}
}
