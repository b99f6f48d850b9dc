package service

import (
	"context"
	"testing"

	"gorm.io/datatypes"

	"matka/internal/models"
)

func TestEnsureDefaultSwitches_KeepsOperatorValues(t *testing.T) {
	repo := newStubRepo()
	repo.settings[FeatureBetting] = &models.SystemSetting{Key: FeatureBetting, Value: datatypes.JSON(`false`)}
	svc := &SystemSettingsService{Repo: repo}
	ctx := context.Background()

	if err := svc.EnsureDefaultSwitches(ctx); err != nil {
		t.Fatalf("err=%v", err)
	}
	if len(repo.settings) != len(DefaultFeatureSwitches()) {
		t.Fatalf("settings=%d want=%d", len(repo.settings), len(DefaultFeatureSwitches()))
	}
	if svc.IsEnabled(ctx, FeatureBetting, true) {
		t.Fatalf("betting switch was overwritten")
	}
	if !svc.IsEnabled(ctx, FeatureSignup, false) {
		t.Fatalf("signup switch not seeded")
	}
}

func TestIsEnabled_Fallbacks(t *testing.T) {
	repo := newStubRepo()
	repo.settings["feature.broken"] = &models.SystemSetting{Key: "feature.broken", Value: datatypes.JSON(`"yes"`)}
	svc := &SystemSettingsService{Repo: repo}
	ctx := context.Background()

	if !svc.IsEnabled(ctx, "feature.missing", true) {
		t.Fatalf("missing key should use fallback")
	}
	if svc.IsEnabled(ctx, "feature.broken", false) {
		t.Fatalf("undecodable value should use fallback")
	}
	var nilSvc *SystemSettingsService
	if !nilSvc.IsEnabled(ctx, FeatureBetting, true) {
		t.Fatalf("nil service should use fallback")
	}

	if err := svc.SetEnabled(ctx, FeatureSignup, false); err != nil {
		t.Fatalf("set err=%v", err)
	}
	if svc.IsEnabled(ctx, FeatureSignup, true) {
		t.Fatalf("signup still enabled")
	}
}
