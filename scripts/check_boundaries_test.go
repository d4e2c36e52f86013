package main

import "testing"

const testServicePath = "jokemoderation/contexts/moderation/moderate-jokes-service"

func TestApplicationImportRules(t *testing.T) {
	allowed := []string{
		"context",
		testServicePath + "/application",
		testServicePath + "/domain/entities",
		testServicePath + "/ports",
		"jokemoderation/internal/shared/events",
		"go.opentelemetry.io/otel/trace",
	}
	for _, imp := range allowed {
		if broken := checkImport("application", imp, testServicePath); len(broken) != 0 {
			t.Fatalf("expected %q to be allowed, got %v", imp, broken)
		}
	}

	denied := []string{
		testServicePath + "/adapters/memory",
		"jokemoderation/internal/platform/config",
		"jokemoderation/contexts/other/service/ports",
		"gorm.io/gorm",
	}
	for _, imp := range denied {
		if broken := checkImport("application", imp, testServicePath); len(broken) == 0 {
			t.Fatalf("expected %q to be rejected", imp)
		}
	}
}

func TestDomainImportRules(t *testing.T) {
	if broken := checkImport("domain", testServicePath+"/domain/entities", testServicePath); len(broken) != 0 {
		t.Fatalf("domain sibling import rejected: %v", broken)
	}
	for _, imp := range []string{testServicePath + "/ports", "jokemoderation/internal/shared/events"} {
		if broken := checkImport("domain", imp, testServicePath); len(broken) == 0 {
			t.Fatalf("expected domain import %q to be rejected", imp)
		}
	}
}

func TestPortsImportRules(t *testing.T) {
	if broken := checkImport("ports", "jokemoderation/internal/shared/events", testServicePath); len(broken) != 0 {
		t.Fatalf("ports may use shared events: %v", broken)
	}
	if broken := checkImport("ports", testServicePath+"/adapters/memory", testServicePath); len(broken) == 0 {
		t.Fatalf("ports importing adapters should be rejected")
	}
}

func TestAdaptersAreUnrestricted(t *testing.T) {
	if broken := checkImport("adapters", "gorm.io/gorm", testServicePath); len(broken) != 0 {
		t.Fatalf("adapters have no allowlist: %v", broken)
	}
}

func TestIsStdlib(t *testing.T) {
	if !isStdlib("net/http") || isStdlib("github.com/google/uuid") || isStdlib("jokemoderation/ports") {
		t.Fatalf("unexpected stdlib classification")
	}
}
