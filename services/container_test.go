package services

import (
	"testing"

	"github.com/lh20005/geo-xi-tong-sub000/repositories"
)

func TestNewContainerInitializesServices(t *testing.T) {
	container := NewContainer(repositories.Container{}, nil)

	if container == nil {
		t.Fatalf("expected container instance")
	}
	if container.Usage == nil || container.Quota == nil || container.Alert == nil ||
		container.History == nil || container.Reconcile == nil || container.Maintenance == nil {
		t.Fatalf("expected all services to be initialized")
	}
}
