package application_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ericfisherdev/adbudget/internal/application"
)

func TestHealthService_Check(t *testing.T) {
	tests := []struct {
		name       string
		pingErr    error
		wantStatus string
		wantDB     string
	}{
		{"database reachable", nil, application.HealthStatusOK, application.HealthStatusOK},
		{"database down", errors.New("disk I/O error"), application.HealthStatusDegraded, "disk I/O error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clients := application.NewBudgetClientProvider()
			clients.Replace("newsbreak", &mockBudgetClient{})
			svc := application.NewHealthService(&mockPinger{err: tt.pingErr}, clients, nil)

			report := svc.Check(context.Background())
			assert.Equal(t, tt.wantStatus, report.Status)
			assert.Equal(t, tt.wantDB, report.Database)
			assert.Equal(t, []string{"newsbreak"}, report.Platforms)
			assert.False(t, report.CheckedAt.IsZero())
		})
	}
}
