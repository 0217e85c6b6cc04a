package domain

import (
	"testing"

	"github.com/google/uuid"
)

func TestTenantExecutionContext_FairnessWeight(t *testing.T) {
	tests := []struct {
		name string
		plan Plan
		want float32
	}{
		{"free", PlanFree, 1},
		{"pro", PlanPro, 3},
		{"enterprise", PlanEnterprise, 10},
		{"empty defaults to base", "", 1},
		{"unknown defaults to base", Plan("platinum"), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := TenantExecutionContext{
				TenantID: uuid.New(),
				Plan:     tt.plan,
			}
			if got := c.FairnessWeight(); got != tt.want {
				t.Errorf("FairnessWeight() = %v, want %v", got, tt.want)
			}
		})
	}
}
