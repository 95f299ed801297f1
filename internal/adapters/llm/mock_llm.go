package llm

import (
	"context"

	"github.com/krishisakhi/sakhi-agent/internal/domain"
)

// MockModel is a canned model client for local development and tests.
type MockModel struct{}

func NewMockModel() *MockModel {
	return &MockModel{}
}

func (m *MockModel) Generate(ctx context.Context, req domain.ModelRequest) (string, error) {
	if req.Image != nil {
		return "1. The image shows a healthy leaf. 2. No signs of disease or deficiency. 3. Continue your current care routine.", nil
	}
	return "1. Conditions look good for sowing this week. 2. Irrigate lightly in the evening. 3. Check back with me after the next rain.", nil
}
