package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"credocs/internal/oracle"
)

type MockOracle struct {
	mock.Mock
}

func (m *MockOracle) ClassifyReportTier(ctx context.Context, text string, debt oracle.DebtContext) oracle.ReportTier {
	args := m.Called(ctx, text, debt)
	return args.Get(0).(oracle.ReportTier)
}

func (m *MockOracle) CheckAccountingEquation(ctx context.Context, text string) oracle.AccountingFigures {
	args := m.Called(ctx, text)
	return args.Get(0).(oracle.AccountingFigures)
}

func (m *MockOracle) CheckDualOpinions(ctx context.Context, text string) oracle.DualOpinions {
	args := m.Called(ctx, text)
	return args.Get(0).(oracle.DualOpinions)
}

func (m *MockOracle) CheckProjectionCoverage(ctx context.Context, text string) oracle.ProjectionCoverage {
	args := m.Called(ctx, text)
	return args.Get(0).(oracle.ProjectionCoverage)
}
