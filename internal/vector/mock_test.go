package vector

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/agenthands/creatorgraph/internal/driver"
)

type MockDriver struct {
	Queries []string
	Params  []map[string]any
	Result  func(query string) neo4j.EagerResult
	Err     error
}

func (m *MockDriver) ExecuteQuery(ctx context.Context, query string, params map[string]any) (neo4j.EagerResult, error) {
	m.Queries = append(m.Queries, query)
	m.Params = append(m.Params, params)
	if m.Err != nil {
		return neo4j.EagerResult{}, m.Err
	}
	if m.Result == nil {
		return neo4j.EagerResult{}, nil
	}
	return m.Result(query), nil
}

func (m *MockDriver) ExecuteWrite(ctx context.Context, work func(tx driver.Tx) error) error {
	return work(mockTx{m})
}

type mockTx struct {
	m *MockDriver
}

func (t mockTx) Run(ctx context.Context, query string, params map[string]any) error {
	_, err := t.m.ExecuteQuery(ctx, query, params)
	return err
}

func (m *MockDriver) BuildIndices(ctx context.Context) error {
	return nil
}

func (m *MockDriver) Close(ctx context.Context) error {
	return nil
}
