package store

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/agenthands/creatorgraph/internal/driver"
)

type executedQuery struct {
	Query  string
	Params map[string]any
}

// MockDriver records every query and answers from Results keyed by the
// exact query text. Committed only holds statements whose transaction
// succeeded; statements run inside ExecuteWrite are dropped when the work
// fails.
type MockDriver struct {
	Executed     []executedQuery
	Committed    []string
	Results      map[string]neo4j.EagerResult
	Err          error
	FailOn       map[string]error
	IndicesBuilt bool
}

func (m *MockDriver) run(query string, params map[string]any) (neo4j.EagerResult, error) {
	m.Executed = append(m.Executed, executedQuery{Query: query, Params: params})
	if m.Err != nil {
		return neo4j.EagerResult{}, m.Err
	}
	if err := m.FailOn[query]; err != nil {
		return neo4j.EagerResult{}, err
	}
	return m.Results[query], nil
}

func (m *MockDriver) ExecuteQuery(ctx context.Context, query string, params map[string]any) (neo4j.EagerResult, error) {
	res, err := m.run(query, params)
	if err == nil {
		m.Committed = append(m.Committed, query)
	}
	return res, err
}

func (m *MockDriver) ExecuteWrite(ctx context.Context, work func(tx driver.Tx) error) error {
	tx := &mockTx{m: m}
	if err := work(tx); err != nil {
		return err
	}
	m.Committed = append(m.Committed, tx.pending...)
	return nil
}

type mockTx struct {
	m       *MockDriver
	pending []string
}

func (t *mockTx) Run(ctx context.Context, query string, params map[string]any) error {
	if _, err := t.m.run(query, params); err != nil {
		return err
	}
	t.pending = append(t.pending, query)
	return nil
}

func (m *MockDriver) BuildIndices(ctx context.Context) error {
	m.IndicesBuilt = true
	return nil
}

func (m *MockDriver) Close(ctx context.Context) error {
	return nil
}

func (m *MockDriver) queries() []string {
	out := make([]string, len(m.Executed))
	for i, e := range m.Executed {
		out[i] = e.Query
	}
	return out
}
