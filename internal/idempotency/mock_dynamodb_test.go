package idempotency

import (
	"context"
	"errors"
	"strconv"
	"sync"

	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// simpleMock is a small in-memory stand-in for PutItem/GetItem/UpdateItem.
// It understands only the condition and update expressions Store issues.
type simpleMock struct {
	mu          sync.Mutex
	table       map[string]map[string]types.AttributeValue
	putCalls    int
	getCalls    int
	updateCalls int
}

func newSimpleMock() *simpleMock {
	return &simpleMock{
		table: map[string]map[string]types.AttributeValue{},
	}
}

func keyValue(m map[string]types.AttributeValue) (string, error) {
	attr, ok := m["idempotency_key"].(*types.AttributeValueMemberS)
	if !ok {
		return "", errors.New("missing key")
	}
	return attr.Value, nil
}

func (m *simpleMock) PutItem(ctx context.Context, params *dyn.PutItemInput, optFns ...func(*dyn.Options)) (*dyn.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putCalls++

	k, err := keyValue(params.Item)
	if err != nil {
		return nil, err
	}
	if params.ConditionExpression != nil && *params.ConditionExpression == "attribute_not_exists(idempotency_key)" {
		if _, ok := m.table[k]; ok {
			return nil, &types.ConditionalCheckFailedException{}
		}
	}
	m.table[k] = params.Item
	return &dyn.PutItemOutput{}, nil
}

func (m *simpleMock) GetItem(ctx context.Context, params *dyn.GetItemInput, optFns ...func(*dyn.Options)) (*dyn.GetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalls++

	k, err := keyValue(params.Key)
	if err != nil {
		return nil, err
	}
	item, ok := m.table[k]
	if !ok {
		return &dyn.GetItemOutput{}, nil
	}
	return &dyn.GetItemOutput{Item: item}, nil
}

func (m *simpleMock) UpdateItem(ctx context.Context, params *dyn.UpdateItemInput, optFns ...func(*dyn.Options)) (*dyn.UpdateItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateCalls++

	k, err := keyValue(params.Key)
	if err != nil {
		return nil, err
	}
	item, ok := m.table[k]
	if !ok {
		if params.ConditionExpression != nil {
			return nil, &types.ConditionalCheckFailedException{}
		}
		item = map[string]types.AttributeValue{"idempotency_key": params.Key["idempotency_key"]}
	}
	vals := params.ExpressionAttributeValues

	if params.ConditionExpression != nil && *params.ConditionExpression == "#s = :failed" {
		st, _ := item["status"].(*types.AttributeValueMemberS)
		if st == nil || st.Value != StatusFailed {
			return nil, &types.ConditionalCheckFailedException{}
		}
	}

	if v, ok := vals[":rb"]; ok {
		item["response_body"] = v
	}
	if v, ok := vals[":rs"]; ok {
		item["response_status"] = v
	}
	if v, ok := vals[":n"]; ok {
		item["note"] = v
	}
	if v, ok := vals[":ua"]; ok {
		item["updated_at"] = v
	}
	switch {
	case vals[":done"] != nil:
		item["status"] = vals[":done"]
	case vals[":progress"] != nil:
		item["status"] = vals[":progress"]
		if n, ok := item["attempts"].(*types.AttributeValueMemberN); ok {
			a, _ := strconv.Atoi(n.Value)
			item["attempts"] = &types.AttributeValueMemberN{Value: strconv.Itoa(a + 1)}
		}
	case vals[":failed"] != nil:
		item["status"] = vals[":failed"]
	}
	m.table[k] = item
	return &dyn.UpdateItemOutput{Attributes: item}, nil
}
