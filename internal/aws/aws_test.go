package aws

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockSQS struct {
	input *sqs.SendMessageInput
	err   error
}

func (m *mockSQS) SendMessage(_ context.Context, in *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	m.input = in
	return &sqs.SendMessageOutput{}, m.err
}

type mockCloudWatch struct {
	inputs []*cloudwatch.PutMetricDataInput
}

func (m *mockCloudWatch) PutMetricData(_ context.Context, in *cloudwatch.PutMetricDataInput, _ ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	m.inputs = append(m.inputs, in)
	return &cloudwatch.PutMetricDataOutput{}, nil
}

func TestSendOrderMessage_SetsAttributes(t *testing.T) {
	m := &mockSQS{}
	p := NewPublisher(m, "https://sqs.local/orders")

	err := p.SendOrderMessage(context.Background(), `{"orderId":1}`, map[string]string{"order_id": "1", "event_type": "order.created"})
	require.NoError(t, err)

	assert.Equal(t, "https://sqs.local/orders", *m.input.QueueUrl)
	assert.Equal(t, `{"orderId":1}`, *m.input.MessageBody)
	require.Len(t, m.input.MessageAttributes, 2)
	assert.Equal(t, "1", *m.input.MessageAttributes["order_id"].StringValue)
	assert.Equal(t, "order.created", *m.input.MessageAttributes["event_type"].StringValue)
}

func TestSendOrderMessage_Errors(t *testing.T) {
	m := &mockSQS{err: errors.New("throttled")}

	assert.Error(t, NewPublisher(m, "q").SendOrderMessage(context.Background(), "{}", nil))
	assert.Error(t, NewPublisher(m, "").SendOrderMessage(context.Background(), "{}", nil))
}

func TestMetricsCount(t *testing.T) {
	cw := &mockCloudWatch{}
	m := NewMetrics(cw, "StoreReceipts")

	require.NoError(t, m.Count(context.Background(), "ReceiptsRendered", 1, map[string]string{"Source": "sqs"}))
	require.Len(t, cw.inputs, 1)
	assert.Equal(t, "StoreReceipts", *cw.inputs[0].Namespace)
	assert.Equal(t, "ReceiptsRendered", *cw.inputs[0].MetricData[0].MetricName)
	assert.Len(t, cw.inputs[0].MetricData[0].Dimensions, 1)

	var disabled *Metrics
	assert.NoError(t, disabled.Count(context.Background(), "x", 1, nil))
}
