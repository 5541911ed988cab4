package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"github.com/matsalen/desafio-procion/internal/aws"
	"github.com/matsalen/desafio-procion/internal/config"
	"github.com/matsalen/desafio-procion/internal/domain"
	orderevents "github.com/matsalen/desafio-procion/internal/events"
	"github.com/matsalen/desafio-procion/internal/idempotency"
	"github.com/matsalen/desafio-procion/internal/orders"
	"github.com/matsalen/desafio-procion/internal/receipt"
)

const (
	metricRendered  = "ReceiptsRendered"
	metricFailed    = "ReceiptsFailed"
	metricDuplicate = "ReceiptsSkipped"
)

// ledger is the part of idempotency.Store the processor drives.
type ledger interface {
	CreateIfNotExists(ctx context.Context, key string, orderID int64) (bool, error)
	Reclaim(ctx context.Context, key string) (bool, error)
	Get(ctx context.Context, key string) (*idempotency.Record, error)
	MarkDone(ctx context.Context, key, responseBody string, responseStatus int) error
	MarkFailed(ctx context.Context, key, note string) error
}

// Processor turns order.created events into a PDF receipt and an .eml draft
// on disk, at most once per order.
type Processor struct {
	idemp    ledger
	renderer *receipt.Renderer
	metrics  *aws.Metrics
	outDir   string
	mailFrom string
}

func NewProcessor(clients *aws.AWSClients, cfg config.Config) *Processor {
	return &Processor{
		idemp:    idempotency.NewStore(clients.DynamoDB, cfg.IdempotencyTable, cfg.IdempotencyTTL),
		renderer: receipt.NewRenderer(cfg.StoreName, cfg.CurrencySymbol),
		metrics:  aws.NewMetrics(clients.CloudWatch, cfg.MetricsNamespace),
		outDir:   cfg.ReceiptsDir,
		mailFrom: cfg.MailFrom,
	}
}

// Handle receives an SQS batch. Failed records are reported back so only
// they are redelivered.
func (p *Processor) Handle(ctx context.Context, ev events.SQSEvent) (events.SQSEventResponse, error) {
	var resp events.SQSEventResponse
	for _, rec := range ev.Records {
		if err := p.HandleMessage(ctx, []byte(rec.Body)); err != nil {
			zap.L().Error("receipt message failed", zap.String("message_id", rec.MessageId), zap.Error(err))
			resp.BatchItemFailures = append(resp.BatchItemFailures, events.SQSBatchItemFailure{ItemIdentifier: rec.MessageId})
		}
	}
	return resp, nil
}

// HandleMessage processes one order.created body.
func (p *Processor) HandleMessage(ctx context.Context, body []byte) error {
	ev, err := orderevents.Decode(body)
	if err != nil {
		return err
	}
	logger := zap.L().With(zap.Int64("order_id", ev.OrderID), zap.String("event_id", ev.EventID))
	key := idempotency.ReceiptKey(ev.OrderID)

	proceed, err := p.claim(ctx, key, ev.OrderID)
	if err != nil {
		return err
	}
	if !proceed {
		logger.Info("receipt already handled, skipping")
		p.count(ctx, metricDuplicate)
		return nil
	}

	if !orders.VerifyTotals(ev.Order) {
		logger.Warn("order total does not match its lines", zap.String("total", ev.Order.Total.StringFixed(2)))
	}

	summary, err := p.write(&ev.Order)
	if err != nil {
		if markErr := p.idemp.MarkFailed(ctx, key, err.Error()); markErr != nil {
			logger.Warn("mark failed", zap.Error(markErr))
		}
		p.count(ctx, metricFailed)
		return fmt.Errorf("order %d: %w", ev.OrderID, err)
	}

	raw, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("encode receipt summary: %w", err)
	}
	if err := p.idemp.MarkDone(ctx, key, string(raw), 200); err != nil {
		return fmt.Errorf("mark done: %w", err)
	}
	p.count(ctx, metricRendered)
	logger.Info("receipt written", zap.String("pdf", summary.PDF), zap.String("eml", summary.EML))
	return nil
}

// claim reports whether this delivery owns the receipt work for key.
func (p *Processor) claim(ctx context.Context, key string, orderID int64) (bool, error) {
	created, err := p.idemp.CreateIfNotExists(ctx, key, orderID)
	if err != nil {
		return false, err
	}
	if created {
		return true, nil
	}

	rec, err := p.idemp.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if rec == nil {
		// expired between the put and the read
		return p.idemp.CreateIfNotExists(ctx, key, orderID)
	}
	switch rec.Status {
	case idempotency.StatusFailed:
		return p.idemp.Reclaim(ctx, key)
	default:
		return false, nil
	}
}

type receiptSummary struct {
	OrderID int64  `json:"orderId"`
	PDF     string `json:"pdf"`
	EML     string `json:"eml"`
	To      string `json:"to,omitempty"`
}

func (p *Processor) write(o *domain.Order) (receiptSummary, error) {
	pdf, err := p.renderer.Bytes(o)
	if err != nil {
		return receiptSummary{}, err
	}
	if err := os.MkdirAll(p.outDir, 0o755); err != nil {
		return receiptSummary{}, fmt.Errorf("create receipts dir: %w", err)
	}

	name := receipt.FileName(o)
	pdfPath := filepath.Join(p.outDir, name)
	if err := os.WriteFile(pdfPath, pdf, 0o644); err != nil {
		return receiptSummary{}, fmt.Errorf("write pdf: %w", err)
	}

	draft := p.renderer.Draft(o)
	var eml bytes.Buffer
	if err := draft.WriteEML(&eml, p.mailFrom, name, pdf); err != nil {
		return receiptSummary{}, err
	}
	emlPath := filepath.Join(p.outDir, strings.TrimSuffix(name, ".pdf")+".eml")
	if err := os.WriteFile(emlPath, eml.Bytes(), 0o644); err != nil {
		return receiptSummary{}, fmt.Errorf("write eml: %w", err)
	}

	return receiptSummary{OrderID: o.ID, PDF: pdfPath, EML: emlPath, To: draft.To}, nil
}

func (p *Processor) count(ctx context.Context, name string) {
	if err := p.metrics.Count(ctx, name, 1, map[string]string{"Service": "receipt-worker"}); err != nil {
		zap.L().Warn("put metric", zap.String("metric", name), zap.Error(err))
	}
}
