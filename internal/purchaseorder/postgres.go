package purchaseorder

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	apperrors "github.com/holt-ace/DASHBOARDV3-sub001/pkg/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS purchase_orders (
	po_number TEXT PRIMARY KEY,
	status TEXT NOT NULL,
	order_date TIMESTAMPTZ NULL,
	location TEXT NOT NULL DEFAULT '',
	buyer_email TEXT NOT NULL DEFAULT '',
	document JSONB NOT NULL,
	revision INT NOT NULL DEFAULT 1,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS purchase_orders_status_idx ON purchase_orders (status);
CREATE INDEX IF NOT EXISTS purchase_orders_order_date_idx ON purchase_orders (order_date);
CREATE INDEX IF NOT EXISTS purchase_orders_location_idx ON purchase_orders (location);
`

// PostgresRepository stores each purchase order as a JSONB document with
// the filterable fields projected into indexed columns.
type PostgresRepository struct {
	db     *sql.DB
	logger *zap.Logger
	tracer trace.Tracer
}

// NewPostgresRepository creates a repository over db.
func NewPostgresRepository(db *sql.DB, logger *zap.Logger) *PostgresRepository {
	return &PostgresRepository{
		db:     db,
		logger: logger,
		tracer: otel.Tracer("potrack/purchaseorder"),
	}
}

// Migrate creates the purchase_orders table and its indexes.
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate purchase_orders: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Create(ctx context.Context, po *PurchaseOrder) error {
	ctx, span := r.tracer.Start(ctx, "purchaseorder.create",
		trace.WithAttributes(attribute.String("po.number", po.Header.PONumber)),
	)
	defer span.End()

	now := time.Now().UTC()
	if po.CreatedAt.IsZero() {
		po.CreatedAt = now
	}
	po.UpdatedAt = now

	doc, err := json.Marshal(po)
	if err != nil {
		return fmt.Errorf("marshal purchase order: %w", err)
	}

	var orderDate sql.NullTime
	if t, ok := po.OrderTime(); ok {
		orderDate = sql.NullTime{Time: t, Valid: true}
	}
	email := ""
	if po.Header.BuyerInfo != nil {
		email = po.Header.BuyerInfo.Email
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO purchase_orders (po_number, status, order_date, location, buyer_email, document, revision, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, po.Header.PONumber, string(po.Header.Status), orderDate, po.LocationKey(), email, doc, po.Revision, po.CreatedAt, po.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return &apperrors.ErrConflict{Message: fmt.Sprintf("purchase order %s already exists", po.Header.PONumber)}
		}
		span.RecordError(err)
		return fmt.Errorf("insert purchase order: %w", err)
	}
	return nil
}

func (r *PostgresRepository) FindByDateRange(ctx context.Context, start, end *time.Time, filter Filter, batchSize int) (*Page, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	ctx, span := r.tracer.Start(ctx, "purchaseorder.find_by_date_range",
		trace.WithAttributes(attribute.Int("batch.size", batchSize)),
	)
	defer span.End()

	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if start != nil {
		conds = append(conds, "order_date >= "+arg(*start))
	}
	if end != nil {
		conds = append(conds, "order_date <= "+arg(*end))
	}
	if filter.Status != "" {
		conds = append(conds, "status = "+arg(string(filter.Status)))
	}
	if filter.Location != "" {
		conds = append(conds, "location = "+arg(filter.Location))
	}
	if filter.BuyerEmail != "" {
		conds = append(conds, "buyer_email = "+arg(filter.BuyerEmail))
	}

	page := &Page{Data: []*PurchaseOrder{}, Metadata: PageMetadata{BatchSize: batchSize}}
	last := ""
	for {
		batchArgs := append(append([]any{}, args...), last, batchSize)
		where := append(append([]string{}, conds...), fmt.Sprintf("po_number > $%d", len(args)+1))
		query := fmt.Sprintf(`
			SELECT po_number, document FROM purchase_orders
			WHERE %s
			ORDER BY po_number ASC
			LIMIT $%d
		`, strings.Join(where, " AND "), len(args)+2)

		n, cursor, err := r.scanBatch(ctx, page, query, batchArgs)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		if n > 0 {
			page.Metadata.Batches++
			last = cursor
		}
		if n < batchSize {
			break
		}
	}
	page.Metadata.Total = len(page.Data)
	span.SetAttributes(attribute.Int("po.count", page.Metadata.Total))
	return page, nil
}

// scanBatch appends the decoded rows to page and returns the row count and
// the last po_number seen.
func (r *PostgresRepository) scanBatch(ctx context.Context, page *Page, query string, args []any) (int, string, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return 0, "", fmt.Errorf("query purchase orders: %w", err)
	}
	defer rows.Close()

	n, cursor := 0, ""
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&cursor, &doc); err != nil {
			return n, cursor, fmt.Errorf("scan purchase order: %w", err)
		}
		n++
		var po PurchaseOrder
		if err := json.Unmarshal(doc, &po); err != nil {
			r.logger.Warn("skipping undecodable purchase order document",
				zap.String("po_number", cursor), zap.Error(err))
			continue
		}
		page.Data = append(page.Data, &po)
	}
	if err := rows.Err(); err != nil {
		return n, cursor, fmt.Errorf("iterate purchase orders: %w", err)
	}
	return n, cursor, nil
}

func (r *PostgresRepository) FindByNumber(ctx context.Context, poNumber string) (*PurchaseOrder, error) {
	ctx, span := r.tracer.Start(ctx, "purchaseorder.find_by_number",
		trace.WithAttributes(attribute.String("po.number", poNumber)),
	)
	defer span.End()

	var doc []byte
	err := r.db.QueryRowContext(ctx, `SELECT document FROM purchase_orders WHERE po_number = $1`, poNumber).Scan(&doc)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, &apperrors.ErrNotFound{Resource: "purchase order", ID: poNumber}
		}
		return nil, fmt.Errorf("get purchase order: %w", err)
	}
	var po PurchaseOrder
	if err := json.Unmarshal(doc, &po); err != nil {
		return nil, fmt.Errorf("decode purchase order %s: %w", poNumber, err)
	}
	return &po, nil
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, poNumber string, from, to Status, entry HistoryEntry) (*PurchaseOrder, error) {
	ctx, span := r.tracer.Start(ctx, "purchaseorder.update_status",
		trace.WithAttributes(
			attribute.String("po.number", poNumber),
			attribute.String("po.status.from", string(from)),
			attribute.String("po.status.to", string(to)),
		),
	)
	defer span.End()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var doc []byte
	err = tx.QueryRowContext(ctx, `SELECT document FROM purchase_orders WHERE po_number = $1 FOR UPDATE`, poNumber).Scan(&doc)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, &apperrors.ErrNotFound{Resource: "purchase order", ID: poNumber}
		}
		return nil, fmt.Errorf("lock purchase order: %w", err)
	}
	var po PurchaseOrder
	if err := json.Unmarshal(doc, &po); err != nil {
		return nil, fmt.Errorf("decode purchase order %s: %w", poNumber, err)
	}

	if po.Header.Status != from {
		return nil, staleStatus(poNumber, from, po.Header.Status)
	}

	po.Header.Status = to
	po.StatusHistory = append(po.StatusHistory, entry)
	po.UpdatedAt = time.Now().UTC()

	updated, err := json.Marshal(&po)
	if err != nil {
		return nil, fmt.Errorf("marshal purchase order: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE purchase_orders
		SET status = $2, document = $3, updated_at = $4
		WHERE po_number = $1
	`, poNumber, string(to), updated, po.UpdatedAt); err != nil {
		return nil, fmt.Errorf("update purchase order: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return &po, nil
}
