// Package repository содержит хранилища чеков оплаченных корзин.
package repository

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/mmeshcher/cartshop/internal/model"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrReceiptExists возвращается при повторном сохранении чека с тем же идентификатором.
var ErrReceiptExists = errors.New("receipt already exists")

// DBPool — подмножество методов *pgxpool.Pool, которое использует репозиторий.
type DBPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresRepository хранит чеки в PostgreSQL.
type PostgresRepository struct {
	pool   DBPool
	delays []time.Duration
}

// NewPostgresRepository подключается к БД и применяет миграции.
func NewPostgresRepository(dsn string) (*PostgresRepository, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return NewPostgresRepositoryWithPool(pool), nil
}

// NewPostgresRepositoryWithPool создаёт репозиторий поверх готового пула соединений.
func NewPostgresRepositoryWithPool(pool DBPool) *PostgresRepository {
	return &PostgresRepository{
		pool:   pool,
		delays: []time.Duration{1 * time.Second, 3 * time.Second, 5 * time.Second},
	}
}

func runMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	goose.SetBaseFS(migrationsFS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

func (r *PostgresRepository) withRetry(ctx context.Context, fn func() error) error {
	var err error

	for i := 0; i <= len(r.delays); i++ {
		err = fn()
		if err == nil {
			return nil
		}

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		if !isRetryable(err) || i == len(r.delays) {
			break
		}

		timer := time.NewTimer(r.delays[i])
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return err
}

func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.SerializationFailure || pgErr.Code == pgerrcode.DeadlockDetected
	}
	return isConnectionError(err)
}

func isConnectionError(err error) bool {
	return strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "broken pipe") ||
		strings.Contains(err.Error(), "connection reset by peer")
}

// Close закрывает пул соединений с БД.
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// SaveReceipt сохраняет чек вместе с позициями и скидками в одной транзакции.
// Если повторная попытка упирается в уже существующий чек, значит предыдущий COMMIT
// прошёл, а ответ на него потерялся.
func (r *PostgresRepository) SaveReceipt(ctx context.Context, rc model.Receipt) error {
	attempt := 0
	return r.withRetry(ctx, func() error {
		attempt++
		err := r.saveReceipt(ctx, rc)
		if attempt > 1 && errors.Is(err, ErrReceiptExists) {
			return nil
		}
		return err
	})
}

func (r *PostgresRepository) saveReceipt(ctx context.Context, rc model.Receipt) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO receipts (id, session_id, subtotal, total, paid_at) VALUES ($1, $2, $3, $4, $5)`,
		rc.ID.String(), rc.SessionID, int64(rc.Subtotal), int64(rc.Total), rc.PaidAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return fmt.Errorf("%w: %s", ErrReceiptExists, rc.ID)
		}
		return fmt.Errorf("insert receipt: %w", err)
	}

	for i, l := range rc.Lines {
		_, err = tx.Exec(ctx,
			`INSERT INTO receipt_lines (receipt_id, position, item_id, name, quantity, unit_price, total)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			rc.ID.String(), i, l.ItemID, l.Name, int64(l.Quantity), int64(l.UnitPrice), int64(l.Total),
		)
		if err != nil {
			return fmt.Errorf("insert receipt line: %w", err)
		}
	}

	for i, d := range rc.Discounts {
		_, err = tx.Exec(ctx,
			`INSERT INTO receipt_discounts (receipt_id, position, type, amount, value, item_id, get, pay)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			rc.ID.String(), i, string(d.Type), d.Amount, int16(d.Value), d.Item, int64(d.Get), int64(d.Pay),
		)
		if err != nil {
			return fmt.Errorf("insert receipt discount: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// ReceiptsBySession возвращает чеки сессии, начиная с последнего.
func (r *PostgresRepository) ReceiptsBySession(ctx context.Context, sessionID string) ([]model.Receipt, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, subtotal, total, paid_at
		 FROM receipts
		 WHERE session_id = $1
		 ORDER BY paid_at DESC`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("select receipts: %w", err)
	}
	defer rows.Close()

	var (
		receipts []model.Receipt
		ids      []string
		index    = make(map[string]int)
	)
	for rows.Next() {
		var (
			id              string
			subtotal, total int64
			paidAt          time.Time
		)
		if err := rows.Scan(&id, &subtotal, &total, &paidAt); err != nil {
			return nil, fmt.Errorf("scan receipt: %w", err)
		}
		parsed, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("parse receipt id: %w", err)
		}

		index[id] = len(receipts)
		ids = append(ids, id)
		receipts = append(receipts, model.Receipt{
			ID:        parsed,
			SessionID: sessionID,
			Subtotal:  model.Euro(subtotal),
			Total:     model.Euro(total),
			PaidAt:    paidAt,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	if len(receipts) == 0 {
		return nil, nil
	}

	if err := r.loadLines(ctx, ids, index, receipts); err != nil {
		return nil, err
	}
	if err := r.loadDiscounts(ctx, ids, index, receipts); err != nil {
		return nil, err
	}

	return receipts, nil
}

func (r *PostgresRepository) loadLines(ctx context.Context, ids []string, index map[string]int, receipts []model.Receipt) error {
	rows, err := r.pool.Query(ctx,
		`SELECT receipt_id, item_id, name, quantity, unit_price, total
		 FROM receipt_lines
		 WHERE receipt_id = ANY($1::uuid[])
		 ORDER BY receipt_id, position`,
		ids,
	)
	if err != nil {
		return fmt.Errorf("select receipt lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			receiptID, itemID, name string
			qty, unitPrice, total   int64
		)
		if err := rows.Scan(&receiptID, &itemID, &name, &qty, &unitPrice, &total); err != nil {
			return fmt.Errorf("scan receipt line: %w", err)
		}
		i, ok := index[receiptID]
		if !ok {
			continue
		}
		receipts[i].Lines = append(receipts[i].Lines, model.ReceiptLine{
			ItemID:    itemID,
			Name:      name,
			Quantity:  uint32(qty),
			UnitPrice: model.Euro(unitPrice),
			Total:     model.Euro(total),
		})
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("rows error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) loadDiscounts(ctx context.Context, ids []string, index map[string]int, receipts []model.Receipt) error {
	rows, err := r.pool.Query(ctx,
		`SELECT receipt_id, type, amount, value, item_id, get, pay
		 FROM receipt_discounts
		 WHERE receipt_id = ANY($1::uuid[])
		 ORDER BY receipt_id, position`,
		ids,
	)
	if err != nil {
		return fmt.Errorf("select receipt discounts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			receiptID, typ, amount, itemID string
			value                          int16
			get, pay                       int64
		)
		if err := rows.Scan(&receiptID, &typ, &amount, &value, &itemID, &get, &pay); err != nil {
			return fmt.Errorf("scan receipt discount: %w", err)
		}
		i, ok := index[receiptID]
		if !ok {
			continue
		}
		receipts[i].Discounts = append(receipts[i].Discounts, model.DiscountSpec{
			Type:   model.DiscountType(typ),
			Amount: amount,
			Value:  uint8(value),
			Item:   itemID,
			Get:    uint32(get),
			Pay:    uint32(pay),
		})
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("rows error: %w", err)
	}
	return nil
}
