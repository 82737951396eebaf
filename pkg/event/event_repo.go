package event

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/forecastly/forecastly/pkg/localdate"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

var ErrEventNotFound = errors.New("event not found")

type Repository interface {
	WithTransaction(ctx context.Context, fn func(repo Repository) error) error
	StoreEvent(ctx context.Context, userId int, event Event) (Event, error)
	GetEvents(ctx context.Context, userId int) ([]Event, error)
	GetEvent(ctx context.Context, userId int, id string) (Event, error)
	SetEnabled(ctx context.Context, userId int, id string, enabled bool) error
	DeleteEvent(ctx context.Context, userId int, id string) error
	// DeleteGenerated removes detected recurring rules created for the given bank.
	DeleteGenerated(ctx context.Context, userId int, bankId string) (int, error)
	// DeleteByBank removes every event that originates from the given bank.
	DeleteByBank(ctx context.Context, userId int, bankId string) (int, error)
}

type RepositoryImpl struct {
	db *pgxpool.Pool
	tx pgx.Tx
}

func NewEventRepo(db *pgxpool.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

func (r *RepositoryImpl) getQueryer() interface {
	Exec(ctx context.Context, query string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, query string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, query string, args ...interface{}) pgx.Row
} {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

func (r *RepositoryImpl) WithTransaction(ctx context.Context, fn func(repo Repository) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			log.Errorf("rollback error: %v", rbErr)
		}
	}()

	if err := fn(&RepositoryImpl{db: r.db, tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (r *RepositoryImpl) StoreEvent(ctx context.Context, userId int, event Event) (Event, error) {
	query := `INSERT INTO forecast_event (
					id,
					user_id,
					title,
					amount,
					type,
					frequency,
					start_date,
					enabled,
					recurring,
					generated,
					is_bank,
					bank_id,
					source,
					source_icon
				) VALUES ($1, $2, $3, $4::numeric, $5, $6, $7::date, $8, $9, $10, $11, $12, $13, $14)`

	_, err := r.getQueryer().Exec(ctx, query,
		event.Id,
		userId,
		event.Title,
		event.Amount.String(),
		string(event.Type),
		string(event.Frequency),
		localdate.Format(event.StartDate),
		event.Enabled,
		event.Recurring,
		event.Generated,
		event.IsBank,
		event.BankId,
		string(event.Source),
		event.SourceIcon,
	)
	if err != nil {
		err := fmt.Errorf("could not store event: %w", err)
		log.Error(err)
		return Event{}, err
	}
	return event, nil
}

const selectEvents = `SELECT id, title, amount::text, type, frequency, start_date::text, enabled, recurring,
							 generated, is_bank, bank_id, source, source_icon
					  FROM forecast_event`

func (r *RepositoryImpl) GetEvents(ctx context.Context, userId int) ([]Event, error) {
	rows, err := r.getQueryer().Query(ctx, selectEvents+` WHERE user_id = $1 ORDER BY start_date, id`, userId)
	if err != nil {
		err := fmt.Errorf("could not query events: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	events := make([]Event, 0, 16)
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			log.Error(err)
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

func (r *RepositoryImpl) GetEvent(ctx context.Context, userId int, id string) (Event, error) {
	row := r.getQueryer().QueryRow(ctx, selectEvents+` WHERE user_id = $1 AND id = $2`, userId, id)
	event, err := scanEvent(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Event{}, ErrEventNotFound
	}
	return event, err
}

func scanEvent(row pgx.Row) (Event, error) {
	var (
		event     Event
		amount    string
		eventType string
		frequency string
		startDate string
		source    string
	)
	err := row.Scan(
		&event.Id,
		&event.Title,
		&amount,
		&eventType,
		&frequency,
		&startDate,
		&event.Enabled,
		&event.Recurring,
		&event.Generated,
		&event.IsBank,
		&event.BankId,
		&source,
		&event.SourceIcon,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Event{}, err
		}
		return Event{}, fmt.Errorf("could not scan event: %w", err)
	}
	event.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return Event{}, fmt.Errorf("could not parse amount %q: %w", amount, err)
	}
	event.StartDate, err = localdate.ParseIn(startDate, time.UTC)
	if err != nil {
		return Event{}, err
	}
	event.Type = Type(eventType)
	event.Frequency = Frequency(frequency)
	event.Source = Source(source)
	return event, nil
}

func (r *RepositoryImpl) SetEnabled(ctx context.Context, userId int, id string, enabled bool) error {
	result, err := r.getQueryer().Exec(ctx, `UPDATE forecast_event SET enabled = $1 WHERE user_id = $2 AND id = $3`, enabled, userId, id)
	if err != nil {
		err := fmt.Errorf("could not update event: %w", err)
		log.Error(err)
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrEventNotFound
	}
	return nil
}

func (r *RepositoryImpl) DeleteEvent(ctx context.Context, userId int, id string) error {
	result, err := r.getQueryer().Exec(ctx, `DELETE FROM forecast_event WHERE user_id = $1 AND id = $2`, userId, id)
	if err != nil {
		err := fmt.Errorf("could not delete event: %w", err)
		log.Error(err)
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrEventNotFound
	}
	return nil
}

func (r *RepositoryImpl) DeleteGenerated(ctx context.Context, userId int, bankId string) (int, error) {
	result, err := r.getQueryer().Exec(ctx,
		`DELETE FROM forecast_event WHERE user_id = $1 AND bank_id = $2 AND generated = TRUE`, userId, bankId)
	if err != nil {
		err := fmt.Errorf("could not delete generated events: %w", err)
		log.Error(err)
		return 0, err
	}
	return int(result.RowsAffected()), nil
}

func (r *RepositoryImpl) DeleteByBank(ctx context.Context, userId int, bankId string) (int, error) {
	result, err := r.getQueryer().Exec(ctx, `DELETE FROM forecast_event WHERE user_id = $1 AND bank_id = $2`, userId, bankId)
	if err != nil {
		err := fmt.Errorf("could not delete bank events: %w", err)
		log.Error(err)
		return 0, err
	}
	return int(result.RowsAffected()), nil
}
