package repository

import (
	"context"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cafe-fausse/booking-service/booking/internal/errs"
	"github.com/cafe-fausse/booking-service/booking/internal/model"
	"github.com/pkg/errors"

	sq "github.com/Masterminds/squirrel"

	"go.uber.org/zap"
)

//go:generate go run github.com/golang/mock/mockgen -source=repository.go -destination=mocks/mock.go

type Repository interface {
	UpsertCustomer(ctx context.Context, upd model.CustomerUpdate) (model.Customer, error)
	CreateReservation(ctx context.Context, upd model.CustomerUpdate, timeslot time.Time, tableNumber, guests int) (model.Reservation, error)
	CountByTimeslot(ctx context.Context, timeslot time.Time) (int, error)
	UsedTables(ctx context.Context, timeslot time.Time) ([]int, error)
	ListReservations(ctx context.Context) ([]model.Reservation, error)
	GetReservation(ctx context.Context, id int) (model.Reservation, error)
}

type repository struct {
	db  *pgxpool.Pool
	log *zap.Logger
}

func NewRepository(db *pgxpool.Pool, log *zap.Logger) (*repository, error) {
	return &repository{
		db:  db,
		log: log.Named("repo"),
	}, nil
}

const (
	customersTableName    = `customers`
	reservationsTableName = `reservations`
)

var qb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// UpsertCustomer creates or updates a customer keyed by email within a
// single transaction. The merge policy lives in model.MergeCustomer.
func (r *repository) UpsertCustomer(ctx context.Context, upd model.CustomerUpdate) (model.Customer, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return model.Customer{}, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	cust, err := r.upsertCustomer(ctx, tx, upd)
	if err != nil {
		return model.Customer{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return model.Customer{}, err
	}
	return cust, nil
}

// CreateReservation upserts the customer and inserts the reservation
// row in one transaction. A lost race on the (timeslot, table_number)
// unique constraint comes back as errs.ErrTableTaken.
func (r *repository) CreateReservation(ctx context.Context, upd model.CustomerUpdate, timeslot time.Time, tableNumber, guests int) (model.Reservation, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return model.Reservation{}, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	cust, err := r.upsertCustomer(ctx, tx, upd)
	if err != nil {
		return model.Reservation{}, err
	}

	q := `insert into reservations (customer_id, timeslot, table_number, guests)
	values (@customer_id, @timeslot, @table_number, @guests)
	returning id, created_at`
	args := pgx.NamedArgs{
		"customer_id":  cust.ID,
		"timeslot":     timeslot,
		"table_number": tableNumber,
		"guests":       guests,
	}
	var (
		id        int
		createdAt time.Time
	)
	if err := tx.QueryRow(ctx, q, args).Scan(&id, &createdAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return model.Reservation{}, errs.ErrTableTaken
		}
		r.log.Error("CreateReservation", zap.String("q", q), zap.Any("args", args), zap.Error(err))
		return model.Reservation{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return model.Reservation{}, err
	}

	return model.Reservation{
		ID:           id,
		CustomerID:   cust.ID,
		Timeslot:     timeslot,
		TableNumber:  tableNumber,
		Guests:       guests,
		CreatedAt:    createdAt,
		CustomerName: cust.Name,
		Email:        cust.Email,
		Phone:        cust.Phone,
	}, nil
}

func (r *repository) upsertCustomer(ctx context.Context, tx pgx.Tx, upd model.CustomerUpdate) (model.Customer, error) {
	q, args, err := qb.Select("id", "name", "email", "phone", "newsletter_signup", "created_at").
		From(customersTableName).
		Where(sq.Eq{"email": upd.Email}).
		Suffix("for update").
		ToSql()
	if err != nil {
		return model.Customer{}, err
	}

	rows, err := tx.Query(ctx, q, args...)
	if err != nil {
		return model.Customer{}, err
	}
	cur, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Customer])
	switch {
	case err == nil:
		return r.updateCustomer(ctx, tx, model.MergeCustomer(cur, upd))
	case errors.Is(err, pgx.ErrNoRows):
		return r.insertCustomer(ctx, tx, upd)
	default:
		return model.Customer{}, err
	}
}

func (r *repository) insertCustomer(ctx context.Context, tx pgx.Tx, upd model.CustomerUpdate) (model.Customer, error) {
	name := upd.Name
	if name == "" {
		name = upd.DefaultName
	}
	var phone *string
	if upd.Phone != "" {
		phone = &upd.Phone
	}
	q := `insert into customers (name, email, phone, newsletter_signup)
	values (@name, @email, @phone, @newsletter_signup)
	returning id, name, email, phone, newsletter_signup, created_at`
	args := pgx.NamedArgs{
		"name":              name,
		"email":             upd.Email,
		"phone":             phone,
		"newsletter_signup": upd.NewsletterSignup,
	}
	rows, err := tx.Query(ctx, q, args)
	if err != nil {
		return model.Customer{}, err
	}
	return pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Customer])
}

func (r *repository) updateCustomer(ctx context.Context, tx pgx.Tx, cust model.Customer) (model.Customer, error) {
	q := `update customers
	set name = @name, phone = @phone, newsletter_signup = @newsletter_signup
	where id = @id`
	args := pgx.NamedArgs{
		"id":                cust.ID,
		"name":              cust.Name,
		"phone":             cust.Phone,
		"newsletter_signup": cust.NewsletterSignup,
	}
	if _, err := tx.Exec(ctx, q, args); err != nil {
		r.log.Error("updateCustomer", zap.String("q", q), zap.Any("args", args), zap.Error(err))
		return model.Customer{}, err
	}
	return cust, nil
}

func (r *repository) CountByTimeslot(ctx context.Context, timeslot time.Time) (int, error) {
	q, args, err := qb.Select("count(*)").
		From(reservationsTableName).
		Where(sq.Eq{"timeslot": timeslot}).
		ToSql()
	if err != nil {
		return 0, err
	}
	var count int
	if err := r.db.QueryRow(ctx, q, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *repository) UsedTables(ctx context.Context, timeslot time.Time) ([]int, error) {
	q, args, err := qb.Select("table_number").
		From(reservationsTableName).
		Where(sq.Eq{"timeslot": timeslot}).
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return pgx.CollectRows(rows, pgx.RowTo[int])
}

func (r *repository) ListReservations(ctx context.Context) ([]model.Reservation, error) {
	query, args, err := reservationQuery().
		OrderBy("r.timeslot desc").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items, err := pgx.CollectRows(rows, pgx.RowToStructByName[model.Reservation])
	if err != nil {
		return nil, errors.Wrap(err, "pgx.CollectRows")
	}
	return items, nil
}

func (r *repository) GetReservation(ctx context.Context, id int) (model.Reservation, error) {
	query, args, err := reservationQuery().
		Where(sq.Eq{"r.id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.Reservation{}, err
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return model.Reservation{}, err
	}
	defer rows.Close()

	res, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Reservation])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Reservation{}, errs.ErrNotFound
		}
		return model.Reservation{}, err
	}
	return res, nil
}

func reservationQuery() sq.SelectBuilder {
	return qb.Select("r.id", "r.customer_id", "r.timeslot", "r.table_number", "r.guests", "r.created_at",
		"c.name as customer_name", "c.email", "c.phone").
		From(reservationsTableName + " r").
		Join(customersTableName + " c on c.id = r.customer_id")
}
