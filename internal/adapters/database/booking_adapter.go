package database

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/leafhq/leaf/backend/internal/domain/entities"
	"github.com/leafhq/leaf/backend/internal/domain/repositories"
	"github.com/leafhq/leaf/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/leafhq/leaf/backend/pkg/errors"
)

// BookingAdapter implements the BookingRepository interface.
//
// ClaimRooms serializes concurrent claims by locking the room rows in a
// deterministic order before re-checking exclusivity, so two overlapping
// claims for the same room are forced to run one after the other.
type BookingAdapter struct {
	client     *postgres.Client
	db         *goqu.Database
	holdWindow time.Duration
}

// NewBookingAdapter creates a new booking adapter. holdWindow is how long a
// pending booking keeps blocking availability after it was created.
func NewBookingAdapter(client *postgres.Client, holdWindow time.Duration) repositories.BookingRepository {
	return &BookingAdapter{
		client:     client,
		db:         goqu.New("postgres", client.DB()),
		holdWindow: holdWindow,
	}
}

// ClaimRooms atomically claims every room on the booking, all or nothing.
func (a *BookingAdapter) ClaimRooms(ctx context.Context, booking *entities.Booking) error {
	roomIDs := make([]string, 0, len(booking.Rooms))
	for _, br := range booking.Rooms {
		roomIDs = append(roomIDs, br.RoomID)
	}
	// Locking in id order keeps concurrent claims from deadlocking each
	// other when they touch overlapping room sets.
	sort.Strings(roomIDs)

	tx, err := a.client.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return apperrors.NewInternalError("failed to begin claim transaction", err)
	}
	defer tx.Rollback()

	if err := a.lockRooms(ctx, tx, roomIDs); err != nil {
		return err
	}

	conflicts, err := a.conflictsInTx(ctx, tx, roomIDs, booking.Range(), booking.ID)
	if err != nil {
		return err
	}
	if len(conflicts) > 0 {
		return apperrors.NewRoomUnavailableError(conflicts)
	}

	if err := a.insertBooking(ctx, tx, booking); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewInternalError("failed to commit claim transaction", err)
	}

	return nil
}

// PromoteHold confirms a pending booking under the same room locks as
// ClaimRooms. The in-transaction re-check excludes the hold itself, so an
// expired hold only promotes when no rival booking claimed its rooms in the
// meantime.
func (a *BookingAdapter) PromoteHold(ctx context.Context, booking *entities.Booking) error {
	roomIDs := make([]string, 0, len(booking.Rooms))
	for _, br := range booking.Rooms {
		roomIDs = append(roomIDs, br.RoomID)
	}
	sort.Strings(roomIDs)

	tx, err := a.client.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return apperrors.NewInternalError("failed to begin promote transaction", err)
	}
	defer tx.Rollback()

	if err := a.lockRooms(ctx, tx, roomIDs); err != nil {
		return err
	}

	conflicts, err := a.conflictsInTx(ctx, tx, roomIDs, booking.Range(), booking.ID)
	if err != nil {
		return err
	}
	if len(conflicts) > 0 {
		return apperrors.NewRoomUnavailableError(conflicts)
	}

	query, args, err := a.db.Update("bookings").
		Set(goqu.Record{
			"status":     entities.BookingStatusConfirmed,
			"updated_at": time.Now(),
		}).
		Where(
			goqu.Ex{"id": booking.ID},
			goqu.C("status").Eq(string(entities.BookingStatusPending)),
		).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build promote update", err)
	}

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to promote booking", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewInvalidTransitionError(
			fmt.Sprintf("booking %s is no longer pending", booking.ID),
		)
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewInternalError("failed to commit promote transaction", err)
	}

	return nil
}

// lockRooms takes row locks on the claimed rooms inside the transaction.
func (a *BookingAdapter) lockRooms(ctx context.Context, tx *sql.Tx, roomIDs []string) error {
	query, args, err := a.db.Select("id").
		From("rooms").
		Where(goqu.C("id").In(roomIDs)).
		Order(goqu.I("id").Asc()).
		ForUpdate(exp.Wait).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build lock query", err)
	}

	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to lock rooms", err)
	}
	defer rows.Close()

	locked := 0
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return apperrors.NewInternalError("failed to scan locked room", err)
		}
		locked++
	}
	if err := rows.Err(); err != nil {
		return apperrors.NewInternalError("failed to lock rooms", err)
	}

	if locked != len(roomIDs) {
		return apperrors.NewNotFoundError(fmt.Sprintf("expected %d rooms, found %d", len(roomIDs), locked))
	}

	return nil
}

// conflictsInTx re-checks exclusivity for the locked rooms. A booking blocks
// a room when its stay overlaps the requested range and it is confirmed, or
// pending and still inside the hold window. Rows belonging to
// excludeBookingID are never conflicts; a booking cannot conflict with
// itself.
func (a *BookingAdapter) conflictsInTx(ctx context.Context, tx *sql.Tx, roomIDs []string, rng entities.DateRange, excludeBookingID string) ([]apperrors.RoomConflict, error) {
	query, args, err := conflictQuery(a.db, roomIDs, rng, time.Now().Add(-a.holdWindow), excludeBookingID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build conflict query", err)
	}

	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to check room conflicts", err)
	}
	defer rows.Close()

	return scanConflicts(rows)
}

func conflictQuery(db *goqu.Database, roomIDs []string, rng entities.DateRange, pendingCutoff time.Time, excludeBookingID string) (string, []interface{}, error) {
	ds := db.Select(
		goqu.I("br.room_id"),
		goqu.I("b.id"),
	).From(goqu.T("booking_rooms").As("br")).
		Join(
			goqu.T("bookings").As("b"),
			goqu.On(goqu.I("b.id").Eq(goqu.I("br.booking_id"))),
		).
		Where(
			goqu.I("br.room_id").In(roomIDs),
			goqu.I("b.start_date").Lt(rng.End),
			goqu.I("b.end_date").Gt(rng.Start),
			goqu.Or(
				goqu.I("b.status").Eq(entities.BookingStatusConfirmed),
				goqu.And(
					goqu.I("b.status").Eq(entities.BookingStatusPending),
					goqu.I("b.created_at").Gt(pendingCutoff),
				),
			),
		)

	if excludeBookingID != "" {
		ds = ds.Where(goqu.I("b.id").Neq(excludeBookingID))
	}

	return ds.Order(goqu.I("br.room_id").Asc()).ToSQL()
}

func scanConflicts(rows *sql.Rows) ([]apperrors.RoomConflict, error) {
	var conflicts []apperrors.RoomConflict
	for rows.Next() {
		var c apperrors.RoomConflict
		if err := rows.Scan(&c.RoomID, &c.BookingID); err != nil {
			return nil, apperrors.NewInternalError("failed to scan room conflict", err)
		}
		conflicts = append(conflicts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to read room conflicts", err)
	}
	return conflicts, nil
}

// insertBooking writes the booking header and its booking rooms.
func (a *BookingAdapter) insertBooking(ctx context.Context, tx *sql.Tx, booking *entities.Booking) error {
	record := goqu.Record{
		"id":                 booking.ID,
		"user_id":            booking.UserID,
		"hotel_id":           booking.HotelID,
		"start_date":         booking.StartDate,
		"end_date":           booking.EndDate,
		"total_charge_cents": booking.TotalCharge,
		"status":             booking.Status,
		"created_at":         booking.CreatedAt,
		"updated_at":         booking.UpdatedAt,
	}

	query, args, err := a.db.Insert("bookings").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build booking insert", err)
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to insert booking", err)
	}

	roomRecords := make([]goqu.Record, 0, len(booking.Rooms))
	for _, br := range booking.Rooms {
		roomRecords = append(roomRecords, goqu.Record{
			"id":           br.ID,
			"booking_id":   booking.ID,
			"room_id":      br.RoomID,
			"charge_cents": br.Charge,
		})
	}

	query, args, err = a.db.Insert("booking_rooms").Rows(roomRecords).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build booking rooms insert", err)
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to insert booking rooms", err)
	}

	return nil
}

// GetByID retrieves a booking with its rooms and any reviews
func (a *BookingAdapter) GetByID(ctx context.Context, id string) (*entities.Booking, error) {
	query, args, err := a.db.Select(
		"id", "user_id", "hotel_id", "start_date", "end_date",
		"total_charge_cents", "status", "created_at", "updated_at",
	).From("bookings").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	booking := &entities.Booking{}
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(
		&booking.ID,
		&booking.UserID,
		&booking.HotelID,
		&booking.StartDate,
		&booking.EndDate,
		&booking.TotalCharge,
		&booking.Status,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("booking with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get booking", err)
	}

	rooms, err := a.roomsForBookings(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	booking.Rooms = rooms[id]

	return booking, nil
}

// ListByUser retrieves a user's bookings, newest first
func (a *BookingAdapter) ListByUser(ctx context.Context, userID string, filter repositories.BookingFilter) ([]*entities.Booking, error) {
	ds := a.db.Select(
		"id", "user_id", "hotel_id", "start_date", "end_date",
		"total_charge_cents", "status", "created_at", "updated_at",
	).From("bookings").
		Where(goqu.Ex{"user_id": userID})

	if filter.Status != "" {
		ds = ds.Where(goqu.Ex{"status": filter.Status})
	}

	if filter.From != nil {
		ds = ds.Where(goqu.C("start_date").Gte(*filter.From))
	}

	if filter.To != nil {
		ds = ds.Where(goqu.C("end_date").Lte(*filter.To))
	}

	ds = ds.Order(goqu.I("created_at").Desc())

	if filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit))
	}

	if filter.Offset > 0 {
		ds = ds.Offset(uint(filter.Offset))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list bookings", err)
	}
	defer rows.Close()

	var bookings []*entities.Booking
	var bookingIDs []string
	for rows.Next() {
		booking := &entities.Booking{}
		err := rows.Scan(
			&booking.ID,
			&booking.UserID,
			&booking.HotelID,
			&booking.StartDate,
			&booking.EndDate,
			&booking.TotalCharge,
			&booking.Status,
			&booking.CreatedAt,
			&booking.UpdatedAt,
		)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan booking", err)
		}
		bookings = append(bookings, booking)
		bookingIDs = append(bookingIDs, booking.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to read bookings", err)
	}

	if len(bookingIDs) == 0 {
		return bookings, nil
	}

	rooms, err := a.roomsForBookings(ctx, bookingIDs)
	if err != nil {
		return nil, err
	}
	for _, b := range bookings {
		b.Rooms = rooms[b.ID]
	}

	return bookings, nil
}

// roomsForBookings loads booking rooms with their reviews in one pass.
func (a *BookingAdapter) roomsForBookings(ctx context.Context, bookingIDs []string) (map[string][]entities.BookingRoom, error) {
	query, args, err := a.db.Select(
		goqu.I("br.id"),
		goqu.I("br.booking_id"),
		goqu.I("br.room_id"),
		goqu.I("br.charge_cents"),
		goqu.I("r.id"),
		goqu.I("r.rating"),
		goqu.I("r.comment"),
		goqu.I("r.created_at"),
	).From(goqu.T("booking_rooms").As("br")).
		LeftJoin(
			goqu.T("reviews").As("r"),
			goqu.On(goqu.I("r.booking_room_id").Eq(goqu.I("br.id"))),
		).
		Where(goqu.I("br.booking_id").In(bookingIDs)).
		Order(goqu.I("br.id").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build booking rooms query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list booking rooms", err)
	}
	defer rows.Close()

	result := make(map[string][]entities.BookingRoom)
	for rows.Next() {
		var br entities.BookingRoom
		var reviewID, comment sql.NullString
		var rating sql.NullInt64
		var reviewedAt sql.NullTime

		err := rows.Scan(
			&br.ID,
			&br.BookingID,
			&br.RoomID,
			&br.Charge,
			&reviewID,
			&rating,
			&comment,
			&reviewedAt,
		)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan booking room", err)
		}

		if reviewID.Valid {
			br.Review = &entities.Review{
				ID:            reviewID.String,
				BookingRoomID: br.ID,
				Rating:        int(rating.Int64),
				Comment:       comment.String,
				CreatedAt:     reviewedAt.Time,
			}
		}

		result[br.BookingID] = append(result[br.BookingID], br)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to read booking rooms", err)
	}

	return result, nil
}

// ListConflicts returns the booking rooms blocking the given rooms over rng.
func (a *BookingAdapter) ListConflicts(ctx context.Context, roomIDs []string, rng entities.DateRange, pendingCutoff time.Time) ([]apperrors.RoomConflict, error) {
	if len(roomIDs) == 0 {
		return nil, nil
	}

	query, args, err := conflictQuery(a.db, roomIDs, rng, pendingCutoff, "")
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build conflict query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list room conflicts", err)
	}
	defer rows.Close()

	return scanConflicts(rows)
}

// UpdateStatus transitions a booking guarded by its current status.
func (a *BookingAdapter) UpdateStatus(ctx context.Context, id string, expected []entities.BookingStatus, next entities.BookingStatus) error {
	statuses := make([]string, 0, len(expected))
	for _, s := range expected {
		statuses = append(statuses, string(s))
	}

	query, args, err := a.db.Update("bookings").
		Set(goqu.Record{
			"status":     next,
			"updated_at": time.Now(),
		}).
		Where(
			goqu.Ex{"id": id},
			goqu.C("status").In(statuses),
		).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build status update", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update booking status", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}

	if rowsAffected == 0 {
		// Distinguish a missing booking from a disallowed transition.
		existing, err := a.GetByID(ctx, id)
		if err != nil {
			return err
		}
		return apperrors.NewInvalidTransitionError(
			fmt.Sprintf("booking %s cannot move from %s to %s", id, existing.Status, next),
		)
	}

	return nil
}

// AddReview attaches a post-stay review to a booking room
func (a *BookingAdapter) AddReview(ctx context.Context, review *entities.Review) error {
	record := goqu.Record{
		"id":              review.ID,
		"booking_room_id": review.BookingRoomID,
		"rating":          review.Rating,
		"comment":         review.Comment,
		"created_at":      review.CreatedAt,
	}

	query, args, err := a.db.Insert("reviews").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build review insert", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create review", err)
	}

	return nil
}
