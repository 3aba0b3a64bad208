package database

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ TxPool = (*pgxpool.Pool)(nil)
	_ TxPool = (pgxmock.PgxPoolIface)(nil)
)

func TestStore_InTx(t *testing.T) {
	inventoryID := uuid.New()

	t.Run("commits when fn succeeds", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE inventory").
			WithArgs(inventoryID, int64(4)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		mock.ExpectCommit()

		err = NewStore(mock).InTx(context.Background(), func(q Querier) error {
			n, err := q.DecrementUnbooked(context.Background(), inventoryID, 4)
			if err != nil {
				return err
			}
			assert.Equal(t, int64(1), n)
			return nil
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back when fn fails", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE inventory").
			WithArgs(inventoryID, int64(40)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))
		mock.ExpectRollback()

		errExhausted := errors.New("exhausted")
		err = NewStore(mock).InTx(context.Background(), func(q Querier) error {
			n, err := q.DecrementUnbooked(context.Background(), inventoryID, 40)
			if err != nil {
				return err
			}
			if n == 0 {
				return errExhausted
			}
			return nil
		})
		assert.ErrorIs(t, err, errExhausted)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("begin failure", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectBegin().WillReturnError(errors.New("too many connections"))

		called := false
		err = NewStore(mock).InTx(context.Background(), func(Querier) error {
			called = true
			return nil
		})
		assert.ErrorContains(t, err, "begin transaction")
		assert.False(t, called)
	})
}

func TestQueries_EnsureShipmentStatus(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.New()
	mock.ExpectExec("INSERT INTO shipment_status").
		WithArgs(id, ShipmentPending).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO shipment_status").
		WithArgs(id, ShipmentPending).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	q := New(mock)
	created, err := q.EnsureShipmentStatus(context.Background(), id, ShipmentPending)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = q.EnsureShipmentStatus(context.Background(), id, ShipmentPending)
	require.NoError(t, err)
	assert.False(t, created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Migrate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS").WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, NewStore(mock).Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
