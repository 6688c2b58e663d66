package recovery

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository_Upsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	d := draft("s1", "Ayesha")
	d.ShippingAddress = "House 12, Road 5"
	d.UpdatedAt = time.Now()

	mock.ExpectExec("INSERT INTO checkout_drafts").
		WithArgs("s1", "Ayesha", "01712345678", "House 12, Road 5",
			[]byte(`[{"product_id":1,"product_name":"","quantity":1,"price":450}]`),
			int64(450), d.UpdatedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))

	assert.NoError(t, NewRepository(db).Upsert(context.Background(), d))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_MarkConverted(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`(?s)INSERT INTO checkout_drafts \(session_id, customer_phone, converted_order_id, updated_at\).*ON CONFLICT \(session_id\) DO UPDATE SET\s+converted_order_id = EXCLUDED\.converted_order_id`).
		WithArgs("s1", int64(31)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	assert.NoError(t, NewRepository(db).MarkConverted(context.Background(), "s1", 31))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_ListOpen(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery("FROM checkout_drafts").
		WithArgs(50).
		WillReturnRows(sqlmock.NewRows([]string{
			"session_id", "customer_name", "customer_phone", "shipping_address",
			"items", "total_amount", "updated_at", "created_at",
		}).AddRow("s1", "Ayesha", "01712345678", "House 12",
			[]byte(`[{"product_id":1,"product_name":"Cat food","quantity":2,"price":450}]`),
			900, now, now))

	open, err := NewRepository(db).ListOpen(context.Background(), 0)

	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "s1", open[0].SessionID)
	require.Len(t, open[0].Items, 1)
	assert.Equal(t, "Cat food", open[0].Items[0].ProductName)
	assert.Nil(t, open[0].ConvertedOrderID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
