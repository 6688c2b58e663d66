package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/cenkalti/backoff/v4"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var accepted = Notification{UserID: 5, OrderID: 101, Status: "processing", OrderTotal: 1500}

func TestNotification_Text(t *testing.T) {
	assert.Equal(t, "Order accepted", accepted.Title())
	assert.Contains(t, accepted.Message(), "#101")
	assert.Equal(t, "/orders/101", accepted.Link())

	rejected := Notification{UserID: 5, OrderID: 102, Status: "cancelled", OrderTotal: 800}
	assert.Equal(t, "Order cancelled", rejected.Title())

	other := Notification{OrderID: 103, Status: "on_hold"}
	assert.Equal(t, "Order updated", other.Title())
	assert.Equal(t, "Your order #103 is now on_hold.", other.Message())
}

func TestInbox_Notify(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	inbox := NewInbox(db)

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO notifications").
			WithArgs(int64(5), "Order accepted", accepted.Message(), "order_status", "/orders/101").
			WillReturnResult(sqlmock.NewResult(1, 1))

		assert.NoError(t, inbox.Notify(context.Background(), accepted))
	})

	t.Run("DBError", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO notifications").
			WillReturnError(errors.New("db down"))

		err := inbox.Notify(context.Background(), accepted)
		assert.ErrorContains(t, err, "inbox notification")
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInbox_ListForUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "user_id", "title", "message", "type", "link", "read", "created_at"}).
		AddRow(1, 5, "Order accepted", "msg", "order_status", "/orders/101", false, now)

	mock.ExpectQuery(`SELECT .* FROM notifications WHERE user_id = \$1`).
		WithArgs(int64(5), 50).
		WillReturnRows(rows)

	items, err := NewInbox(db).ListForUser(context.Background(), 5, 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Order accepted", items[0].Title)
	assert.False(t, items[0].Read)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInbox_MarkRead(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`UPDATE notifications SET read = TRUE`).
		WithArgs(int64(9), int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, NewInbox(db).MarkRead(context.Background(), 5, 9))
	assert.NoError(t, mock.ExpectationsWereMet())
}

type fakeSender struct {
	failures int
	calls    int
	sent     []tgbotapi.Chattable
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.calls++
	if f.calls <= f.failures {
		return tgbotapi.Message{}, errors.New("telegram unavailable")
	}
	f.sent = append(f.sent, c)
	return tgbotapi.Message{MessageID: f.calls}, nil
}

func instantTelegram(s *fakeSender) *Telegram {
	tg := newTelegram(s, -100123)
	tg.newBackOff = func() backoff.BackOff { return &backoff.ZeroBackOff{} }
	return tg
}

func TestTelegram_Notify(t *testing.T) {
	t.Run("Retries until success", func(t *testing.T) {
		s := &fakeSender{failures: 2}

		err := instantTelegram(s).Notify(context.Background(), accepted)

		require.NoError(t, err)
		assert.Equal(t, 3, s.calls)
		require.Len(t, s.sent, 1)
		msg, ok := s.sent[0].(tgbotapi.MessageConfig)
		require.True(t, ok)
		assert.Equal(t, int64(-100123), msg.ChatID)
		assert.Contains(t, msg.Text, "order #101")
	})

	t.Run("Gives up after max retries", func(t *testing.T) {
		s := &fakeSender{failures: 10}

		err := instantTelegram(s).Notify(context.Background(), accepted)

		assert.ErrorContains(t, err, "telegram unavailable")
		assert.Equal(t, 4, s.calls)
	})
}

type recordingNotifier struct {
	err   error
	calls int
}

func (r *recordingNotifier) Notify(context.Context, Notification) error {
	r.calls++
	return r.err
}

func TestMulti_Notify(t *testing.T) {
	failing := &recordingNotifier{err: errors.New("first failed")}
	ok := &recordingNotifier{}

	err := Multi{failing, nil, ok}.Notify(context.Background(), accepted)

	assert.ErrorContains(t, err, "first failed")
	assert.Equal(t, 1, failing.calls)
	assert.Equal(t, 1, ok.calls)

	assert.NoError(t, Multi{ok}.Notify(context.Background(), accepted))
	assert.NoError(t, Noop{}.Notify(context.Background(), accepted))
}
