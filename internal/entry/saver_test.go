package entry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingrea/chequedesk/internal/cheque"
	"github.com/kingrea/chequedesk/internal/identity"
)

func TestSaverRecordTrimsAndStamps(t *testing.T) {
	code, err := cheque.ParseCode("BSF", "BSF120-000045-6789")
	require.NoError(t, err)
	s := NewSaver(nil, WithIdentity(identity.Static("teller-7")))

	rec := s.Record("BSF", cheque.FormState{Name: "  Ko Ko ", Phone: " 0977 ", Amount: " 42.50 ", Status: cheque.StatusPaid}, code)

	assert.Equal(t, "BSF120-000045-6789", rec.ChequeID)
	assert.Equal(t, "Ko Ko", rec.Name)
	assert.Equal(t, "0977", rec.Phone)
	assert.Equal(t, "42.50", rec.Amount)
	assert.Equal(t, cheque.StatusPaid, rec.Status)
	assert.Equal(t, "teller-7", rec.CreatedBy)
	assert.Empty(t, rec.ID, "ids are assigned by the store")
	assert.True(t, rec.CreatedAt.IsZero())
}

func TestSaverCheckEdit(t *testing.T) {
	s := NewSaver(nil, WithPhoneRegion("gb"))
	cases := []struct {
		name string
		edit cheque.Edit
		want error
	}{
		{"valid", cheque.Edit{Name: "A", Phone: "0121 234 5678", Amount: "10", Status: cheque.StatusNotValid}, nil},
		{"blank name", cheque.Edit{Name: "  ", Phone: "0121 234 5678", Amount: "10", Status: cheque.StatusValid}, ErrIncompleteFields},
		{"zero amount", cheque.Edit{Name: "A", Phone: "0121 234 5678", Amount: "0", Status: cheque.StatusValid}, ErrInvalidAmount},
		{"bad phone", cheque.Edit{Name: "A", Phone: "12", Amount: "10", Status: cheque.StatusValid}, ErrInvalidPhone},
		{"not found status", cheque.Edit{Name: "A", Phone: "0121 234 5678", Amount: "10", Status: cheque.StatusNotFound}, ErrInvalidStatus},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := s.CheckEdit(tc.edit)
			if tc.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

type slowCreator struct{}

func (slowCreator) Create(ctx context.Context, rec cheque.Record) (cheque.Record, error) {
	<-ctx.Done()
	return cheque.Record{}, ctx.Err()
}

func TestSaverCreateHonoursWriteTimeout(t *testing.T) {
	s := NewSaver(slowCreator{}, WithWriteTimeout(5*time.Millisecond))
	_, err := s.Create(cheque.Record{ChequeID: "BSF000-000000-0000"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))

	_, err = NewSaver(nil).Create(cheque.Record{})
	assert.Error(t, err)
}
