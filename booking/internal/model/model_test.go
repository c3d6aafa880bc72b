package model_test

import (
	"testing"
	"time"

	"github.com/cafe-fausse/booking-service/booking/internal/model"
	"github.com/stretchr/testify/require"
)

func TestValidEmail(t *testing.T) {
	t.Parallel()
	require.True(t, model.ValidEmail("john@x.com"))
	require.True(t, model.ValidEmail("a@b.c"))
	require.False(t, model.ValidEmail("john.x.com"))
	require.False(t, model.ValidEmail("john@xcom"))
	require.False(t, model.ValidEmail(""))
}

func TestParseTimeslot(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      string
		want    time.Time
		wantErr bool
	}{
		{
			name: "rfc3339 utc",
			in:   "2026-10-01T19:00:00Z",
			want: time.Date(2026, 10, 1, 19, 0, 0, 0, time.UTC),
		},
		{
			name: "rfc3339 with offset normalized to utc",
			in:   "2026-10-01T21:00:00+02:00",
			want: time.Date(2026, 10, 1, 19, 0, 0, 0, time.UTC),
		},
		{
			name: "naive treated as utc",
			in:   "2026-10-01T19:00:00",
			want: time.Date(2026, 10, 1, 19, 0, 0, 0, time.UTC),
		},
		{
			name:    "garbage",
			in:      "next friday",
			wantErr: true,
		},
		{
			name:    "date only",
			in:      "2026-10-01",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := model.ParseTimeslot(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.True(t, got.Equal(tt.want), "got %v want %v", got, tt.want)
			require.Equal(t, time.UTC, got.Location())
		})
	}
}

func TestMergeCustomer(t *testing.T) {
	t.Parallel()

	phone := "555-0101"
	cur := model.Customer{
		ID:               1,
		Name:             "John Doe",
		Email:            "john@x.com",
		Phone:            &phone,
		NewsletterSignup: true,
	}

	t.Run("empty update keeps fields", func(t *testing.T) {
		t.Parallel()
		got := model.MergeCustomer(cur, model.CustomerUpdate{Email: "john@x.com"})
		require.Equal(t, cur, got)
	})

	t.Run("non-empty name and phone overwrite", func(t *testing.T) {
		t.Parallel()
		got := model.MergeCustomer(cur, model.CustomerUpdate{
			Name:  "Johnny",
			Phone: "555-0202",
		})
		require.Equal(t, "Johnny", got.Name)
		require.Equal(t, "555-0202", *got.Phone)
	})

	t.Run("opt-in flips false to true", func(t *testing.T) {
		t.Parallel()
		c := cur
		c.NewsletterSignup = false
		got := model.MergeCustomer(c, model.CustomerUpdate{NewsletterSignup: true})
		require.True(t, got.NewsletterSignup)
	})

	t.Run("opt-in never flips true to false", func(t *testing.T) {
		t.Parallel()
		got := model.MergeCustomer(cur, model.CustomerUpdate{NewsletterSignup: false})
		require.True(t, got.NewsletterSignup)
	})
}
