package auth_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/goliatone/go-jobboard-auth"
)

func TestPrincipalFromContext(t *testing.T) {
	tests := []struct {
		name     string
		setupCtx func() context.Context
		wantOK   bool
	}{
		{
			name: "should return principal when present in context",
			setupCtx: func() context.Context {
				return auth.WithPrincipal(context.Background(), testPrincipal())
			},
			wantOK: true,
		},
		{
			name: "should return false when no principal in context",
			setupCtx: func() context.Context {
				return context.Background()
			},
		},
		{
			name: "should return false for a zero principal",
			setupCtx: func() context.Context {
				return auth.WithPrincipal(context.Background(), auth.Principal{})
			},
		},
		{
			name: "should return false for a nil context",
			setupCtx: func() context.Context {
				return nil
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			principal, ok := auth.PrincipalFromContext(tt.setupCtx())
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, !tt.wantOK, principal.IsZero())
		})
	}
}

func TestMustPrincipal(t *testing.T) {
	t.Run("returns the stored principal", func(t *testing.T) {
		want := testPrincipal()
		got, err := auth.MustPrincipal(auth.WithPrincipal(context.Background(), want))
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("fails unauthenticated without principal", func(t *testing.T) {
		_, err := auth.MustPrincipal(context.Background())
		assert.ErrorIs(t, err, auth.ErrUnauthenticated)
	})
}
