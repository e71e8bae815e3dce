package seed

import (
	"context"
	"errors"
	"testing"

	"form95/config"
	"form95/internal/logger"
	. "form95/internal/models"

	"github.com/stretchr/testify/assert"
)

type fakeResetter struct {
	calls []string
	err   error
}

func (f *fakeResetter) ResetAdmin(ctx context.Context, username, password string) (*User, error) {
	f.calls = append(f.calls, username)
	if f.err != nil {
		return nil, f.err
	}
	return &User{Username: username, Role: UserRoleAdmin}, nil
}

func TestSeed(t *testing.T) {
	tests := []struct {
		name      string
		config    config.Config
		err       error
		wantCalls int
		wantErr   bool
	}{
		{name: "no password", config: config.Config{AdminUsername: "admin"}},
		{name: "password", config: config.Config{AdminUsername: "admin", AdminPassword: "long enough"}, wantCalls: 1},
		{name: "failure", config: config.Config{AdminUsername: "admin", AdminPassword: "long enough"}, err: errors.New("locked"), wantCalls: 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetter := &fakeResetter{err: tt.err}
			err := Seed(context.Background(), resetter, tt.config, logger.New("seed"))

			assert.Len(t, resetter.calls, tt.wantCalls)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}
