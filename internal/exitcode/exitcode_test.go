package exitcode

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFrom(t *testing.T) {
	base := errors.New("connection refused")

	tests := []struct {
		name string
		err  error
		code int
	}{
		{name: "nil", err: nil, code: OK},
		{name: "plain", err: base, code: Errored},
		{name: "wrapped", err: Wrap(Database, base), code: Database},
		{name: "wrapped twice", err: fmt.Errorf("migrate: %w", Wrap(Config, base)), code: Config},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, From(tt.err))
		})
	}
}

func TestWrap(t *testing.T) {
	assert.NoError(t, Wrap(Database, nil))

	base := errors.New("boom")
	err := Wrap(Config, base)
	assert.ErrorIs(t, err, base)
	assert.Equal(t, "2: boom", err.Error())
	assert.Equal(t, "3", ExitError{Code: Database}.Error())
}
