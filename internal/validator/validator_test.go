package validator

import (
	"errors"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type contestBody struct {
	Title    string `json:"title"    validate:"notblank,printable,max=200"`
	Password string `json:"password" validate:"contest_password"`
	Place    *int   `json:"place"    validate:"omitnil,min=1,max=3"`
	ID       string `param:"contest_id" validate:"required"`
}

func place(p int) *int {
	return &p
}

func TestValidator(t *testing.T) {
	v := Create()

	t.Run("Valid", func(t *testing.T) {
		assert.NoError(t, v.Validate(&contestBody{Title: "Spring\tshorts", ID: "x"}))
		assert.NoError(t, v.Validate(&contestBody{Title: "t", Password: "hunter22", ID: "x", Place: place(3)}))
	})

	tests := map[string]struct {
		body  contestBody
		field string
	}{
		"blank title":    {contestBody{Title: "   ", ID: "x"}, "title"},
		"control char":   {contestBody{Title: "bell\a", ID: "x"}, "title"},
		"long title":     {contestBody{Title: strings.Repeat("a", 201), ID: "x"}, "title"},
		"short password": {contestBody{Title: "t", Password: "short", ID: "x"}, "password"},
		"place zero":     {contestBody{Title: "t", Place: place(0), ID: "x"}, "place"},
		"place four":     {contestBody{Title: "t", Place: place(4), ID: "x"}, "place"},
		"param name":     {contestBody{Title: "t"}, "contest_id"},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			err := v.Validate(&test.body)
			require.Error(t, err)

			var errs validator.ValidationErrors
			require.True(t, errors.As(err, &errs))
			require.Len(t, errs, 1)
			assert.Equal(t, test.field, errs[0].Field())
		})
	}
}
