package validator

import (
	"errors"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Type        string        `json:"type" validate:"required,oneof=move hint"`
	TimePerTurn time.Duration `yaml:"time-per-turn" validate:"min=1s,max=30s"`
}

func TestGetValidator_FieldNames(t *testing.T) {
	err := GetValidator().Struct(sample{Type: "fly", TimePerTurn: time.Minute})
	require.Error(t, err)

	var verrs validator.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	require.Len(t, verrs, 2)
	assert.Equal(t, "type", verrs[0].Field())
	assert.Equal(t, "time-per-turn", verrs[1].Field())
}

func TestGetValidator_Valid(t *testing.T) {
	assert.NoError(t, GetValidator().Struct(sample{Type: "move", TimePerTurn: 10 * time.Second}))
}
