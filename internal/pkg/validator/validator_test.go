package validator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHelpers(t *testing.T) {
	assert.True(t, IsEmpty(""))
	assert.True(t, IsEmpty(" \t "))
	assert.False(t, IsEmpty(" emp-1 "))

	assert.True(t, IsInSlice("EXIT", []string{"ENTRY", "EXIT"}))
	assert.False(t, IsInSlice("exit", []string{"ENTRY", "EXIT"}))

	assert.True(t, IsValidUUID("0195f3a0-7c1e-7a2b-9c3d-4e5f60718293"))
	assert.True(t, IsValidUUID("123E4567-E89B-42D3-A456-426614174000"))
	assert.False(t, IsValidUUID("abc"))
	assert.False(t, IsValidUUID("0195f3a07c1e7a2b9c3d4e5f60718293"))
	assert.False(t, IsValidUUID("g195f3a0-7c1e-7a2b-9c3d-4e5f60718293"))

	for _, s := range []string{"2026-03-02", "2024-02-29"} {
		_, ok := IsValidDate(s)
		assert.True(t, ok, s)
	}
	for _, s := range []string{"2026-02-29", "2026-13-01", "2026/03/02", "02-03-2026", ""} {
		_, ok := IsValidDate(s)
		assert.False(t, ok, s)
	}
}

func TestValidationErrors(t *testing.T) {
	errs := ValidationErrors{
		{Field: "employee_id", Message: "employee_id is required"},
		{Field: "method", Message: "method must be one of: facial, fingerprint, traditional"},
	}

	assert.Equal(t, "employee_id: employee_id is required; method: method must be one of: facial, fingerprint, traditional", errs.Error())
	assert.Equal(t, map[string]string{
		"employee_id": "employee_id is required",
		"method":      "method must be one of: facial, fingerprint, traditional",
	}, errs.ToMap())
}

type reportFilter struct {
	DateFrom    string   `json:"date_from" validate:"required,datetime=2006-01-02"`
	EmployeeIDs []string `json:"employee_ids" validate:"max=2,dive,required,uuid"`
	Internal    string   `json:"-"`
}

func TestStruct(t *testing.T) {
	require.NoError(t, Struct(reportFilter{DateFrom: "2026-03-02"}))

	err := Struct(reportFilter{DateFrom: "02/03/2026", EmployeeIDs: []string{"a", "b", "c"}})
	var errs ValidationErrors
	require.True(t, errors.As(err, &errs))

	fields := errs.ToMap()
	assert.Equal(t, "date_from must be in YYYY-MM-DD format", fields["date_from"])
	assert.Equal(t, "employee_ids must not exceed 2", fields["employee_ids"])

	err = Struct(reportFilter{DateFrom: "2026-03-02", EmployeeIDs: []string{"not-a-uuid"}})
	require.True(t, errors.As(err, &errs))
	assert.Equal(t, "employee_ids[0] must be a valid UUID", errs.ToMap()["employee_ids[0]"])

	err = Struct(reportFilter{})
	require.True(t, errors.As(err, &errs))
	assert.Equal(t, "date_from is required", errs.ToMap()["date_from"])
}
