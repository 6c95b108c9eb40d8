package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ----------------------------------------------------------------------------
// Registry
// ----------------------------------------------------------------------------

func TestRegistry_BuiltInSchemas(t *testing.T) {
	assert.Equal(t, []RecordType{Order, ReturnedPart}, Types())

	rp, ok := Get(ReturnedPart)
	require.True(t, ok)
	assert.Equal(t, "Returned Parts", rp.Label)

	_, ok = Get("invoice")
	assert.False(t, ok)
}

func TestRegistry_DuplicatePanics(t *testing.T) {
	assert.Panics(t, func() {
		Register(Schema{Type: ReturnedPart})
	})
}

func TestLookup_Unknown(t *testing.T) {
	_, err := Lookup("invoice")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownRecordType)
}

func TestGetSchema(t *testing.T) {
	fields := GetSchema(ReturnedPart)
	require.NotEmpty(t, fields)
	assert.Equal(t, "partName", fields[0].Name)

	assert.Nil(t, GetSchema("invoice"))
}

// ----------------------------------------------------------------------------
// Schema shape
// ----------------------------------------------------------------------------

func TestReturnedPartSchema_RequiredFields(t *testing.T) {
	s, _ := Get(ReturnedPart)
	assert.Equal(t, []string{"partName", "partNumber", "customerName", "orderNumber"}, s.Required())
}

func TestSchemas_WellFormed(t *testing.T) {
	for _, s := range All() {
		t.Run(string(s.Type), func(t *testing.T) {
			seen := make(map[string]bool)
			for _, f := range s.Fields {
				assert.False(t, seen[f.Name], "duplicate field %s", f.Name)
				seen[f.Name] = true

				assert.NotEmpty(t, f.Label, "field %s has no label", f.Name)
				if f.Type == FieldStatus {
					assert.NotNil(t, f.Lifecycle, "status field %s has no lifecycle", f.Name)
				}
				if f.Recommended {
					assert.NotEmpty(t, f.RecommendMessage, "recommended field %s has no message", f.Name)
				}
			}

			for _, key := range s.UniqueKey {
				assert.True(t, seen[key], "unique key %s is not a field", key)
			}
			if s.ShippedField != "" {
				assert.True(t, seen[s.ShippedField])
				assert.True(t, seen[s.ArrivalField])
			}

			require.NotEmpty(t, s.Example)
			for _, row := range s.Example {
				for name := range row {
					assert.True(t, seen[name], "example column %s is not a field", name)
				}
			}
		})
	}
}

func TestFieldSpec_Allows(t *testing.T) {
	s, _ := Get(ReturnedPart)
	carrier, ok := s.Field("carrier")
	require.True(t, ok)

	assert.True(t, carrier.Allows("ups"))
	assert.True(t, carrier.Allows("FedEx"))
	assert.False(t, carrier.Allows("Pony Express"))

	notes, _ := s.Field("notes")
	assert.True(t, notes.Allows("anything"))

	reason, _ := s.Field("returnReason")
	assert.True(t, reason.Allows("Defective"))
	assert.True(t, reason.Allows(DefaultReturnReason))
	assert.True(t, reason.Allows("customer return"))
	assert.False(t, reason.Allows("changed my mind"))
}

func TestLifecycle_Initial(t *testing.T) {
	assert.Equal(t, "shipped", ReturnLifecycle.Initial())
	assert.Equal(t, "pending", OrderLifecycle.Initial())

	var none *Lifecycle
	assert.Equal(t, "", none.Initial())
}

func TestFieldType_String(t *testing.T) {
	tests := []struct {
		ft   FieldType
		want string
	}{
		{FieldText, "string"},
		{FieldDate, "date"},
		{FieldEmail, "email"},
		{FieldEnum, "enum"},
		{FieldStatus, "status"},
		{FieldReason, "reason"},
		{FieldType(99), "unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.ft.String())
	}
}
